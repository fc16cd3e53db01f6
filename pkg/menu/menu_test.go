package menu

import (
	"fmt"
	"testing"

	"github.com/cfoust/modswap/pkg/mods"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(buttons []Button) []string {
	out := make([]string, 0, len(buttons))
	for _, button := range buttons {
		out = append(out, button.Label)
	}
	return out
}

func TestRebuild(t *testing.T) {
	m := New(func(string) error { return nil })
	assert.Empty(t, m.Buttons())

	m.Rebuild([]mods.PackInfo{
		{Name: "Default", Default: true},
	})
	m.SetActive("Default")

	m.Rebuild([]mods.PackInfo{
		{Name: "Default", Default: true},
		{Name: "Evil Mod", Source: "/mods/evil_mod.json"},
	})

	buttons := m.Buttons()
	assert.Equal(t, []string{"Default", "Evil Mod"}, labels(buttons))
	assert.True(t, buttons[0].Default)
	assert.True(t, buttons[0].Active)
	assert.False(t, buttons[1].Active)
	assert.Equal(t, "/mods/evil_mod.json", buttons[1].Source)
}

func TestSelect(t *testing.T) {
	var selected []string
	m := New(func(name string) error {
		selected = append(selected, name)
		if name == "Broken" {
			return fmt.Errorf("cannot activate")
		}
		return nil
	})

	m.Rebuild([]mods.PackInfo{
		{Name: "Default", Default: true},
		{Name: "Space Mod"},
		{Name: "Broken"},
	})

	require.NoError(t, m.Select("Space Mod"))
	require.Error(t, m.Select("Broken"))
	require.Error(t, m.Select("Nonexistent"))
	assert.Equal(t, []string{"Space Mod", "Broken"}, selected)

	m.SetActive("Space Mod")
	buttons := m.Buttons()
	assert.False(t, buttons[0].Active)
	assert.True(t, buttons[1].Active)
}
