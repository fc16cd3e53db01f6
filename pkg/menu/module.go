// Package menu is the pack selection surface: one button per known pack,
// rebuilt whenever the pack list changes.
package menu

import (
	"fmt"

	"github.com/cfoust/modswap/pkg/mods"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Button struct {
	Label   string
	Source  string
	Default bool
	Active  bool
}

type Menu struct {
	activate func(name string) error
	buttons  []Button
	active   string
	log      zerolog.Logger
}

// New builds an empty menu. Selecting a button calls activate with the
// button's label.
func New(activate func(name string) error) *Menu {
	return &Menu{
		activate: activate,
		log:      log.With().Str("service", "menu").Logger(),
	}
}

// Rebuild throws away every button and makes one per pack, in order.
func (m *Menu) Rebuild(packs []mods.PackInfo) {
	buttons := make([]Button, 0, len(packs))
	for _, pack := range packs {
		buttons = append(buttons, Button{
			Label:   pack.Name,
			Source:  pack.Source,
			Default: pack.Default,
			Active:  pack.Name == m.active,
		})
	}
	m.buttons = buttons
	m.log.Debug().Msgf("rebuilt menu with %d buttons", len(buttons))
}

// SetActive highlights the button for name.
func (m *Menu) SetActive(name string) {
	m.active = name
	for i := range m.buttons {
		m.buttons[i].Active = m.buttons[i].Label == name
	}
}

func (m *Menu) Buttons() []Button {
	buttons := make([]Button, len(m.buttons))
	copy(buttons, m.buttons)
	return buttons
}

// Select presses the button labeled label.
func (m *Menu) Select(label string) error {
	for _, button := range m.buttons {
		if button.Label != label {
			continue
		}

		return m.activate(button.Label)
	}

	return fmt.Errorf("no button labeled %q", label)
}
