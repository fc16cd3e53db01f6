package scene

import (
	"testing"
	"time"

	"github.com/cfoust/modswap/pkg/assets"
	"github.com/cfoust/modswap/pkg/geom"
	"github.com/cfoust/modswap/pkg/loop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnNow(t *testing.T, l *loop.Loop, w *World, id string, parent Object) Object {
	future := w.Instantiate(assets.Location{Id: id}, geom.LookAt(geom.Zero, geom.Right), parent)
	l.Flush()
	object, err := future.Result()
	require.NoError(t, err)
	require.NotNil(t, object)
	return object
}

func TestInstantiateIsAsynchronous(t *testing.T) {
	l := loop.New()
	w := NewWorld(l)

	future := w.Instantiate(assets.Location{Id: "bullet"}, geom.LookAt(geom.NewVector(1, 0, 0), geom.Up), nil)
	assert.False(t, future.Settled())
	assert.Equal(t, 0, w.Len())

	l.Flush()
	object, err := future.Result()
	require.NoError(t, err)
	assert.Equal(t, geom.NewVector(1, 0, 0), object.Position())
	assert.True(t, object.Forward().ApproxEqual(geom.Up))
	assert.True(t, object.Visible())
	assert.True(t, object.Alive())
}

func TestLatency(t *testing.T) {
	l := loop.New()
	w := NewWorld(l)
	w.SetLatency(time.Second)

	future := w.Instantiate(assets.Location{Id: "slow"}, geom.LookAt(geom.Zero, geom.Forward), nil)
	l.Flush()
	assert.False(t, future.Settled())

	l.Tick(time.Second)
	l.Flush()
	assert.True(t, future.Settled())
}

func TestReleaseCascadesToChildren(t *testing.T) {
	l := loop.New()
	w := NewWorld(l)

	bullet := spawnNow(t, l, w, "bullet", nil)
	debris := spawnNow(t, l, w, "debris", bullet)
	assert.Equal(t, bullet, debris.Parent())
	assert.Equal(t, 2, w.Len())

	w.Release(bullet)
	assert.False(t, bullet.Alive())
	assert.False(t, debris.Alive())
	assert.Equal(t, 0, w.Len())

	// Releasing twice is harmless.
	w.Release(debris)
}

func TestStep(t *testing.T) {
	l := loop.New()
	w := NewWorld(l)

	bullet := spawnNow(t, l, w, "bullet", nil)
	bullet.SetVelocity(geom.NewVector(10, 0, 0))
	w.Step(500 * time.Millisecond)
	assert.True(t, bullet.Position().ApproxEqual(geom.NewVector(5, 0, 0)))
}
