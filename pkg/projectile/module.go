// Package projectile is the behavior of a single pooled bullet: it flies
// along its forward axis until it hits something, then hides itself and
// leaves a short-lived debris effect behind.
package projectile

import (
	"time"

	"github.com/cfoust/modswap/pkg/broker"
	"github.com/cfoust/modswap/pkg/geom"
	"github.com/cfoust/modswap/pkg/loop"
	"github.com/cfoust/modswap/pkg/scene"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type State int

const (
	Flying State = iota
	Impacted
)

func (s State) String() string {
	switch s {
	case Flying:
		return "flying"
	case Impacted:
		return "impacted"
	}
	return "unknown"
}

// Asset properties a pack may set on its bullet.
const (
	PROPERTY_SPEED  = "speed"
	PROPERTY_IMPACT = "impactSound"
)

type Settings struct {
	Speed          float64
	ImpactSound    string
	DebrisKey      string
	DebrisLifetime time.Duration
}

type Collision struct {
	Point  geom.Vector
	Normal geom.Vector
	Other  scene.Object
}

type Audio interface {
	PlayClipAt(clip string, at geom.Vector)
}

type Spawner interface {
	Instantiate(key string, position, facing geom.Vector, parent scene.Object) (*broker.Instance, error)
	Destroy(instance *broker.Instance)
}

type Projectile struct {
	object   scene.Object
	state    State
	speed    float64
	impact   string
	settings Settings
	spawner  Spawner
	audio    Audio
	loop     *loop.Loop
	log      zerolog.Logger
}

// New wraps a freshly instantiated bullet. Speed and impact sound come
// from the asset's properties when the pack sets them.
func New(object scene.Object, settings Settings, spawner Spawner, audio Audio, l *loop.Loop) *Projectile {
	asset := object.Asset()

	speed, ok := asset.Float(PROPERTY_SPEED)
	if !ok {
		speed = settings.Speed
	}

	impact, ok := asset.Text(PROPERTY_IMPACT)
	if !ok {
		impact = settings.ImpactSound
	}

	return &Projectile{
		object:   object,
		speed:    speed,
		impact:   impact,
		settings: settings,
		spawner:  spawner,
		audio:    audio,
		loop:     l,
		log:      log.With().Str("service", "projectile").Uint64("object", object.ID()).Logger(),
	}
}

func (p *Projectile) Object() scene.Object { return p.object }
func (p *Projectile) State() State         { return p.state }
func (p *Projectile) Speed() float64       { return p.speed }
func (p *Projectile) Alive() bool          { return p.object.Alive() }

// Begin launches the projectile along its forward axis. It may be called
// in any state.
func (p *Projectile) Begin() {
	p.state = Flying
	p.object.SetVelocity(p.object.Forward().Mul(p.speed))
}

// Recycle puts an already used projectile back into flight from a new
// position, cutting short whatever it was doing.
func (p *Projectile) Recycle(position, facing geom.Vector) {
	p.object.SetPosition(position)
	p.object.SetForward(facing)
	p.Begin()
	p.object.SetVisible(true)
	p.object.SetCollidable(true)
}

// OnCollision stops the projectile, hides it and spawns debris at the
// contact point. The projectile is Impacted even if the debris cannot be
// spawned; that error is returned.
func (p *Projectile) OnCollision(collision Collision) error {
	p.state = Impacted
	p.object.SetVelocity(geom.Zero)

	if p.impact != "" {
		p.audio.PlayClipAt(p.impact, collision.Point)
	}

	p.object.SetVisible(false)
	p.object.SetCollidable(false)

	debris, err := p.spawner.Instantiate(
		p.settings.DebrisKey,
		collision.Point,
		collision.Normal,
		p.object,
	)
	if err != nil {
		return err
	}

	// This only touches the debris, so it is harmless if the projectile
	// has been recycled by the time it runs.
	debris.OnReady(func(effect scene.Object, err error) {
		if err != nil {
			p.log.Warn().Err(err).Msg("debris failed to spawn")
			return
		}

		if !effect.Alive() {
			return
		}

		effect.Play()
		p.loop.After(p.settings.DebrisLifetime, func() {
			p.spawner.Destroy(debris)
		})
	})

	return nil
}
