package scene

import (
	"github.com/cfoust/modswap/pkg/assets"
	"github.com/cfoust/modswap/pkg/geom"
)

// Object is a scene object as gameplay code sees it.
type Object interface {
	ID() uint64
	Asset() assets.Location
	Parent() Object

	Position() geom.Vector
	SetPosition(geom.Vector)
	// Forward is the direction the object's forward axis points.
	Forward() geom.Vector
	SetForward(geom.Vector)
	Velocity() geom.Vector
	SetVelocity(geom.Vector)

	Visible() bool
	SetVisible(bool)
	Collidable() bool
	SetCollidable(bool)

	// Play starts the object's one-shot effect, if it has one.
	Play()
	Playing() bool

	// Alive is false once the object has been released.
	Alive() bool
}

type Entity struct {
	id       uint64
	asset    assets.Location
	parent   *Entity
	children []*Entity

	position   geom.Vector
	forward    geom.Vector
	velocity   geom.Vector
	visible    bool
	collidable bool
	playing    bool
	alive      bool
}

func (e *Entity) ID() uint64             { return e.id }
func (e *Entity) Asset() assets.Location { return e.asset }

func (e *Entity) Parent() Object {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *Entity) Position() geom.Vector         { return e.position }
func (e *Entity) SetPosition(p geom.Vector)     { e.position = p }
func (e *Entity) Forward() geom.Vector          { return e.forward }
func (e *Entity) Velocity() geom.Vector         { return e.velocity }
func (e *Entity) SetVelocity(v geom.Vector)     { e.velocity = v }
func (e *Entity) Visible() bool                 { return e.visible }
func (e *Entity) SetVisible(visible bool)       { e.visible = visible }
func (e *Entity) Collidable() bool              { return e.collidable }
func (e *Entity) SetCollidable(collidable bool) { e.collidable = collidable }
func (e *Entity) Play()                         { e.playing = true }
func (e *Entity) Playing() bool                 { return e.playing }
func (e *Entity) Alive() bool                   { return e.alive }

func (e *Entity) SetForward(facing geom.Vector) {
	e.forward = geom.LookAt(e.position, facing).Forward
}

var _ Object = (*Entity)(nil)
