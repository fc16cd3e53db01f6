// Package scene is an in-memory scene. It stands in for the engine: it
// instantiates objects from asset locations, releases them, moves them
// along their velocity and records the sounds gameplay asked it to play.
package scene

import (
	"time"

	"github.com/cfoust/modswap/pkg/assets"
	"github.com/cfoust/modswap/pkg/geom"
	"github.com/cfoust/modswap/pkg/loop"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Clip struct {
	Name string
	At   geom.Vector
}

type World struct {
	loop     *loop.Loop
	latency  time.Duration
	nextID   uint64
	entities map[uint64]*Entity
	clips    []Clip
	log      zerolog.Logger
}

func NewWorld(l *loop.Loop) *World {
	return &World{
		loop:     l,
		entities: make(map[uint64]*Entity),
		log:      log.With().Str("service", "scene").Logger(),
	}
}

// SetLatency delays every instantiation by d of loop time.
func (w *World) SetLatency(d time.Duration) {
	w.latency = d
}

// Instantiate creates an object for location with its forward axis along
// pose.Forward. The object appears on a later tick. A parent that is gone
// by then is ignored.
func (w *World) Instantiate(location assets.Location, pose geom.Pose, parent Object) *loop.Future[Object] {
	future := loop.NewFuture[Object](w.loop)

	spawn := func() {
		entity := w.spawn(location, pose, parent)
		future.Resolve(entity, nil)
	}

	if w.latency > 0 {
		w.loop.After(w.latency, spawn)
	} else {
		w.loop.Post(spawn)
	}

	return future
}

func (w *World) spawn(location assets.Location, pose geom.Pose, parent Object) *Entity {
	w.nextID++
	entity := &Entity{
		id:         w.nextID,
		asset:      location,
		position:   pose.Position,
		forward:    pose.Forward,
		visible:    true,
		collidable: true,
		alive:      true,
	}

	if parent != nil {
		if owner, ok := w.entities[parent.ID()]; ok {
			entity.parent = owner
			owner.children = append(owner.children, entity)
		}
	}

	w.entities[entity.id] = entity
	w.log.Debug().Msgf("instantiated %s as %d", location.Id, entity.id)
	return entity
}

// Release tears down an object and everything parented to it.
func (w *World) Release(object Object) {
	if object == nil {
		return
	}

	entity, ok := w.entities[object.ID()]
	if !ok {
		return
	}

	w.release(entity)
}

func (w *World) release(entity *Entity) {
	if !entity.alive {
		return
	}

	entity.alive = false
	entity.visible = false
	entity.collidable = false
	entity.velocity = geom.Zero
	delete(w.entities, entity.id)

	for _, child := range entity.children {
		w.release(child)
	}
	entity.children = nil

	w.log.Debug().Msgf("released %s (%d)", entity.asset.Id, entity.id)
}

// Step moves every live object along its velocity.
func (w *World) Step(dt time.Duration) {
	seconds := dt.Seconds()
	for _, entity := range w.entities {
		if entity.velocity.IsZero() {
			continue
		}
		entity.position = entity.position.Add(entity.velocity.Mul(seconds))
	}
}

func (w *World) PlayClipAt(clip string, at geom.Vector) {
	w.clips = append(w.clips, Clip{Name: clip, At: at})
	w.log.Debug().Msgf("playing %s at (%.2f, %.2f, %.2f)", clip, at.X(), at.Y(), at.Z())
}

func (w *World) Clips() []Clip {
	return w.clips
}

func (w *World) Get(id uint64) (*Entity, bool) {
	entity, ok := w.entities[id]
	return entity, ok
}

// Len is the number of live objects.
func (w *World) Len() int {
	return len(w.entities)
}
