// Package pool recycles frequently spawned objects instead of creating and
// tearing them down. Entries are reused strictly oldest first, whether or
// not they are still in use.
package pool

import (
	"fmt"

	"github.com/cfoust/modswap/pkg/broker"
	"github.com/cfoust/modswap/pkg/geom"
	"github.com/cfoust/modswap/pkg/scene"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrSaturated means every free slot is waiting on an instantiation and
// there is nothing to recycle yet.
var ErrSaturated = fmt.Errorf("pool saturated")

type Recyclable interface {
	Recycle(position, facing geom.Vector)
	Alive() bool
}

type Spawner interface {
	Instantiate(key string, position, facing geom.Vector, parent scene.Object) (*broker.Instance, error)
	Destroy(instance *broker.Instance)
	// Generation changes whenever the spawner releases everything it made.
	Generation() uint64
}

// Factory wraps a newly instantiated object. The entry it returns should
// already be in motion.
type Factory[T Recyclable] func(object scene.Object) T

// Pool must only be used from the loop goroutine.
type Pool[T Recyclable] struct {
	key      string
	capacity int
	spawner  Spawner
	factory  Factory[T]

	queue []T

	// Requests sent to the spawner that have not landed yet.
	reserved int

	log zerolog.Logger
}

func New[T Recyclable](key string, capacity int, spawner Spawner, factory Factory[T]) *Pool[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &Pool[T]{
		key:      key,
		capacity: capacity,
		spawner:  spawner,
		factory:  factory,
		queue:    make([]T, 0, capacity),
		log:      log.With().Str("service", "pool").Str("key", key).Logger(),
	}
}

// Spawn launches an entry at position facing facing. Below capacity a new
// object is requested and joins the queue when it lands; at capacity the
// oldest entry is pulled back and relaunched.
func (p *Pool[T]) Spawn(position, facing geom.Vector) error {
	p.evictReleased()

	if len(p.queue)+p.reserved < p.capacity {
		return p.allocate(position, facing)
	}

	if len(p.queue) == 0 {
		return ErrSaturated
	}

	p.recycle(position, facing)
	return nil
}

func (p *Pool[T]) allocate(position, facing geom.Vector) error {
	instance, err := p.spawner.Instantiate(p.key, position, facing, nil)
	if err != nil {
		return err
	}

	p.reserved++
	instance.OnReady(func(object scene.Object, err error) {
		p.reserved--

		if err != nil {
			p.log.Warn().Err(err).Msg("instantiation failed")
			return
		}

		// Objects requested before a pack switch belong to the old pack.
		if instance.Generation != p.spawner.Generation() {
			p.log.Debug().Msgf("dropping %s requested before a pack switch", instance.Location.Id)
			p.spawner.Destroy(instance)
			return
		}

		p.queue = append(p.queue, p.factory(object))
	})

	return nil
}

func (p *Pool[T]) recycle(position, facing geom.Vector) {
	entry := p.queue[0]
	p.queue = p.queue[1:]

	entry.Recycle(position, facing)

	p.queue = append(p.queue, entry)
}

// evictReleased drops entries whose objects went away, which happens when
// the pack they came from is switched out.
func (p *Pool[T]) evictReleased() {
	kept := p.queue[:0]
	for _, entry := range p.queue {
		if entry.Alive() {
			kept = append(kept, entry)
		}
	}

	var empty T
	for i := len(kept); i < len(p.queue); i++ {
		p.queue[i] = empty
	}

	if dropped := len(p.queue) - len(kept); dropped > 0 {
		p.log.Debug().Msgf("evicted %d released entries", dropped)
	}

	p.queue = kept
}

// Reset forgets every queued entry. Requests in flight only join the
// queue if no pack switch happened in the meantime.
func (p *Pool[T]) Reset() {
	p.queue = make([]T, 0, p.capacity)
}

// Entries is the queue from oldest to newest.
func (p *Pool[T]) Entries() []T {
	out := make([]T, len(p.queue))
	copy(out, p.queue)
	return out
}

func (p *Pool[T]) Len() int      { return len(p.queue) }
func (p *Pool[T]) Reserved() int { return p.reserved }
func (p *Pool[T]) Capacity() int { return p.capacity }
