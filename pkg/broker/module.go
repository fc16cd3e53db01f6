// Package broker instantiates objects by logical key without callers
// knowing which pack supplied them, and keeps every live instance so a
// pack switch can release them all.
package broker

import (
	"fmt"
	"sort"

	"github.com/cfoust/modswap/pkg/assets"
	"github.com/cfoust/modswap/pkg/geom"
	"github.com/cfoust/modswap/pkg/loop"
	"github.com/cfoust/modswap/pkg/scene"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Provider is the engine side of instantiation.
type Provider interface {
	Instantiate(location assets.Location, pose geom.Pose, parent scene.Object) *loop.Future[scene.Object]
	Release(object scene.Object)
}

// Table maps every required key to its location in the active pack. Keys
// the pack does not provide are present as None.
type Table map[string]opt.Option[assets.Location]

type MissingAssetError struct {
	Key  string
	Pack string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("asset %q does not exist in pack %q", e.Key, e.Pack)
}

type Broker struct {
	provider   Provider
	pack       string
	table      Table
	generation uint64
	nextID     uint64
	live       map[*Instance]struct{}
	log        zerolog.Logger
}

func New(provider Provider) *Broker {
	return &Broker{
		provider: provider,
		table:    make(Table),
		live:     make(map[*Instance]struct{}),
		log:      log.With().Str("service", "broker").Logger(),
	}
}

// SetTable replaces the lookup table wholesale.
func (b *Broker) SetTable(pack string, table Table) {
	b.pack = pack
	b.table = table
}

func (b *Broker) Pack() string {
	return b.pack
}

// Generation increases every time ReleaseAll runs.
func (b *Broker) Generation() uint64 {
	return b.generation
}

func (b *Broker) Lookup(key string) (assets.Location, error) {
	entry, ok := b.table[key]
	if !ok || opt.IsNone(entry) {
		return assets.Location{}, &MissingAssetError{Key: key, Pack: b.pack}
	}

	return entry.Value, nil
}

// Instantiate requests a new object for key at position with its forward
// axis along facing. The instance is tracked from this call on, even
// before the provider has produced the object.
func (b *Broker) Instantiate(key string, position, facing geom.Vector, parent scene.Object) (*Instance, error) {
	location, err := b.Lookup(key)
	if err != nil {
		b.log.Warn().Err(err).Msg("cannot instantiate")
		return nil, err
	}

	b.nextID++
	instance := &Instance{
		id:         b.nextID,
		Key:        key,
		Location:   location,
		Generation: b.generation,
		future:     b.provider.Instantiate(location, geom.LookAt(position, facing), parent),
	}
	b.live[instance] = struct{}{}

	return instance, nil
}

// Destroy releases a single instance. Instances that were already released
// are ignored. An instance still in flight is released as soon as it lands.
func (b *Broker) Destroy(instance *Instance) {
	if instance == nil {
		return
	}

	if _, ok := b.live[instance]; !ok {
		return
	}

	if !instance.future.Settled() {
		instance.future.OnComplete(func(object scene.Object, err error) {
			b.Destroy(instance)
		})
		return
	}

	delete(b.live, instance)
	b.release(instance)
}

func (b *Broker) release(instance *Instance) {
	object, err := instance.future.Result()
	if err != nil || object == nil || !object.Alive() {
		return
	}

	b.provider.Release(object)
}

// ReleaseAll releases every instance that has landed. Requests still in
// flight stay tracked; their objects are accepted when they arrive and go
// out with the next ReleaseAll.
func (b *Broker) ReleaseAll() {
	released := 0
	pending := 0
	for _, instance := range b.sorted() {
		if !instance.future.Settled() {
			pending++
			continue
		}

		delete(b.live, instance)
		b.release(instance)
		released++
	}

	b.generation++
	b.log.Info().Msgf("released %d instances (%d still in flight)", released, pending)
}

// sorted orders live instances by creation so teardown is deterministic.
func (b *Broker) sorted() []*Instance {
	instances := make([]*Instance, 0, len(b.live))
	for instance := range b.live {
		instances = append(instances, instance)
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].id < instances[j].id
	})

	return instances
}

// Live is the number of tracked instances, in flight or not.
func (b *Broker) Live() int {
	return len(b.live)
}

func (b *Broker) Tracked(instance *Instance) bool {
	_, ok := b.live[instance]
	return ok
}
