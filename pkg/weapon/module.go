// Package weapon gates shots by fire rate before handing them to a pool.
package weapon

import (
	"time"

	"github.com/cfoust/modswap/pkg/geom"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Spawner interface {
	Spawn(position, facing geom.Vector) error
}

type Trigger struct {
	limiter *rate.Limiter
	spawner Spawner
	fired   int
	log     zerolog.Logger
}

// New builds a trigger that fires at most fireRate shots per second.
func New(fireRate float64, spawner Spawner) *Trigger {
	return &Trigger{
		limiter: rate.NewLimiter(rate.Limit(fireRate), 1),
		spawner: spawner,
		log:     log.With().Str("service", "weapon").Logger(),
	}
}

// Pull fires from position along direction if the weapon has cooled down
// by now. A shot that the spawner rejects still uses up the cooldown.
func (t *Trigger) Pull(now time.Time, position, direction geom.Vector) (bool, error) {
	if !t.limiter.AllowN(now, 1) {
		return false, nil
	}

	if err := t.spawner.Spawn(position, direction); err != nil {
		t.log.Warn().Err(err).Msg("shot failed")
		return false, err
	}

	t.fired++
	return true, nil
}

// Fired is the number of shots that made it to the spawner.
func (t *Trigger) Fired() int {
	return t.fired
}
