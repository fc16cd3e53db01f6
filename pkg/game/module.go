// Package game wires the registry, broker, pool and weapon into a single
// session that runs on one loop.
package game

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/cfoust/modswap/pkg/assets"
	"github.com/cfoust/modswap/pkg/broker"
	"github.com/cfoust/modswap/pkg/config"
	"github.com/cfoust/modswap/pkg/geom"
	"github.com/cfoust/modswap/pkg/loop"
	"github.com/cfoust/modswap/pkg/menu"
	"github.com/cfoust/modswap/pkg/mods"
	"github.com/cfoust/modswap/pkg/pool"
	"github.com/cfoust/modswap/pkg/projectile"
	"github.com/cfoust/modswap/pkg/scene"
	"github.com/cfoust/modswap/pkg/weapon"

	"github.com/go-redis/redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// How often Settle checks on catalogs that are still loading.
const settleInterval = 10 * time.Millisecond

// NewStore picks the cache for remote catalogs.
func NewStore(settings config.CacheSettings) (assets.Store, error) {
	if settings.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     settings.Redis.Address,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
		})
		return assets.NewRedisStore(client, assets.CATALOG_EXPIRY), nil
	}

	if settings.Directory != "" {
		if err := os.MkdirAll(settings.Directory, 0755); err != nil {
			return nil, fmt.Errorf("failed to make cache dir %s: %w", settings.Directory, err)
		}
		return assets.FSStore(settings.Directory), nil
	}

	return assets.NewMemoryStore(), nil
}

// Session must only be used from the goroutine that drives its loop,
// except for Loop.Post.
type Session struct {
	Loop     *loop.Loop
	World    *scene.World
	Loader   *assets.Loader
	Broker   *broker.Broker
	Registry *mods.Registry
	Bullets  *pool.Pool[*projectile.Projectile]
	Weapon   *weapon.Trigger
	Menu     *menu.Menu

	config *config.Config
	epoch  time.Time
	log    zerolog.Logger
}

func New(cfg *config.Config, store assets.Store) (*Session, error) {
	lifetime, err := cfg.Projectile.Lifetime()
	if err != nil {
		return nil, fmt.Errorf("invalid debris lifetime: %w", err)
	}

	l := loop.New()
	world := scene.NewWorld(l)
	loader := assets.NewLoader(l, store)
	b := broker.New(world)
	registry := mods.New(l, loader, b, mods.Options{
		Required:  cfg.Mods.Required,
		Extension: cfg.Mods.Extension,
	})

	settings := projectile.Settings{
		Speed:          cfg.Projectile.Speed,
		ImpactSound:    cfg.Projectile.ImpactSound,
		DebrisKey:      cfg.Projectile.DebrisKey,
		DebrisLifetime: lifetime,
	}
	bullets := pool.New(cfg.Pool.Key, cfg.Pool.Capacity, b, func(object scene.Object) *projectile.Projectile {
		bullet := projectile.New(object, settings, b, world, l)
		bullet.Begin()
		return bullet
	})

	s := &Session{
		Loop:     l,
		World:    world,
		Loader:   loader,
		Broker:   b,
		Registry: registry,
		Bullets:  bullets,
		Weapon:   weapon.New(cfg.Weapon.FireRate, bullets),
		Menu:     menu.New(registry.Activate),
		config:   cfg,
		epoch:    time.Unix(0, 0),
		log:      log.With().Str("service", "game").Logger(),
	}

	registry.RegisterListener(bullets.Reset)
	registry.RegisterListener(s.onActivate)
	registry.RegisterPacksListener(s.Menu.Rebuild)

	return s, nil
}

func (s *Session) onActivate() {
	active, ok := s.Registry.Active()
	if !ok {
		return
	}

	s.Menu.SetActive(active.Name)
	if missing := s.Registry.Unresolved(); len(missing) > 0 {
		s.log.Warn().Strs("missing", missing).Msgf("pack %s is incomplete", active.Name)
	}
}

// Start loads the built-in pack and begins discovery. A mod directory
// that does not exist only means there are no local mods.
func (s *Session) Start(ctx context.Context) error {
	s.Registry.Start(ctx)

	directory := s.config.Mods.Directory
	err := s.Registry.Discover(ctx, directory)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Warn().Msgf("mod directory %s does not exist", directory)
		err = nil
	}
	if err != nil {
		return err
	}

	s.Registry.DiscoverRemote(ctx, s.config.Mods.Remotes)

	if s.config.Mods.Watch {
		if err := s.Registry.Watch(ctx, directory); err != nil {
			return fmt.Errorf("could not watch %s: %w", directory, err)
		}
	}

	return nil
}

// Settle runs the loop until every requested catalog has loaded or failed.
func (s *Session) Settle(ctx context.Context) error {
	ticker := time.NewTicker(settleInterval)
	defer ticker.Stop()

	for {
		s.Loop.Flush()
		if s.Registry.Loading() == 0 && s.Loop.Pending() == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Now is the loop's logical clock as a wall time.
func (s *Session) Now() time.Time {
	return s.epoch.Add(s.Loop.Now())
}

// Fire pulls the trigger at the current loop time.
func (s *Session) Fire(position, facing geom.Vector) (bool, error) {
	return s.Weapon.Pull(s.Now(), position, facing)
}

// Frame advances the session by dt: queued work runs, objects move and
// bullets that left the arena hit its wall. It returns the number of
// impacts.
func (s *Session) Frame(dt time.Duration) int {
	s.Loop.Tick(dt)
	s.World.Step(dt)
	return s.collide()
}

// Busy reports whether anything is still queued on the loop: posted work,
// bullets being created or timers such as debris cleanup.
func (s *Session) Busy() bool {
	return s.Loop.Pending() > 0 || s.Loop.Timers() > 0 || s.Bullets.Reserved() > 0
}

func (s *Session) collide() int {
	impacts := 0
	for _, bullet := range s.Bullets.Entries() {
		if bullet.State() != projectile.Flying || !bullet.Alive() {
			continue
		}

		object := bullet.Object()
		position := object.Position()
		if position.Magnitude() < s.config.Projectile.Range {
			continue
		}

		impacts++
		err := bullet.OnCollision(projectile.Collision{
			Point:  position,
			Normal: position.Mul(-1).Normalize(),
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("impact left no debris")
		}
	}

	return impacts
}
