package mods

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cfoust/modswap/pkg/assets"
	"github.com/cfoust/modswap/pkg/broker"
	"github.com/cfoust/modswap/pkg/geom"
	"github.com/cfoust/modswap/pkg/loop"
	"github.com/cfoust/modswap/pkg/scene"

	"github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var required = []string{"Bullet", "Debris"}

func catalog(checksum uint64, assetList ...assets.Asset) *assets.IndexCatalog {
	return assets.NewIndexCatalog(&assets.Index{Assets: assetList}, checksum)
}

// fakeLoader hands out catalogs by file name and fails for anything else.
type fakeLoader struct {
	loop     *loop.Loop
	catalogs map[string]*assets.IndexCatalog
}

func (f *fakeLoader) LoadCatalog(ctx context.Context, target string) *loop.Future[assets.Catalog] {
	found, ok := f.catalogs[filepath.Base(target)]
	if !ok {
		return loop.Resolved[assets.Catalog](f.loop, nil, fmt.Errorf("corrupt catalog"))
	}
	return loop.Resolved[assets.Catalog](f.loop, found, nil)
}

type fixture struct {
	loop     *loop.Loop
	world    *scene.World
	broker   *broker.Broker
	registry *Registry
	dir      string
}

func writeFiles(t *testing.T, dir string, names ...string) {
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}
}

func setup(t *testing.T) *fixture {
	l := loop.New()
	world := scene.NewWorld(l)
	b := broker.New(world)

	loader := &fakeLoader{
		loop: l,
		catalogs: map[string]*assets.IndexCatalog{
			filepath.Base(assets.BUILTIN): catalog(1,
				assets.Asset{Key: "Bullet", Id: "default/bullet"},
				assets.Asset{Key: "Debris", Id: "default/debris"},
			),
			"evil_mod.json": catalog(2,
				assets.Asset{Key: "Bullet", Id: "evil/bullet"},
				assets.Asset{Key: "Bullet", Id: "evil/bullet-alt"},
				assets.Asset{Key: "Debris", Id: "evil/debris"},
			),
			"space_mod.json": catalog(3,
				assets.Asset{Key: "Bullet", Id: "space/bullet"},
			),
		},
	}

	dir := t.TempDir()
	writeFiles(t, dir, "evil_mod.json", "space_mod.json", "broken_mod.json", "readme.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	registry := New(l, loader, b, Options{Required: required})
	return &fixture{
		loop:     l,
		world:    world,
		broker:   b,
		registry: registry,
		dir:      dir,
	}
}

func (f *fixture) start(t *testing.T) {
	ctx := context.Background()
	f.registry.Start(ctx)
	require.NoError(t, f.registry.Discover(ctx, f.dir))
	f.loop.Flush()
}

func names(infos []PackInfo) []string {
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Name)
	}
	return out
}

func TestPackName(t *testing.T) {
	assert.Equal(t, "Evil Mod", PackName("evil_mod.json"))
	assert.Equal(t, "Space Mod", PackName("/mods/SPACE_MOD.json"))
	assert.Equal(t, "Retro", PackName("retro.cbor"))
	assert.Equal(t, "Big Bad Wolf", PackName("big_bad_wolf.json"))
}

func TestDiscover(t *testing.T) {
	f := setup(t)

	ctx := context.Background()
	f.registry.Start(ctx)
	require.NoError(t, f.registry.Discover(ctx, f.dir))

	// Builtin plus every .json file, broken or not
	assert.Equal(t, 4, f.registry.Loading())
	f.loop.Flush()
	assert.Equal(t, 0, f.registry.Loading())

	assert.Equal(t, []string{"Default", "Evil Mod", "Space Mod"}, names(f.registry.List()))

	active, ok := f.registry.Active()
	require.True(t, ok)
	assert.Equal(t, "Default", active.Name)
	assert.True(t, active.Default)
	assert.Empty(t, active.Source)

	evil, ok := f.registry.Get("Evil Mod")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(f.dir, "evil_mod.json"), evil.Source)
	assert.Equal(t, uint64(2), evil.Checksum)
}

func TestDiscoverMissingDirectory(t *testing.T) {
	f := setup(t)
	err := f.registry.Discover(context.Background(), filepath.Join(f.dir, "nope"))
	assert.Error(t, err)
}

func TestDuplicateNamesKeepFirst(t *testing.T) {
	f := setup(t)
	f.start(t)

	// Loading the same source twice is a no-op.
	require.NoError(t, f.registry.Discover(context.Background(), f.dir))
	f.loop.Flush()
	assert.Len(t, f.registry.List(), 3)

	// A different file that names the same pack is skipped.
	other := t.TempDir()
	writeFiles(t, other, "evil_mod.json")
	require.NoError(t, f.registry.Discover(context.Background(), other))
	f.loop.Flush()

	assert.Len(t, f.registry.List(), 3)
	evil, _ := f.registry.Get("Evil Mod")
	assert.Equal(t, filepath.Join(f.dir, "evil_mod.json"), evil.Source)
}

// slowBuiltin finishes the built-in catalog a few ticks after everything
// else.
type slowBuiltin struct {
	*fakeLoader
}

func (s *slowBuiltin) LoadCatalog(ctx context.Context, target string) *loop.Future[assets.Catalog] {
	if target != assets.BUILTIN {
		return s.fakeLoader.LoadCatalog(ctx, target)
	}

	future := loop.NewFuture[assets.Catalog](s.loop)
	s.loop.Post(func() {
		s.loop.Post(func() {
			found := s.catalogs[filepath.Base(assets.BUILTIN)]
			future.Resolve(found, nil)
		})
	})
	return future
}

func TestDefaultNameIsReserved(t *testing.T) {
	l := loop.New()
	b := broker.New(scene.NewWorld(l))
	loader := &slowBuiltin{&fakeLoader{
		loop: l,
		catalogs: map[string]*assets.IndexCatalog{
			filepath.Base(assets.BUILTIN): catalog(1,
				assets.Asset{Key: "Bullet", Id: "default/bullet"},
				assets.Asset{Key: "Debris", Id: "default/debris"},
			),
			"default.json": catalog(4,
				assets.Asset{Key: "Bullet", Id: "impostor/bullet"},
			),
		},
	}}

	dir := t.TempDir()
	writeFiles(t, dir, "default.json")

	registry := New(l, loader, b, Options{Required: required})
	ctx := context.Background()
	registry.Start(ctx)
	require.NoError(t, registry.Discover(ctx, dir))
	l.Flush()

	assert.Equal(t, []string{"Default"}, names(registry.List()))

	active, ok := registry.Active()
	require.True(t, ok)
	assert.Equal(t, "Default", active.Name)
	assert.True(t, active.Default)
	assert.Empty(t, active.Source)
	assert.Equal(t, uint64(1), active.Checksum)

	location, err := b.Lookup("Bullet")
	require.NoError(t, err)
	assert.Equal(t, "default/bullet", location.Id)
}

func TestActivateResolvesEveryRequiredKey(t *testing.T) {
	f := setup(t)
	f.start(t)

	calls := 0
	f.registry.RegisterListener(func() { calls++ })

	for _, name := range []string{"Default", "Evil Mod", "Space Mod"} {
		require.NoError(t, f.registry.Activate(name))
		assert.Len(t, f.registry.Resolved(), len(required))
	}
	assert.Equal(t, 3, calls)

	// Space Mod has no debris; the key is kept and flagged.
	assert.Equal(t, []string{"Debris"}, f.registry.Unresolved())
	assert.True(t, opt.IsNone(f.registry.Resolved()["Debris"]))

	_, err := f.broker.Instantiate("Debris", geom.Zero, geom.Forward, nil)
	var missing *broker.MissingAssetError
	assert.True(t, errors.As(err, &missing))

	// The first location a catalog offers wins.
	require.NoError(t, f.registry.Activate("Evil Mod"))
	bullet := f.registry.Resolved()["Bullet"]
	require.False(t, opt.IsNone(bullet))
	assert.Equal(t, "evil/bullet", bullet.Value.Id)
	assert.Empty(t, f.registry.Unresolved())
}

func TestActivateUnknownPack(t *testing.T) {
	f := setup(t)
	f.start(t)
	require.NoError(t, f.registry.Activate("Evil Mod"))

	called := false
	f.registry.RegisterListener(func() { called = true })
	before := f.registry.Resolved()

	err := f.registry.Activate("Nonexistent")
	var unknown *UnknownPackError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Nonexistent", unknown.Name)

	active, _ := f.registry.Active()
	assert.Equal(t, "Evil Mod", active.Name)
	assert.Equal(t, before, f.registry.Resolved())
	assert.Equal(t, "Evil Mod", f.broker.Pack())
	assert.False(t, called)
}

func TestReactivateNotifiesAgain(t *testing.T) {
	f := setup(t)
	f.start(t)

	var order []string
	f.registry.RegisterListener(func() { order = append(order, "first") })
	f.registry.RegisterListener(func() { order = append(order, "second") })

	require.NoError(t, f.registry.Activate("Space Mod"))
	first := f.registry.Resolved()
	require.NoError(t, f.registry.Activate("Space Mod"))

	assert.Equal(t, first, f.registry.Resolved())
	assert.Equal(t, []string{"first", "second", "first", "second"}, order)
}

func TestSwitchReleasesPreviousInstances(t *testing.T) {
	f := setup(t)
	f.start(t)

	old, err := f.broker.Instantiate("Bullet", geom.Zero, geom.Forward, nil)
	require.NoError(t, err)
	f.loop.Flush()
	oldObject, ok := old.Object()
	require.True(t, ok)

	released := false
	f.registry.RegisterListener(func() {
		// Listeners run after the release and see the new table.
		released = !oldObject.Alive()
		assert.Equal(t, 0, f.world.Len())
	})

	require.NoError(t, f.registry.Activate("Evil Mod"))
	assert.True(t, released)

	fresh, err := f.broker.Instantiate("Bullet", geom.Zero, geom.Forward, nil)
	require.NoError(t, err)
	assert.Equal(t, "evil/bullet", fresh.Location.Id)
}

func TestPackListeners(t *testing.T) {
	f := setup(t)

	var seen [][]string
	f.registry.RegisterPacksListener(func(infos []PackInfo) {
		seen = append(seen, names(infos))
	})
	sub := f.registry.Subscribe()
	defer sub.Done()

	f.start(t)

	assert.Equal(t, [][]string{
		{"Default"},
		{"Default", "Evil Mod"},
		{"Default", "Evil Mod", "Space Mod"},
	}, seen)

	var last []PackInfo
	for i := 0; i < 3; i++ {
		last = <-sub.Recv()
	}
	assert.Len(t, last, 3)
}

func TestRealCatalogs(t *testing.T) {
	l := loop.New()
	b := broker.New(scene.NewWorld(l))
	registry := New(l, assets.NewLoader(l, nil), b, Options{Required: required})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "evil_mod.json"), []byte(`{
  "assets": [
    {"key": "Bullet", "id": "evil/bullet", "path": "Evil/Bullet.prefab"},
    {"key": "Debris", "id": "evil/debris", "path": "Evil/Debris.prefab"}
  ]
}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken_mod.json"), []byte(`{`), 0644))

	ctx := context.Background()
	registry.Start(ctx)
	require.NoError(t, registry.Discover(ctx, dir))

	require.Eventually(t, func() bool {
		l.Tick(0)
		return len(registry.List()) == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, registry.Activate("Evil Mod"))
	assert.Empty(t, registry.Unresolved())
	_, ok := registry.Get("Broken Mod")
	assert.False(t, ok)
}

func TestWatch(t *testing.T) {
	l := loop.New()
	b := broker.New(scene.NewWorld(l))
	registry := New(l, assets.NewLoader(l, nil), b, Options{Required: required})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	require.NoError(t, registry.Watch(ctx, dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "late_mod.json"), []byte(`{
  "assets": [{"key": "Bullet", "id": "late/bullet"}]
}`), 0644))

	require.Eventually(t, func() bool {
		l.Tick(0)
		_, ok := registry.Get("Late Mod")
		return ok
	}, 5*time.Second, 10*time.Millisecond)
}
