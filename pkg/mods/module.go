// Package mods discovers content packs, tracks which one is active and
// resolves the required asset keys against it.
package mods

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cfoust/modswap/pkg/assets"
	"github.com/cfoust/modswap/pkg/broker"
	"github.com/cfoust/modswap/pkg/loop"
	"github.com/cfoust/modswap/pkg/utils"

	"github.com/fsnotify/fsnotify"
	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type CatalogLoader interface {
	LoadCatalog(ctx context.Context, target string) *loop.Future[assets.Catalog]
}

type Options struct {
	// Required are the keys every pack is expected to provide.
	Required []string
	// Extension identifies catalog files during discovery.
	Extension string
}

// Registry must only be used from the loop goroutine.
type Registry struct {
	loop      *loop.Loop
	loader    CatalogLoader
	broker    *broker.Broker
	required  []string
	extension string

	packs   []*Pack
	byName  map[string]*Pack
	sources map[string]struct{}
	loading int
	active  *Pack
	table   broker.Table

	listeners     []func()
	packListeners []func([]PackInfo)
	updates       *utils.Topic[[]PackInfo]

	log zerolog.Logger
}

func New(l *loop.Loop, loader CatalogLoader, b *broker.Broker, options Options) *Registry {
	extension := options.Extension
	if extension == "" {
		extension = ".json"
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	required := make([]string, len(options.Required))
	copy(required, options.Required)

	return &Registry{
		loop:      l,
		loader:    loader,
		broker:    b,
		required:  required,
		extension: extension,
		byName:    make(map[string]*Pack),
		sources:   make(map[string]struct{}),
		updates:   utils.NewTopic[[]PackInfo](),
		log:       log.With().Str("service", "mods").Logger(),
	}
}

// Start loads the built-in pack and activates it once it is ready.
func (r *Registry) Start(ctx context.Context) {
	r.load(ctx, assets.BUILTIN, DEFAULT_PACK, true, func() {
		r.Activate(DEFAULT_PACK)
	})
}

func (r *Registry) matches(file string) bool {
	return strings.EqualFold(filepath.Ext(file), r.extension)
}

// Discover starts loading every catalog file directly inside directory.
// Packs appear one by one as their catalogs finish loading.
func (r *Registry) Discover(ctx context.Context, directory string) error {
	absolute, err := filepath.Abs(directory)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(absolute)
	if err != nil {
		return fmt.Errorf("could not read mod directory %s: %w", directory, err)
	}

	found := 0
	for _, entry := range entries {
		if entry.IsDir() || !r.matches(entry.Name()) {
			continue
		}

		path := filepath.Join(absolute, entry.Name())
		if r.load(ctx, path, PackName(entry.Name()), false, nil) {
			found++
		}
	}

	r.log.Info().Msgf("found %d catalogs in %s", found, absolute)
	return nil
}

// DiscoverRemote loads catalogs served over HTTP. The pack name comes from
// the last element of the URL path.
func (r *Registry) DiscoverRemote(ctx context.Context, urls []string) {
	for _, url := range urls {
		base := assets.GetURLBase(url)
		if base == "" {
			r.log.Warn().Msgf("cannot name a pack after %s", url)
			continue
		}

		r.load(ctx, url, PackName(base), false, nil)
	}
}

// Watch loads catalog files that show up in directory after discovery.
// It stops when ctx is done.
func (r *Registry) Watch(ctx context.Context, directory string) error {
	absolute, err := filepath.Abs(directory)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(absolute); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if !event.Has(fsnotify.Create|fsnotify.Write) || !r.matches(event.Name) {
					continue
				}

				path := event.Name
				r.loop.Post(func() {
					r.load(ctx, path, PackName(path), false, nil)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.log.Warn().Err(err).Msg("mod watcher error")
			}
		}
	}()

	r.log.Info().Msgf("watching %s for new catalogs", absolute)
	return nil
}

// load requests a catalog unless the same source is already loaded or in
// flight. It reports whether a load was started.
func (r *Registry) load(ctx context.Context, source, name string, isDefault bool, then func()) bool {
	if _, ok := r.sources[source]; ok {
		return false
	}
	r.sources[source] = struct{}{}
	r.loading++

	r.loader.LoadCatalog(ctx, source).OnComplete(func(catalog assets.Catalog, err error) {
		r.loading--

		if err != nil {
			// Forget the source so a later write to the file can retry.
			delete(r.sources, source)
			r.log.Warn().Err(&CatalogLoadError{Source: source, Err: err}).Msgf("skipping pack %s", name)
			return
		}

		pack := &Pack{
			Name:     name,
			Source:   source,
			Default:  isDefault,
			Catalog:  catalog,
			Checksum: catalog.Checksum(),
		}
		if isDefault {
			pack.Source = ""
		}

		if !r.add(pack) {
			return
		}

		if then != nil {
			then()
		}
	})

	return true
}

func (r *Registry) add(pack *Pack) bool {
	if pack.Name == DEFAULT_PACK && !pack.Default {
		r.log.Warn().Msgf("pack from %s cannot use the reserved name %s", pack.Source, DEFAULT_PACK)
		return false
	}

	if existing, ok := r.byName[pack.Name]; ok {
		r.log.Warn().Msgf("pack %s from %s is already provided by %s", pack.Name, pack.Source, existing.Source)
		return false
	}

	r.packs = append(r.packs, pack)
	r.reindex()
	r.log.Info().Msgf("added pack %s", pack.Name)

	infos := r.List()
	for _, listener := range r.packListeners {
		listener(infos)
	}
	r.updates.Publish(infos)

	return true
}

func (r *Registry) reindex() {
	byName := make(map[string]*Pack, len(r.packs))
	for _, pack := range r.packs {
		byName[pack.Name] = pack
	}
	r.byName = byName
}

// Activate makes name the active pack. Every live instance of the previous
// pack is released first, then the required keys are resolved against the
// new pack and the change listeners run in registration order.
func (r *Registry) Activate(name string) error {
	pack, ok := r.byName[name]
	if !ok {
		err := &UnknownPackError{Name: name}
		r.log.Warn().Err(err).Msg("cannot activate pack")
		return err
	}

	r.broker.ReleaseAll()
	r.active = pack
	r.table = r.resolve(pack)
	r.broker.SetTable(pack.Name, r.table)

	r.log.Info().Msgf("activated pack %s", pack.Name)

	for _, listener := range r.listeners {
		listener()
	}

	return nil
}

func (r *Registry) resolve(pack *Pack) broker.Table {
	table := make(broker.Table, len(r.required))
	for _, key := range r.required {
		table[key] = r.locate(key, pack)
	}
	return table
}

// locate picks the first location the catalog offers for key.
func (r *Registry) locate(key string, pack *Pack) opt.Option[assets.Location] {
	locations, ok := pack.Catalog.Locate(key)
	if !ok {
		r.log.Warn().Msgf("pack %s does not provide %s", pack.Name, key)
		return opt.None[assets.Location]()
	}

	return opt.Some(locations[0])
}

// RegisterListener adds fn to the listeners called after every activation.
func (r *Registry) RegisterListener(fn func()) {
	r.listeners = append(r.listeners, fn)
}

// RegisterPacksListener adds fn to the listeners called whenever a pack is
// added.
func (r *Registry) RegisterPacksListener(fn func([]PackInfo)) {
	r.packListeners = append(r.packListeners, fn)
}

// Subscribe delivers pack list changes to other goroutines.
func (r *Registry) Subscribe() *utils.Subscriber[[]PackInfo] {
	return r.updates.Subscribe()
}

func (r *Registry) List() []PackInfo {
	infos := make([]PackInfo, 0, len(r.packs))
	for _, pack := range r.packs {
		infos = append(infos, pack.Info())
	}
	return infos
}

func (r *Registry) Get(name string) (PackInfo, bool) {
	pack, ok := r.byName[name]
	if !ok {
		return PackInfo{}, false
	}
	return pack.Info(), true
}

func (r *Registry) Active() (PackInfo, bool) {
	if r.active == nil {
		return PackInfo{}, false
	}
	return r.active.Info(), true
}

// Loading is the number of catalogs requested but not yet loaded.
func (r *Registry) Loading() int {
	return r.loading
}

func (r *Registry) Required() []string {
	required := make([]string, len(r.required))
	copy(required, r.required)
	return required
}

// Resolved is a copy of the table installed by the last activation.
func (r *Registry) Resolved() broker.Table {
	table := make(broker.Table, len(r.table))
	for key, entry := range r.table {
		table[key] = entry
	}
	return table
}

// Unresolved lists, in required order, the keys the active pack does not
// provide.
func (r *Registry) Unresolved() []string {
	missing := make([]string, 0)
	for _, key := range r.required {
		if entry, ok := r.table[key]; ok && opt.IsNone(entry) {
			missing = append(missing, key)
		}
	}
	return missing
}
