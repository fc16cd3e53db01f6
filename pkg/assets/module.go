package assets

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/cfoust/modswap/pkg/loop"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BUILTIN is the target that loads the catalog compiled into the binary.
const BUILTIN = "builtin:default.json"

//go:embed default.json
var DEFAULT []byte

// Loader reads catalogs from disk, from the embedded default, or over HTTP
// through a Store. Loads run on their own goroutine and settle on the loop.
type Loader struct {
	loop  *loop.Loop
	cache Store
	log   zerolog.Logger
}

func NewLoader(l *loop.Loop, cache Store) *Loader {
	if cache == nil {
		cache = NewMemoryStore()
	}

	return &Loader{
		loop:  l,
		cache: cache,
		log:   log.With().Str("service", "catalogs").Logger(),
	}
}

func (l *Loader) LoadCatalog(ctx context.Context, target string) *loop.Future[Catalog] {
	future := loop.NewFuture[Catalog](l.loop)

	go func() {
		catalog, err := l.Load(ctx, target)
		if err != nil {
			future.Resolve(nil, err)
			return
		}
		future.Resolve(catalog, nil)
	}()

	return future
}

// Load reads and decodes a catalog synchronously.
func (l *Loader) Load(ctx context.Context, target string) (*IndexCatalog, error) {
	data, name, err := l.read(ctx, target)
	if err != nil {
		return nil, err
	}

	index, err := Decode(name, data)
	if err != nil {
		return nil, fmt.Errorf("could not decode catalog %s: %w", target, err)
	}

	l.log.Debug().Msgf("loaded catalog %s (%d assets)", target, len(index.Assets))

	return NewIndexCatalog(index, xxhash.Sum64(data)), nil
}

func (l *Loader) read(ctx context.Context, target string) ([]byte, string, error) {
	if target == BUILTIN {
		return DEFAULT, target, nil
	}

	if !IsRemote(target) {
		data, err := os.ReadFile(target)
		return data, target, err
	}

	data, err := l.fetch(ctx, target)
	return data, GetURLBase(target), err
}

func CacheKey(url string) string {
	return strconv.FormatUint(xxhash.Sum64String(url), 16)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	key := CacheKey(url)

	cacheData, err := l.cache.Get(ctx, key)
	if err != nil && err != Missing {
		return nil, err
	}
	if err == nil {
		return cacheData, nil
	}

	data, err := DownloadBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	err = l.cache.Set(ctx, key, data)
	if err != nil {
		l.log.Warn().Err(err).Msgf("failed to cache catalog %s", url)
	}

	return data, nil
}
