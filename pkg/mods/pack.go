package mods

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cfoust/modswap/pkg/assets"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DEFAULT_PACK = "Default"

// Pack is one content pack. It only enters the registry once its catalog
// has loaded and is never modified afterwards.
type Pack struct {
	Name     string
	Source   string
	Default  bool
	Catalog  assets.Catalog
	Checksum uint64
}

// PackInfo is the read-only view of a pack handed to listeners.
type PackInfo struct {
	Name     string
	Source   string
	Default  bool
	Checksum uint64
}

func (p *Pack) Info() PackInfo {
	return PackInfo{
		Name:     p.Name,
		Source:   p.Source,
		Default:  p.Default,
		Checksum: p.Checksum,
	}
}

// PackName turns a catalog file name into a display name:
// "evil_mod.json" becomes "Evil Mod".
func PackName(file string) string {
	name := filepath.Base(file)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return cases.Title(language.Und).String(strings.ToLower(name))
}

type UnknownPackError struct {
	Name string
}

func (e *UnknownPackError) Error() string {
	return fmt.Sprintf("no pack named %q", e.Name)
}

type CatalogLoadError struct {
	Source string
	Err    error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("could not load catalog %s: %v", e.Source, e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}
