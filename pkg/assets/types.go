package assets

import (
	"github.com/spf13/cast"
)

// Asset is one entry of a catalog index. Several entries may share a key;
// the order in the file is the order they are offered in.
type Asset struct {
	_          struct{}       `cbor:",toarray"`
	Key        string         `json:"key" yaml:"key" toml:"key"`
	Id         string         `json:"id" yaml:"id" toml:"id"`
	Path       string         `json:"path" yaml:"path" toml:"path"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`
}

// Index is the decoded contents of a catalog file.
type Index struct {
	Description string  `json:"description" yaml:"description" toml:"description"`
	Assets      []Asset `json:"assets" yaml:"assets" toml:"assets"`
}

// Location holds enough information for a provider to instantiate one
// asset of one pack.
type Location struct {
	Key        string
	Id         string
	Path       string
	Properties map[string]any
}

func (l Location) Float(name string) (float64, bool) {
	raw, ok := l.Properties[name]
	if !ok {
		return 0, false
	}

	value, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, false
	}

	return value, true
}

func (l Location) Text(name string) (string, bool) {
	raw, ok := l.Properties[name]
	if !ok {
		return "", false
	}

	value, err := cast.ToStringE(raw)
	if err != nil || value == "" {
		return "", false
	}

	return value, true
}
