package assets

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Catalog resolves logical keys to the locations one pack provides.
type Catalog interface {
	// Locate returns every location registered under key, in catalog
	// order. ok is false when there are none.
	Locate(key string) (locations []Location, ok bool)
	Checksum() uint64
}

type IndexCatalog struct {
	index    *Index
	checksum uint64
	keys     map[string][]Location
}

func NewIndexCatalog(index *Index, checksum uint64) *IndexCatalog {
	keys := make(map[string][]Location)
	for _, asset := range index.Assets {
		keys[asset.Key] = append(keys[asset.Key], Location{
			Key:        asset.Key,
			Id:         asset.Id,
			Path:       asset.Path,
			Properties: asset.Properties,
		})
	}

	return &IndexCatalog{
		index:    index,
		checksum: checksum,
		keys:     keys,
	}
}

func (c *IndexCatalog) Locate(key string) ([]Location, bool) {
	locations, ok := c.keys[key]
	if !ok || len(locations) == 0 {
		return nil, false
	}

	out := make([]Location, len(locations))
	copy(out, locations)
	return out, true
}

func (c *IndexCatalog) Checksum() uint64 {
	return c.checksum
}

func (c *IndexCatalog) Index() *Index {
	return c.index
}

var _ Catalog = (*IndexCatalog)(nil)

// Decode parses catalog data, picking the format from the extension of
// name.
func Decode(name string, data []byte) (*Index, error) {
	var index Index

	extension := strings.ToLower(filepath.Ext(name))
	switch extension {
	case ".json":
		if err := json.Unmarshal(data, &index); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &index); err != nil {
			return nil, err
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &index); err != nil {
			return nil, err
		}
	case ".cbor":
		if err := cbor.Unmarshal(data, &index); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", extension)
	}

	for i, asset := range index.Assets {
		if asset.Key == "" {
			return nil, fmt.Errorf("asset %d has no key", i)
		}
	}

	return &index, nil
}
