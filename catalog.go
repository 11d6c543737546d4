package shaper

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
)

//go:embed presets/shapes.json
var defaultPresets []byte

type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

// Preset is a named shape set riggers pick from.
type Preset struct {
	ID     AssetId
	Name   string
	Shapes ShapeSet
}

// Catalog holds the preset shapes loaded once at startup and handed to the engine.
type Catalog struct {
	presets map[string]Preset
	source  string
}

// NewCatalog builds a catalog from a shape document keyed by preset name.
// Every preset is validated.
func NewCatalog(doc ShapeDocument, source string) (*Catalog, error) {
	c := &Catalog{presets: make(map[string]Preset, len(doc)), source: source}
	for _, e := range doc {
		if err := e.Shapes.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", e.Node, err)
		}
		c.presets[e.Node] = Preset{ID: makeAssetId(), Name: e.Node, Shapes: e.Shapes.Clone()}
	}
	return c, nil
}

// DefaultCatalog loads the presets shipped with the package.
func DefaultCatalog() (*Catalog, error) {
	doc, err := DecodeDocument(bytes.NewReader(defaultPresets), FormatCtrl)
	if err != nil {
		return nil, err
	}
	return NewCatalog(doc, "builtin")
}

// LoadCatalog reads presets from path, or returns the default catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	doc, err := DecodeDocument(f, FormatCtrl)
	if err != nil {
		if ffe, ok := err.(*FileFormatError); ok {
			ffe.Path = path
		}
		return nil, err
	}
	return NewCatalog(doc, path)
}

// Source describes where the catalog was loaded from.
func (c *Catalog) Source() string { return c.source }

func (c *Catalog) Len() int { return len(c.presets) }

// Names returns preset names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.presets))
	for n := range c.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a deep copy of the named preset.
func (c *Catalog) Lookup(name string) (Preset, bool) {
	p, ok := c.presets[name]
	if !ok {
		return Preset{}, false
	}
	p.Shapes = p.Shapes.Clone()
	return p, true
}
