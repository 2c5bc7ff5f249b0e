package templating

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed predefined.yaml
var predefinedYAML []byte

// Catalogue holds the predefined templates shipped with the server.
type Catalogue struct {
	byKey map[string]*Predefined
	order []*Predefined
}

type catalogueFile struct {
	Templates []*Predefined `yaml:"templates"`
}

// LoadCatalogue parses the embedded catalogue.
func LoadCatalogue() (*Catalogue, error) {
	return ParseCatalogue(predefinedYAML)
}

// ParseCatalogue builds a catalogue from YAML. Keys must be unique and
// non-empty; variables are derived from the HTML.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse template catalogue: %w", err)
	}
	c := &Catalogue{byKey: make(map[string]*Predefined, len(f.Templates))}
	for _, p := range f.Templates {
		if p.Key == "" {
			return nil, fmt.Errorf("template catalogue: entry %q has no key", p.Title)
		}
		if _, dup := c.byKey[p.Key]; dup {
			return nil, fmt.Errorf("template catalogue: duplicate key %q", p.Key)
		}
		p.Vars = ExtractVariables(p.Body)
		c.byKey[p.Key] = p
		c.order = append(c.order, p)
	}
	sort.SliceStable(c.order, func(i, j int) bool { return c.order[i].Group < c.order[j].Group })
	return c, nil
}

func (c *Catalogue) Get(key string) (*Predefined, bool) {
	p, ok := c.byKey[key]
	return p, ok
}

func (c *Catalogue) List() []*Predefined {
	out := make([]*Predefined, len(c.order))
	copy(out, c.order)
	return out
}
