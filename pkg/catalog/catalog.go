// Package catalog holds the static writing style and tone catalogs.
// Both are parsed once from embedded YAML and never mutated afterwards.
package catalog

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Style is a named document template.
type Style struct {
	Name         string `yaml:"name"`
	Instructions string `yaml:"instructions"`
}

// Tone is a named writing voice.
type Tone struct {
	Key         string `yaml:"key"`
	Label       string `yaml:"label"`
	ShortName   string `yaml:"short_name"`
	Description string `yaml:"description"`
}

// Catalog is the read-only style and tone lookup.
type Catalog struct {
	styles     []Style
	styleIndex map[string]int
	tones      []Tone
	toneIndex  map[string]int
}

var defaultCatalog = mustLoadEmbedded()

// Default returns the process-wide catalog built from the embedded data.
func Default() *Catalog {
	return defaultCatalog
}

func mustLoadEmbedded() *Catalog {
	styles, err := dataFS.ReadFile("data/styles.yaml")
	if err != nil {
		panic(err)
	}
	tones, err := dataFS.ReadFile("data/tones.yaml")
	if err != nil {
		panic(err)
	}
	c, err := Parse(styles, tones)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Parse builds a catalog from YAML documents.
// Names and keys must be unique and non-empty; list order is preserved.
func Parse(stylesYAML, tonesYAML []byte) (*Catalog, error) {
	var sf struct {
		Styles []Style `yaml:"styles"`
	}
	if err := yaml.Unmarshal(stylesYAML, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse styles: %w", err)
	}
	var tf struct {
		Tones []Tone `yaml:"tones"`
	}
	if err := yaml.Unmarshal(tonesYAML, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse tones: %w", err)
	}

	c := &Catalog{
		styleIndex: make(map[string]int, len(sf.Styles)),
		toneIndex:  make(map[string]int, len(tf.Tones)),
	}

	for _, s := range sf.Styles {
		if s.Name == "" {
			return nil, fmt.Errorf("style without a name")
		}
		if _, dup := c.styleIndex[s.Name]; dup {
			return nil, fmt.Errorf("duplicate style %q", s.Name)
		}
		s.Instructions = strings.TrimSpace(s.Instructions)
		c.styleIndex[s.Name] = len(c.styles)
		c.styles = append(c.styles, s)
	}

	for _, t := range tf.Tones {
		if t.Key == "" {
			return nil, fmt.Errorf("tone without a key")
		}
		if _, dup := c.toneIndex[t.Key]; dup {
			return nil, fmt.Errorf("duplicate tone %q", t.Key)
		}
		c.toneIndex[t.Key] = len(c.tones)
		c.tones = append(c.tones, t)
	}

	return c, nil
}

// StyleNames returns the style names in catalog order.
func (c *Catalog) StyleNames() []string {
	names := make([]string, len(c.styles))
	for i, s := range c.styles {
		names[i] = s.Name
	}
	return names
}

// Style looks up a style by name.
func (c *Catalog) Style(name string) (Style, bool) {
	i, ok := c.styleIndex[name]
	if !ok {
		return Style{}, false
	}
	return c.styles[i], true
}

// Tone looks up a tone by key. An unknown key yields the zero Tone.
func (c *Catalog) Tone(key string) (Tone, bool) {
	i, ok := c.toneIndex[key]
	if !ok {
		return Tone{}, false
	}
	return c.tones[i], true
}

// ToneLabels returns key -> display label for every tone.
func (c *Catalog) ToneLabels() map[string]string {
	labels := make(map[string]string, len(c.tones))
	for _, t := range c.tones {
		labels[t.Key] = t.Label
	}
	return labels
}
