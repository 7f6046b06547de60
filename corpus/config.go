package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bodul/motsmeles/wordsearch"
)

var (
	ErrUnknownCorpus = errors.New("unknown corpus")
	ErrUnknownBook   = errors.New("unknown book")
	ErrBadReference  = errors.New("bad reference")
	ErrClosed        = errors.New("corpus handle closed")
)

// Definition describes where a corpus lives and which feature holds the
// word surface forms.
type Definition struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Language    string   `yaml:"language"`
	Regime      string   `yaml:"regime"`
	File        string   `yaml:"file"`
	Feature     string   `yaml:"feature"`
	Locations   []string `yaml:"locations"`
}

// ScriptRegime parses the definition's regime.
func (d Definition) ScriptRegime() (wordsearch.Regime, error) {
	return wordsearch.ParseRegime(d.Regime)
}

// Config is the corpus registry file.
type Config struct {
	Corpora []Definition `yaml:"corpora"`
}

// LoadConfig reads a registry file. Relative locations are resolved against
// the directory holding the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse corpus config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool)
	for i := range cfg.Corpora {
		d := &cfg.Corpora[i]
		if d.Name == "" || d.File == "" || d.Feature == "" {
			return nil, fmt.Errorf("corpus config %s: entry %d needs name, file and feature", path, i)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("corpus config %s: duplicate corpus %q", path, d.Name)
		}
		seen[d.Name] = true
		if _, err := d.ScriptRegime(); err != nil {
			return nil, fmt.Errorf("corpus %s: %w", d.Name, err)
		}
		if len(d.Locations) == 0 {
			d.Locations = []string{"."}
		}
		for j, loc := range d.Locations {
			if !filepath.IsAbs(loc) {
				d.Locations[j] = filepath.Join(base, loc)
			}
		}
	}
	return &cfg, nil
}

// Lookup returns the definition with the given name.
func (c *Config) Lookup(name string) (Definition, error) {
	for _, d := range c.Corpora {
		if d.Name == name {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %s", ErrUnknownCorpus, name)
}
