package corpus

import (
	"errors"
	"sort"
	"sync"
)

// Library opens corpora from a registry on first use and keeps the handles
// until Close. Each Library owns its handles; nothing is shared between
// libraries.
type Library struct {
	cfg *Config

	mu      sync.Mutex
	handles map[string]*Handle
}

// NewLibrary creates a library over cfg.
func NewLibrary(cfg *Config) *Library {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Library{cfg: cfg, handles: make(map[string]*Handle)}
}

// Names lists the registered corpora, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.cfg.Corpora))
	for _, d := range l.cfg.Corpora {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// Handle returns the open handle for name, opening it if needed.
func (l *Library) Handle(name string) (*Handle, error) {
	def, err := l.cfg.Lookup(name)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.handles[name]; ok {
		return h, nil
	}
	h, err := Open(def)
	if err != nil {
		return nil, err
	}
	l.handles[name] = h
	return h, nil
}

// Words resolves a reference string against the named corpus.
func (l *Library) Words(name, refs string) ([]string, Definition, error) {
	parsed, err := ParseRefs(refs)
	if err != nil {
		return nil, Definition{}, err
	}
	h, err := l.Handle(name)
	if err != nil {
		return nil, Definition{}, err
	}
	words, err := h.Words(parsed...)
	if err != nil {
		return nil, Definition{}, err
	}
	return words, h.Definition(), nil
}

// Close closes every handle the library opened.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	for name, h := range l.handles {
		errs = append(errs, h.Close())
		delete(l.handles, name)
	}
	return errors.Join(errs...)
}
