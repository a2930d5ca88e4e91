package matching

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Provider hands out the current Engine and replaces it when the rules
// file is reloaded. Callers holding an older Engine keep using it safely.
type Provider struct {
	path   string
	opts   []Option
	logger zerolog.Logger

	current atomic.Pointer[Engine]

	mu        sync.Mutex
	listeners []func(*Engine)
}

// NewProvider loads the rules at path, or the built-in rules when path is
// empty, and fails when they do not validate.
func NewProvider(path string, opts ...Option) (*Provider, error) {
	o := engineOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	p := &Provider{
		path:   path,
		opts:   opts,
		logger: o.logger.With().Str("component", "matching.provider").Logger(),
	}
	eng, err := p.load()
	if err != nil {
		return nil, err
	}
	p.current.Store(eng)
	return p, nil
}

// Path returns the rules file path, empty for the built-in rules.
func (p *Provider) Path() string {
	return p.path
}

// Engine returns the current engine.
func (p *Provider) Engine() *Engine {
	return p.current.Load()
}

// OnReload registers fn to run after every successful reload.
func (p *Provider) OnReload(fn func(*Engine)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Reload re-reads the rules file. On failure the current engine stays in
// place and the error is returned.
func (p *Provider) Reload() error {
	if p.path == "" {
		return nil
	}
	eng, err := p.load()
	if err != nil {
		return err
	}
	p.current.Store(eng)
	p.logger.Info().Str("file", p.path).Msg("Matching rules reloaded")

	p.mu.Lock()
	listeners := append([]func(*Engine){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(eng)
	}
	return nil
}

func (p *Provider) load() (*Engine, error) {
	var cfg *Config
	if p.path == "" {
		cfg = Canonical()
	} else {
		var err error
		if cfg, err = LoadFile(p.path); err != nil {
			return nil, err
		}
	}
	eng := NewEngine(cfg, p.opts...)
	if err := eng.Store().VendorRegexes().CompileAll(); err != nil {
		return nil, err
	}
	return eng, nil
}
