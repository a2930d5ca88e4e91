// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package matching

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the delay between the last write to the rules file
// and the reload.
const DefaultDebounce = 100 * time.Millisecond

// RulesWatcher reloads a Provider when its rules file changes. Rapid
// successive writes are coalesced into one reload.
type RulesWatcher struct {
	provider *Provider
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   zerolog.Logger

	// mu protects debounceTimer
	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewRulesWatcher creates a watcher for the provider's rules file. A
// non-positive debounce selects DefaultDebounce.
func NewRulesWatcher(provider *Provider, debounce time.Duration, logger zerolog.Logger) (*RulesWatcher, error) {
	if provider.Path() == "" {
		return nil, errors.New("built-in rules cannot be watched")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &RulesWatcher{
		provider: provider,
		watcher:  watcher,
		debounce: debounce,
		logger:   logger.With().Str("component", "matching.watcher").Logger(),
	}, nil
}

// Start watches until ctx is canceled. Run it in its own goroutine.
func (w *RulesWatcher) Start(ctx context.Context) error {
	// fsnotify watches directories; editors often replace the file.
	dir := filepath.Dir(w.provider.Path())
	file := filepath.Base(w.provider.Path())

	if err := w.watcher.Add(dir); err != nil {
		w.logger.Error().
			Err(err).
			Str("dir", dir).
			Msg("Failed to watch rules directory")
		return err
	}

	w.logger.Info().
		Str("file", w.provider.Path()).
		Dur("debounce", w.debounce).
		Msg("Started watching rules file")

	defer func() {
		w.stopTimer()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
		w.logger.Info().Msg("Stopped watching rules file")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				w.logger.Debug().
					Str("op", event.Op.String()).
					Str("file", event.Name).
					Msg("Detected rules file change")
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().
				Err(err).
				Msg("File watcher error")
		}
	}
}

func (w *RulesWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, func() {
		if err := w.provider.Reload(); err != nil {
			w.logger.Error().
				Err(err).
				Msg("Failed to reload rules, keeping previous rules")
		}
	})
}

func (w *RulesWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}

// Close stops the watcher and releases resources.
func (w *RulesWatcher) Close() error {
	return w.watcher.Close()
}
