// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package matching

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const phoneRules = `
version: 1.0.0
matchers:
  fields:
    phone: {type: phone, strategies: [{kind: ddg-matcher, matcherName: phone}]}
  lists:
    id: [phone]
strategies:
  ddgMatchers:
    matchers:
      phone: {match: phone}
`

const cityRules = `
version: 1.0.0
matchers:
  fields:
    city: {type: addressCity, strategies: [{kind: ddg-matcher, matcherName: city}]}
  lists:
    id: [city]
strategies:
  ddgMatchers:
    matchers:
      city: {match: phone}
`

func writeRules(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProviderBuiltinRules(t *testing.T) {
	p, err := NewProvider("")
	require.NoError(t, err)
	assert.Equal(t, "", p.Path())
	require.NotNil(t, p.Engine())
	assert.NoError(t, p.Reload())

	_, err = NewRulesWatcher(p, 0, zerolog.Nop())
	assert.Error(t, err)
}

func TestProviderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, phoneRules)

	p, err := NewProvider(path)
	require.NoError(t, err)

	el, form := setFormHTML(t, `<input name="phone" />`)
	first := p.Engine()
	assert.Equal(t, "identities.phone", first.InferInputType(el, form, InferOptions{}))

	var notified atomic.Int32
	p.OnReload(func(*Engine) { notified.Add(1) })

	writeRules(t, path, cityRules)
	require.NoError(t, p.Reload())
	assert.Equal(t, "identities.addressCity", p.Engine().InferInputType(el, form, InferOptions{}))
	assert.Equal(t, "identities.phone", first.InferInputType(el, form, InferOptions{}), "old engine keeps its rules")
	assert.Equal(t, int32(1), notified.Load())
}

func TestProviderReloadFailureKeepsEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, phoneRules)

	p, err := NewProvider(path)
	require.NoError(t, err)
	before := p.Engine()

	writeRules(t, path, "strategies:\n  vendorRegexes:\n    regexes: [{tel: '(broken'}]\n")
	err = p.Reload()
	require.ErrorIs(t, err, ErrInvalidPattern)
	assert.Same(t, before, p.Engine())

	_, err = NewProvider(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrRulesNotFound)
}

func TestNewRulesWatcherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, phoneRules)
	p, err := NewProvider(path)
	require.NoError(t, err)

	w, err := NewRulesWatcher(p, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	require.NoError(t, w.Close())
}

func TestRulesWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, phoneRules)
	p, err := NewProvider(path)
	require.NoError(t, err)

	w, err := NewRulesWatcher(p, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Start(ctx)
	}()

	// Wait for watcher to initialize
	time.Sleep(50 * time.Millisecond)

	el, form := setFormHTML(t, `<input name="phone" />`)
	writeRules(t, path, cityRules)

	assert.Eventually(t, func() bool {
		return p.Engine().InferInputType(el, form, InferOptions{}) == "identities.addressCity"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errChan:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Watcher did not stop in time")
	}
}

func TestRulesWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	writeRules(t, path, phoneRules)
	p, err := NewProvider(path)
	require.NoError(t, err)

	var reloads atomic.Int32
	p.OnReload(func(*Engine) { reloads.Add(1) })

	w, err := NewRulesWatcher(p, 10*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Start(ctx)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)

	writeRules(t, filepath.Join(dir, "notes.txt"), "hello")
	time.Sleep(150 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, int32(0), reloads.Load())
}
