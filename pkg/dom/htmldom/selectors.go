// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package htmldom

import (
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog/log"
)

var defaultSelectors = NewSelectorCache()

// SelectorCache memoizes compiled CSS selectors, including the failures, so
// every distinct selector string is parsed once. Safe for concurrent use.
type SelectorCache struct {
	entries sync.Map // string -> selectorEntry
}

type selectorEntry struct {
	sel cascadia.Selector
	err error
}

// NewSelectorCache returns an empty cache.
func NewSelectorCache() *SelectorCache {
	return &SelectorCache{}
}

// Get returns the compiled selector. ok is false when the selector is
// blank or does not parse.
func (c *SelectorCache) Get(selector string) (cascadia.Selector, bool) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, false
	}
	if v, found := c.entries.Load(selector); found {
		e := v.(selectorEntry)
		return e.sel, e.err == nil
	}

	sel, err := cascadia.Compile(selector)
	if err != nil {
		log.Warn().
			Err(err).
			Str("component", "htmldom").
			Str("selector", selector).
			Msg("Invalid CSS selector, treating as no match")
	}
	v, _ := c.entries.LoadOrStore(selector, selectorEntry{sel: sel, err: err})
	e := v.(selectorEntry)
	return e.sel, e.err == nil
}

// Valid reports whether selector compiles.
func Valid(selector string) error {
	_, err := cascadia.Compile(strings.TrimSpace(selector))
	return err
}
