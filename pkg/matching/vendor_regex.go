// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package matching

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"
)

// patternOptions gives JavaScript semantics with Unicode mode, which the
// rule data is written for.
const patternOptions = regexp2.ECMAScript | regexp2.Unicode

// patternTimeout bounds a single match so a pathological candidate string
// cannot stall classification.
const patternTimeout = 250 * time.Millisecond

// normalizePattern lower-cases a pattern source and applies NFKC so it can
// be matched against lower-cased candidate strings.
func normalizePattern(source string) string {
	return norm.NFKC.String(strings.ToLower(source))
}

func compilePattern(source string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(source, patternOptions)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = patternTimeout
	return re, nil
}

func compileDDGPattern(source string) (*regexp2.Regexp, error) {
	return compilePattern(normalizePattern(source))
}

type vendorEntry struct {
	re  *regexp2.Regexp
	err error
}

// patternCache compiles DDG match and not sources once per engine. A
// source that fails to compile is logged the first time and stays nil.
type patternCache struct {
	logger zerolog.Logger

	mu      sync.Mutex
	entries map[string]vendorEntry
}

func newPatternCache(logger zerolog.Logger) *patternCache {
	return &patternCache{logger: logger, entries: make(map[string]vendorEntry)}
}

func (c *patternCache) get(source string) *regexp2.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[source]; ok {
		return e.re
	}
	re, err := compileDDGPattern(source)
	if err != nil {
		c.logger.Warn().Err(err).Str("pattern", source).Msg("DDG pattern does not compile, treating it as non-matching")
	}
	c.entries[source] = vendorEntry{re: re, err: err}
	return re
}

// VendorRegexCache builds one combined regex per vendor regex name from the
// ordered rule sets, on first use, and keeps it for the cache's lifetime.
// Safe for concurrent use.
type VendorRegexCache struct {
	ruleSets []map[string]string
	logger   zerolog.Logger

	mu      sync.Mutex
	entries map[string]vendorEntry
}

// NewVendorRegexCache returns a cache over ruleSets, which are consulted in
// order.
func NewVendorRegexCache(ruleSets []map[string]string, logger zerolog.Logger) *VendorRegexCache {
	return &VendorRegexCache{
		ruleSets: ruleSets,
		logger:   logger.With().Str("component", "matching.vendor").Logger(),
		entries:  make(map[string]vendorEntry),
	}
}

// Source returns the combined pattern source for name and whether any rule
// set defines it.
func (c *VendorRegexCache) Source(name string) (string, bool) {
	var rules []string
	for _, set := range c.ruleSets {
		if frag := set[name]; frag != "" {
			rules = append(rules, "(?:"+normalizePattern(frag)+")")
		}
	}
	if len(rules) == 0 {
		return "", false
	}
	return strings.Join(rules, "|"), true
}

// Get returns the compiled regex for name. It returns nil, nil when no rule
// set defines name. A compile error is returned on every call for that name
// and logged only the first time.
func (c *VendorRegexCache) Get(name string) (*regexp2.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[name]; ok {
		return e.re, e.err
	}

	var e vendorEntry
	if source, ok := c.Source(name); ok {
		e.re, e.err = compilePattern(source)
		if e.err != nil {
			e.re = nil
			e.err = fmt.Errorf("%w: vendor regex %q: %v", ErrInvalidPattern, name, e.err)
			c.logger.Error().Err(e.err).Str("regex", name).Msg("Vendor regex does not compile")
		}
	}
	c.entries[name] = e
	return e.re, e.err
}

// Names returns every name defined by at least one rule set, sorted.
func (c *VendorRegexCache) Names() []string {
	seen := make(map[string]struct{})
	for _, set := range c.ruleSets {
		for name, frag := range set {
			if frag != "" {
				seen[name] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CompileAll compiles every defined name and joins the failures.
func (c *VendorRegexCache) CompileAll() error {
	var errs []error
	for _, name := range c.Names() {
		if _, err := c.Get(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
