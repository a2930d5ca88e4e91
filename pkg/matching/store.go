// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package matching

import (
	"maps"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"

	"github.com/vulntor/formsense/pkg/dom"
	"github.com/vulntor/formsense/pkg/fieldtype"
)

// SelectorFormInputs names the selector used to find matchable inputs.
const SelectorFormInputs = "FORM_INPUTS_SELECTOR"

// Store answers name lookups against a Config. The matcher lists are
// expanded once at construction; the Config is never modified.
type Store struct {
	cfg    *Config
	lists  map[string][]Matcher
	vendor *VendorRegexCache
	logger zerolog.Logger
}

// NewStore expands cfg into matcher lists. A nil cfg behaves like
// EmptyConfig. List entries naming undefined fields and strategies of an
// unknown kind are dropped with a warning.
func NewStore(cfg *Config, logger zerolog.Logger) *Store {
	if cfg == nil {
		cfg = EmptyConfig()
	}
	s := &Store{
		cfg:    cfg,
		lists:  make(map[string][]Matcher),
		vendor: NewVendorRegexCache(cfg.Strategies.VendorRegexes.Regexes, logger),
		logger: logger.With().Str("component", "matching.store").Logger(),
	}

	for _, name := range fieldtype.Lists() {
		s.lists[name] = []Matcher{}
	}
	for _, listName := range slices.Sorted(maps.Keys(cfg.Matchers.Lists)) {
		matchers := s.lists[listName]
		if matchers == nil {
			matchers = []Matcher{}
		}
		for _, fieldName := range cfg.Matchers.Lists[listName] {
			def, ok := cfg.Matchers.Fields[fieldName]
			if !ok {
				s.logger.Warn().
					Str("list", listName).
					Str("field", fieldName).
					Msg("List references an undefined field, skipping")
				continue
			}
			matchers = append(matchers, s.toMatcher(fieldName, def))
		}
		s.lists[listName] = matchers
	}
	return s
}

func (s *Store) toMatcher(fieldName string, def MatcherDef) Matcher {
	m := Matcher{
		Type:       fieldtype.FieldType(def.Type),
		Strategies: make([]Strategy, 0, len(def.Strategies)),
	}
	for _, spec := range def.Strategies {
		st, err := spec.ToStrategy()
		if err != nil {
			s.logger.Warn().Err(err).Str("field", fieldName).Msg("Skipping strategy")
			continue
		}
		m.Strategies = append(m.Strategies, st)
	}
	return m
}

// Config returns the configuration the store was built from. Callers must
// not modify it.
func (s *Store) Config() *Config {
	return s.cfg
}

// VendorRegexes returns the store's vendor regex cache.
func (s *Store) VendorRegexes() *VendorRegexCache {
	return s.vendor
}

// CSSSelector returns the named selector. An unknown name yields "" except
// for FORM_INPUTS_SELECTOR, which falls back to dom.FormInputsSelector.
func (s *Store) CSSSelector(name string) string {
	if sel := s.cfg.Strategies.CSSSelectors.Selectors[name]; sel != "" {
		return sel
	}
	s.logger.Warn().Str("selector", name).Msg("CSS selector not found, using a default value")
	if name == SelectorFormInputs {
		return dom.FormInputsSelector
	}
	return ""
}

// FormInputsSelector is CSSSelector(SelectorFormInputs) without the
// warning, for callers that enumerate inputs once per document.
func (s *Store) FormInputsSelector() string {
	if sel := s.cfg.Strategies.CSSSelectors.Selectors[SelectorFormInputs]; sel != "" {
		return sel
	}
	return dom.FormInputsSelector
}

// DDGMatcher returns the named DDG matcher.
func (s *Store) DDGMatcher(name string) (DDGMatcher, bool) {
	m, ok := s.cfg.Strategies.DDGMatchers.Matchers[name]
	if !ok {
		s.logger.Warn().Str("matcher", name).Msg("DDG matcher not found")
		return DDGMatcher{}, false
	}
	return m, true
}

// VendorRegex returns the compiled vendor regex, or nil when no rule set
// defines name or its pattern does not compile.
func (s *Store) VendorRegex(name string) *regexp2.Regexp {
	re, err := s.vendor.Get(name)
	if err != nil {
		return nil
	}
	if re == nil {
		s.logger.Warn().Str("regex", name).Msg("Vendor regex not found")
	}
	return re
}

// MatcherList returns the named list. The cc, id, password, username and
// email lists always exist.
func (s *Store) MatcherList(name string) ([]Matcher, bool) {
	list, ok := s.lists[name]
	if !ok {
		s.logger.Warn().Str("list", name).Msg("Matcher list not found")
	}
	return list, ok
}

// ListNames returns every list name, sorted.
func (s *Store) ListNames() []string {
	return slices.Sorted(maps.Keys(s.lists))
}

// JoinSelectors joins the selectors of every css-selector strategy in the
// named list into one selector group. Empty selectors are skipped.
func (s *Store) JoinSelectors(listName string) string {
	list, ok := s.MatcherList(listName)
	if !ok {
		return ""
	}
	var selectors []string
	for _, m := range list {
		for _, st := range m.Strategies {
			css, ok := st.(CSSSelector)
			if !ok {
				continue
			}
			if sel := strings.TrimSpace(s.CSSSelector(css.SelectorName)); sel != "" {
				selectors = append(selectors, sel)
			}
		}
	}
	return strings.Join(selectors, ", ")
}
