// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package matching infers the semantic type of HTML form fields from a
// rule configuration: CSS selectors, DDG heuristic matchers and
// multilingual vendor regexes, evaluated in a fixed order.
package matching

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"

	"github.com/vulntor/formsense/pkg/dom"
	"github.com/vulntor/formsense/pkg/extract"
	"github.com/vulntor/formsense/pkg/fieldtype"
)

var (
	ccAttrPattern = mustCompileInsensitive(`(credit|payment).?card`)
	ccTextPattern = mustCompileInsensitive(`(credit)?card(.?number)?|ccv|security.?code|cvv|cvc|csc`)
)

func mustCompileInsensitive(source string) *regexp2.Regexp {
	re := regexp2.MustCompile(source, regexp2.ECMAScript|regexp2.IgnoreCase)
	re.MatchTimeout = patternTimeout
	return re
}

// InferOptions carries caller knowledge about the form.
type InferOptions struct {
	// IsLogin reports that the form is a login form; email fields are then
	// typed as usernames.
	IsLogin bool
}

// Engine classifies form fields. It is safe for concurrent use as long as
// the DOM views passed in are not mutated concurrently.
type Engine struct {
	store      *Store
	patterns   *patternCache
	logger     zerolog.Logger
	textCutoff int
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	logger     zerolog.Logger
	textCutoff int
}

// WithLogger sets the logger used for lookup misses and strategy traces.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithTextCutoff bounds the related container text, in runes. Zero or
// less keeps extract.TextLengthCutoff.
func WithTextCutoff(n int) Option {
	return func(o *engineOptions) {
		o.textCutoff = n
	}
}

// NewEngine builds an engine over cfg. A nil cfg behaves like EmptyConfig.
// The configuration is not validated; see Config.Validate and Check.
func NewEngine(cfg *Config, opts ...Option) *Engine {
	o := engineOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With().Str("component", "matching.engine").Logger()
	return &Engine{
		store:      NewStore(cfg, o.logger),
		patterns:   newPatternCache(logger),
		logger:     logger,
		textCutoff: o.textCutoff,
	}
}

// Store returns the engine's configuration store.
func (e *Engine) Store() *Store {
	return e.store
}

// Check validates the configuration, DDG patterns included, and compiles
// every vendor regex.
func (e *Engine) Check() error {
	return errors.Join(e.store.Config().Validate(), e.store.VendorRegexes().CompileAll())
}

// InferInputType returns the type label for el: a preset marker when el
// carries one, otherwise "<mainType>.<subtype>" or "unknown".
func (e *Engine) InferInputType(el dom.Element, form dom.Node, opts InferOptions) string {
	return e.infer(el, form, opts, nil)
}

// SetInputType infers the type of el and records it in the marker
// attribute, so later calls return it directly.
func (e *Engine) SetInputType(el dom.Element, form dom.Node, opts InferOptions) string {
	label := e.InferInputType(el, form, opts)
	el.SetAttr(fieldtype.AttrInputType, label)
	return label
}

func (e *Engine) infer(el dom.Element, form dom.Node, opts InferOptions, tr *Trace) string {
	if preset := dom.AttrValue(el, fieldtype.AttrInputType); preset != "" {
		if tr != nil {
			tr.Preset = true
		}
		return preset
	}

	ccForm := e.IsCCForm(form)
	if tr != nil {
		tr.CCForm = ccForm
	}
	if ccForm {
		if sub, ok := e.subtype(fieldtype.ListCC, el, form, tr); ok {
			return fieldtype.Label(fieldtype.CreditCard, sub)
		}
	}

	if _, ok := e.subtype(fieldtype.ListPassword, el, form, tr); ok {
		return fieldtype.LabelPassword
	}

	if _, ok := e.subtype(fieldtype.ListEmail, el, form, tr); ok {
		if opts.IsLogin {
			return fieldtype.LabelUsername
		}
		return fieldtype.LabelEmailAddress
	}

	if _, ok := e.subtype(fieldtype.ListUsername, el, form, tr); ok {
		return fieldtype.LabelUsername
	}

	if sub, ok := e.subtype(fieldtype.ListID, el, form, tr); ok {
		return fieldtype.Label(fieldtype.Identities, sub)
	}

	return fieldtype.LabelUnknown
}

// IsPassword reports whether the password list matches el.
func (e *Engine) IsPassword(el dom.Element, form dom.Node) bool {
	_, ok := e.subtype(fieldtype.ListPassword, el, form, nil)
	return ok
}

// IsEmail reports whether the email list matches el.
func (e *Engine) IsEmail(el dom.Element, form dom.Node) bool {
	_, ok := e.subtype(fieldtype.ListEmail, el, form, nil)
	return ok
}

// IsUserName reports whether the username list matches el.
func (e *Engine) IsUserName(el dom.Element, form dom.Node) bool {
	_, ok := e.subtype(fieldtype.ListUsername, el, form, nil)
	return ok
}

func (e *Engine) subtype(list string, el dom.Element, form dom.Node, tr *Trace) (fieldtype.FieldType, bool) {
	matchers, ok := e.store.MatcherList(list)
	if !ok {
		panic(fmt.Sprintf("matching: built-in list %q missing", list))
	}
	return e.subtypeFromMatchers(list, matchers, el, form, tr)
}

// IsCCForm reports whether form looks like a credit card form: it holds an
// element matching a cc selector, one of its attributes mentions a credit
// or payment card, or its text mentions card vocabulary more than once.
func (e *Engine) IsCCForm(form dom.Node) bool {
	if sel := e.store.JoinSelectors(fieldtype.ListCC); sel != "" && form.QuerySelector(sel) != nil {
		return true
	}

	for _, a := range form.Attrs() {
		if e.matchString(ccAttrPattern, a.Name+"="+a.Value) {
			return true
		}
	}

	return e.countMatches(ccTextPattern, form.TextContent(), 2) > 1
}

// SubtypeFromMatchers returns the type of the first matcher with a
// matching strategy. A veto ends the current matcher only.
func (e *Engine) SubtypeFromMatchers(matchers []Matcher, el dom.Element, form dom.Node) (fieldtype.FieldType, bool) {
	return e.subtypeFromMatchers("", matchers, el, form, nil)
}

func (e *Engine) subtypeFromMatchers(list string, matchers []Matcher, el dom.Element, form dom.Node, tr *Trace) (fieldtype.FieldType, bool) {
	for _, m := range matchers {
	strategies:
		for _, st := range m.Strategies {
			outcome := e.ExecuteStrategy(st, el, form)
			if tr != nil {
				tr.Steps = append(tr.Steps, TraceStep{
					List:    list,
					Field:   m.Type,
					Kind:    st.Kind(),
					Name:    st.Name(),
					Outcome: outcome,
				})
			}
			if e.logger.GetLevel() <= zerolog.DebugLevel {
				e.logger.Debug().
					Str("list", list).
					Str("field", string(m.Type)).
					Str("kind", st.Kind()).
					Str("name", st.Name()).
					Stringer("outcome", outcome).
					Msg("Strategy evaluated")
			}
			switch outcome {
			case Matched:
				return m.Type, true
			case VetoRest:
				break strategies
			}
		}
	}
	return "", false
}

// ExecuteStrategy runs one strategy against el.
func (e *Engine) ExecuteStrategy(st Strategy, el dom.Element, form dom.Node) Outcome {
	switch s := st.(type) {
	case CSSSelector:
		return e.ExecCSSSelector(e.store.CSSSelector(s.SelectorName), el)
	case DDGMatcherRef:
		m, ok := e.store.DDGMatcher(s.MatcherName)
		if !ok {
			return NotMatched
		}
		return e.ExecDDGMatcher(m, el, form)
	case VendorRegexRef:
		re := e.store.VendorRegex(s.RegexName)
		if re == nil {
			return NotMatched
		}
		return e.ExecVendorRegex(re, el, form)
	default:
		panic(fmt.Sprintf("matching: unexpected strategy %T", st))
	}
}

// ExecCSSSelector matches el against selector. An empty or invalid
// selector does not match.
func (e *Engine) ExecCSSSelector(selector string, el dom.Element) Outcome {
	if strings.TrimSpace(selector) == "" {
		return NotMatched
	}
	if el.Matches(selector) {
		return Matched
	}
	return NotMatched
}

// ExecDDGMatcher scores each candidate string of el against m. Patterns
// are compiled on first use; one that does not compile never matches.
func (e *Engine) ExecDDGMatcher(m DDGMatcher, el dom.Element, form dom.Node) Outcome {
	if m.Match == "" {
		return NotMatched
	}
	match := e.patterns.get(m.Match)
	if match == nil {
		return NotMatched
	}
	var not *regexp2.Regexp
	if m.Not != "" {
		if not = e.patterns.get(m.Not); not == nil {
			return NotMatched
		}
	}
	maxDigits := 0
	if m.MaxDigits != nil {
		maxDigits = *m.MaxDigits
	}

	required := 1
	if not != nil {
		required++
	}
	if maxDigits > 0 {
		required++
	}

	for s := range e.ElementStrings(el, form) {
		if s == "" {
			continue
		}
		s = strings.ToLower(s)
		if !e.matchString(match, s) {
			continue
		}
		score := 1
		if not != nil {
			if e.matchString(not, s) {
				return VetoRest
			}
			score++
		}
		if maxDigits > 0 {
			if countDigits(s) > maxDigits {
				return VetoRest
			}
			score++
		}
		if score == required {
			return Matched
		}
	}
	return NotMatched
}

// ExecVendorRegex tests the lower-cased candidate strings of el against re.
func (e *Engine) ExecVendorRegex(re *regexp2.Regexp, el dom.Element, form dom.Node) Outcome {
	for s := range e.ElementStrings(el, form) {
		s = strings.ToLower(s)
		if s == "" {
			continue
		}
		if e.matchString(re, s) {
			return Matched
		}
	}
	return NotMatched
}

// ElementStrings yields the candidate strings of el in priority order.
func (e *Engine) ElementStrings(el dom.Element, form dom.Node) iter.Seq[string] {
	src := extract.Source{
		InputsSelector: e.store.CSSSelector(SelectorFormInputs),
		TextCutoff:     e.textCutoff,
	}
	return src.Candidates(el, form)
}

func (e *Engine) matchString(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	if err != nil {
		e.logger.Debug().Err(err).Str("pattern", re.String()).Msg("Pattern match aborted")
		return false
	}
	return ok
}

// countMatches counts non-overlapping matches of re in s, stopping at limit.
func (e *Engine) countMatches(re *regexp2.Regexp, s string, limit int) int {
	n := 0
	m, err := re.FindStringMatch(s)
	for err == nil && m != nil && n < limit {
		n++
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		e.logger.Debug().Err(err).Msg("Pattern match aborted")
	}
	return n
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
