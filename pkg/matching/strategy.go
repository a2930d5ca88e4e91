// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package matching

import (
	"fmt"

	"github.com/vulntor/formsense/pkg/fieldtype"
)

// Strategy kinds as they appear in rule files.
const (
	KindCSSSelector = "css-selector"
	KindDDGMatcher  = "ddg-matcher"
	KindVendorRegex = "vendor-regex"
)

// Strategy is one way of recognizing a field. The set of implementations is
// closed: CSSSelector, DDGMatcherRef and VendorRegexRef.
type Strategy interface {
	// Kind returns the rule-file name of the strategy kind.
	Kind() string
	// Name returns the selector, matcher or regex name the strategy refers to.
	Name() string
	strategy()
}

// CSSSelector matches when the element matches the named selector.
type CSSSelector struct {
	SelectorName string
}

// DDGMatcherRef scores candidate strings against the named DDG matcher.
type DDGMatcherRef struct {
	MatcherName string
}

// VendorRegexRef tests candidate strings against the named vendor regex.
type VendorRegexRef struct {
	RegexName string
}

func (CSSSelector) Kind() string    { return KindCSSSelector }
func (DDGMatcherRef) Kind() string  { return KindDDGMatcher }
func (VendorRegexRef) Kind() string { return KindVendorRegex }

func (s CSSSelector) Name() string    { return s.SelectorName }
func (s DDGMatcherRef) Name() string  { return s.MatcherName }
func (s VendorRegexRef) Name() string { return s.RegexName }

func (CSSSelector) strategy()    {}
func (DDGMatcherRef) strategy()  {}
func (VendorRegexRef) strategy() {}

// Matcher couples a field type with its strategies, most reliable first.
type Matcher struct {
	Type       fieldtype.FieldType
	Strategies []Strategy
}

// ToStrategy converts the wire form into a Strategy.
func (s StrategySpec) ToStrategy() (Strategy, error) {
	switch s.Kind {
	case KindCSSSelector:
		return CSSSelector{SelectorName: s.SelectorName}, nil
	case KindDDGMatcher:
		return DDGMatcherRef{MatcherName: s.MatcherName}, nil
	case KindVendorRegex:
		return VendorRegexRef{RegexName: s.RegexName}, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy kind %q", ErrInvalidConfig, s.Kind)
	}
}

// specOf renders a Strategy back into its wire form.
func specOf(s Strategy) StrategySpec {
	switch v := s.(type) {
	case CSSSelector:
		return StrategySpec{Kind: KindCSSSelector, SelectorName: v.SelectorName}
	case DDGMatcherRef:
		return StrategySpec{Kind: KindDDGMatcher, MatcherName: v.MatcherName}
	case VendorRegexRef:
		return StrategySpec{Kind: KindVendorRegex, RegexName: v.RegexName}
	default:
		panic(fmt.Sprintf("matching: unexpected strategy %T", s))
	}
}
