package matching

import (
	_ "embed"
	"fmt"
	"sync"
)

//go:embed data/matching.yaml
var embeddedRulesYAML []byte

var canonical = sync.OnceValues(func() (*Config, error) {
	cfg, err := ParseConfig(embeddedRulesYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in rules: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("built-in rules: %w", err)
	}
	return cfg, nil
})

// Canonical returns a fresh copy of the built-in rules.
func Canonical() *Config {
	cfg, err := canonical()
	if err != nil {
		panic(err)
	}
	return cfg.Clone()
}

// CanonicalYAML returns the built-in rules document.
func CanonicalYAML() []byte {
	return append([]byte(nil), embeddedRulesYAML...)
}

// EmptyConfig returns a configuration with no fields, lists or strategies.
func EmptyConfig() *Config {
	return &Config{
		Matchers: MatchersConfig{
			Fields: map[string]MatcherDef{},
			Lists:  map[string][]string{},
		},
		Strategies: StrategiesConfig{
			CSSSelectors:  CSSSelectorConfig{Selectors: map[string]string{}},
			DDGMatchers:   DDGMatcherConfig{Matchers: map[string]DDGMatcher{}},
			VendorRegexes: VendorRegexConfig{Regexes: []map[string]string{}},
		},
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := &Config{Version: c.Version}

	out.Matchers.Fields = make(map[string]MatcherDef, len(c.Matchers.Fields))
	for name, def := range c.Matchers.Fields {
		def.Strategies = append([]StrategySpec(nil), def.Strategies...)
		out.Matchers.Fields[name] = def
	}
	out.Matchers.Lists = make(map[string][]string, len(c.Matchers.Lists))
	for name, list := range c.Matchers.Lists {
		out.Matchers.Lists[name] = append([]string(nil), list...)
	}

	out.Strategies.CSSSelectors.Selectors = make(map[string]string, len(c.Strategies.CSSSelectors.Selectors))
	for name, sel := range c.Strategies.CSSSelectors.Selectors {
		out.Strategies.CSSSelectors.Selectors[name] = sel
	}
	out.Strategies.DDGMatchers.Matchers = make(map[string]DDGMatcher, len(c.Strategies.DDGMatchers.Matchers))
	for name, m := range c.Strategies.DDGMatchers.Matchers {
		if m.MaxDigits != nil {
			n := *m.MaxDigits
			m.MaxDigits = &n
		}
		out.Strategies.DDGMatchers.Matchers[name] = m
	}
	out.Strategies.VendorRegexes.Regexes = make([]map[string]string, 0, len(c.Strategies.VendorRegexes.Regexes))
	for _, set := range c.Strategies.VendorRegexes.Regexes {
		cp := make(map[string]string, len(set))
		for name, frag := range set {
			cp[name] = frag
		}
		out.Strategies.VendorRegexes.Regexes = append(out.Strategies.VendorRegexes.Regexes, cp)
	}
	return out
}
