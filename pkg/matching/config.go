// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package matching

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SupportedVersions is the range of rule-data schema versions this build reads.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

// Config is the wire form of the matching rules. JSON files are accepted
// as YAML.
type Config struct {
	Version    string           `json:"version,omitempty" yaml:"version,omitempty"`
	Matchers   MatchersConfig   `json:"matchers" yaml:"matchers"`
	Strategies StrategiesConfig `json:"strategies" yaml:"strategies"`
}

// MatchersConfig holds field definitions and the lists grouping them.
type MatchersConfig struct {
	Fields map[string]MatcherDef `json:"fields" yaml:"fields" validate:"dive"`
	Lists  map[string][]string   `json:"lists" yaml:"lists"`
}

// MatcherDef defines one field: its type and ordered strategies.
type MatcherDef struct {
	Type       string         `json:"type" yaml:"type" validate:"required"`
	Strategies []StrategySpec `json:"strategies" yaml:"strategies" validate:"dive"`
}

// StrategySpec is the wire form of a Strategy. Exactly one name field is
// meaningful, chosen by Kind.
type StrategySpec struct {
	Kind         string `json:"kind" yaml:"kind" validate:"required,oneof=css-selector ddg-matcher vendor-regex"`
	SelectorName string `json:"selectorName,omitempty" yaml:"selectorName,omitempty" validate:"required_if=Kind css-selector"`
	MatcherName  string `json:"matcherName,omitempty" yaml:"matcherName,omitempty" validate:"required_if=Kind ddg-matcher"`
	RegexName    string `json:"regexName,omitempty" yaml:"regexName,omitempty" validate:"required_if=Kind vendor-regex"`
}

// StrategiesConfig holds the data each strategy kind looks names up in.
type StrategiesConfig struct {
	CSSSelectors  CSSSelectorConfig `json:"cssSelectors" yaml:"cssSelectors"`
	DDGMatchers   DDGMatcherConfig  `json:"ddgMatchers" yaml:"ddgMatchers"`
	VendorRegexes VendorRegexConfig `json:"vendorRegexes" yaml:"vendorRegexes"`
}

type CSSSelectorConfig struct {
	Selectors map[string]string `json:"selectors" yaml:"selectors"`
}

type DDGMatcherConfig struct {
	Matchers map[string]DDGMatcher `json:"matchers" yaml:"matchers" validate:"dive"`
}

// DDGMatcher scores a candidate string: Match must hit, Not must miss and
// the string may hold at most MaxDigits digits. Absent parts are not scored.
type DDGMatcher struct {
	Match     string `json:"match" yaml:"match" validate:"required"`
	Not       string `json:"not,omitempty" yaml:"not,omitempty"`
	MaxDigits *int   `json:"maxDigits,omitempty" yaml:"maxDigits,omitempty" validate:"omitempty,gte=0"`
}

// UnmarshalYAML accepts maxDigits as a number or a numeric string.
func (m *DDGMatcher) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Match     string `yaml:"match"`
		Not       string `yaml:"not"`
		MaxDigits any    `yaml:"maxDigits"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	m.Match = raw.Match
	m.Not = raw.Not
	m.MaxDigits = nil
	if raw.MaxDigits != nil {
		n, err := cast.ToIntE(raw.MaxDigits)
		if err != nil {
			return fmt.Errorf("%w: maxDigits: %v", ErrInvalidConfig, err)
		}
		m.MaxDigits = &n
	}
	return nil
}

// VendorRegexConfig holds the ordered vendor rule sets. Each set maps a
// regex name to a pattern fragment.
type VendorRegexConfig struct {
	Regexes []map[string]string `json:"regexes" yaml:"regexes"`
}

// UnmarshalYAML accepts ruleSets as an alias of regexes and ignores the
// legacy rules name map.
func (v *VendorRegexConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Regexes  []map[string]string `yaml:"regexes"`
		RuleSets []map[string]string `yaml:"ruleSets"`
		Rules    map[string]any      `yaml:"rules"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v.Regexes = raw.Regexes
	if v.Regexes == nil {
		v.Regexes = raw.RuleSets
	}
	return nil
}

// ParseConfig decodes a JSON or YAML rules document and checks its
// version. It does not run Validate.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := CheckVersion(cfg.Version); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads, parses and validates a rules file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRulesNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate rules %s: %w", path, err)
	}
	return cfg, nil
}

// CheckVersion reports whether a rules schema version can be read. An
// empty version is accepted.
func CheckVersion(version string) error {
	if strings.TrimSpace(version) == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedVersion, version, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("parse supported versions: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s is outside %s", ErrUnsupportedVersion, v, SupportedVersions)
	}
	return nil
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the configuration structure, then compiles every DDG
// matcher pattern. Vendor regexes are checked by VendorRegexCache.CompileAll.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s: %s", trimNamespace(fe.Namespace()), describeTag(fe)))
		}
		return &ValidationError{Problems: problems}
	}

	var errs []error
	names := make([]string, 0, len(c.Strategies.DDGMatchers.Matchers))
	for name := range c.Strategies.DDGMatchers.Matchers {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		m := c.Strategies.DDGMatchers.Matchers[name]
		if _, err := compileDDGPattern(m.Match); err != nil {
			errs = append(errs, fmt.Errorf("%w: ddg matcher %q match: %v", ErrInvalidPattern, name, err))
		}
		if m.Not != "" {
			if _, err := compileDDGPattern(m.Not); err != nil {
				errs = append(errs, fmt.Errorf("%w: ddg matcher %q not: %v", ErrInvalidPattern, name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func trimNamespace(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	return rest
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
