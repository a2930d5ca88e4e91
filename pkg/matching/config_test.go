package matching

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/formsense/pkg/fieldtype"
)

func TestCanonicalConfig(t *testing.T) {
	cfg := Canonical()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "1.0.0", cfg.Version)

	for _, list := range fieldtype.Lists() {
		assert.NotEmpty(t, cfg.Matchers.Lists[list], "list %s", list)
	}
	for name, def := range cfg.Matchers.Fields {
		assert.True(t, fieldtype.FieldType(def.Type).Known(), "field %s has type %s", name, def.Type)
	}
	assert.Len(t, cfg.Strategies.VendorRegexes.Regexes, 3)
	assert.NotEmpty(t, cfg.Strategies.CSSSelectors.Selectors[SelectorFormInputs])

	engine := NewEngine(cfg)
	assert.NoError(t, engine.Check())
}

func TestCanonicalReturnsCopies(t *testing.T) {
	a := Canonical()
	a.Matchers.Lists["email"] = nil
	a.Strategies.CSSSelectors.Selectors["email"] = ""
	*a.Strategies.DDGMatchers.Matchers["expiration"].MaxDigits = 1

	b := Canonical()
	assert.NotEmpty(t, b.Matchers.Lists["email"])
	assert.NotEmpty(t, b.Strategies.CSSSelectors.Selectors["email"])
	assert.Equal(t, 6, *b.Strategies.DDGMatchers.Matchers["expiration"].MaxDigits)
}

func TestParseConfigJSONAndAliases(t *testing.T) {
	cfg, err := ParseConfig([]byte(vetoConfigJSON))
	require.NoError(t, err)

	require.Len(t, cfg.Strategies.VendorRegexes.Regexes, 1, "ruleSets is an alias of regexes")
	assert.Equal(t, "email-", cfg.Strategies.VendorRegexes.Regexes[0]["email"])
	assert.Equal(t, "search", cfg.Strategies.DDGMatchers.Matchers["email-ddg"].Not)
	assert.Nil(t, cfg.Strategies.DDGMatchers.Matchers["email-ddg"].MaxDigits)
	assert.Equal(t, KindDDGMatcher, cfg.Matchers.Fields["email"].Strategies[0].Kind)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfigMaxDigits(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
		err  bool
	}{
		{"number", `{strategies: {ddgMatchers: {matchers: {m: {match: x, maxDigits: 6}}}}}`, 6, false},
		{"string", `{strategies: {ddgMatchers: {matchers: {m: {match: x, maxDigits: "4"}}}}}`, 4, false},
		{"garbage", `{strategies: {ddgMatchers: {matchers: {m: {match: x, maxDigits: "many"}}}}}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.doc))
			if tt.err {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			got := cfg.Strategies.DDGMatchers.Matchers["m"].MaxDigits
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseConfigRegexesWinsOverRuleSets(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{strategies: {vendorRegexes: {regexes: [{a: one}], ruleSets: [{a: two}]}}}`))
	require.NoError(t, err)
	assert.Equal(t, "one", cfg.Strategies.VendorRegexes.Regexes[0]["a"])
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte(`{matchers: [`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte(`{version: "2.1.0"}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = ParseConfig([]byte(`{version: "not-a-version"}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion(""))
	assert.NoError(t, CheckVersion("1.0.0"))
	assert.NoError(t, CheckVersion("1.4.2"))
	assert.ErrorIs(t, CheckVersion("0.9.0"), ErrUnsupportedVersion)
	assert.ErrorIs(t, CheckVersion("2.0.0"), ErrUnsupportedVersion)
}

func TestValidateStructure(t *testing.T) {
	cfg := EmptyConfig()
	cfg.Matchers.Fields["bad"] = MatcherDef{Strategies: []StrategySpec{
		{Kind: "telepathy"},
		{Kind: KindCSSSelector},
		{Kind: KindVendorRegex, RegexName: "email"},
	}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "matchers.fields[bad].type: is required")
	assert.Contains(t, verr.Problems, "matchers.fields[bad].strategies[0].kind: must be one of: css-selector ddg-matcher vendor-regex")
	assert.Contains(t, verr.Problems, "matchers.fields[bad].strategies[1].selectorName: is required")
	assert.Len(t, verr.Problems, 3)
}

func TestValidatePatterns(t *testing.T) {
	cfg := EmptyConfig()
	cfg.Strategies.DDGMatchers.Matchers["broken"] = DDGMatcher{Match: "(open", Not: "[x"}
	cfg.Strategies.DDGMatchers.Matchers["fine"] = DDGMatcher{Match: `\bzip\b`, Not: "(?!x)y"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), `ddg matcher "broken" match`)
	assert.Contains(t, err.Error(), `ddg matcher "broken" not`)
	assert.NotContains(t, err.Error(), `"fine"`)
}

func TestStrategySpecRoundTrip(t *testing.T) {
	specs := []StrategySpec{
		{Kind: KindCSSSelector, SelectorName: "email"},
		{Kind: KindDDGMatcher, MatcherName: "email"},
		{Kind: KindVendorRegex, RegexName: "email"},
	}
	for _, spec := range specs {
		st, err := spec.ToStrategy()
		require.NoError(t, err)
		assert.Equal(t, spec.Kind, st.Kind())
		assert.Equal(t, "email", st.Name())
		assert.Equal(t, spec, specOf(st))
	}

	_, err := StrategySpec{Kind: "nope"}.ToStrategy()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(good, []byte(vetoConfigJSON), 0o644))
	cfg, err := LoadFile(good)
	require.NoError(t, err)
	assert.Contains(t, cfg.Matchers.Fields, "email")

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrRulesNotFound)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("matchers:\n  fields:\n    x:\n      strategies: []\n"), 0o644))
	_, err = LoadFile(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigJSONShape(t *testing.T) {
	cfg, err := ParseConfig([]byte(vetoConfigJSON))
	require.NoError(t, err)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	strategies := generic["strategies"].(map[string]any)
	vendor := strategies["vendorRegexes"].(map[string]any)
	assert.Contains(t, vendor, "regexes")
	assert.NotContains(t, generic, "version")

	again, err := ParseConfig(out)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}
