package matching

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorRegexSource(t *testing.T) {
	cache := NewVendorRegexCache([]map[string]string{
		{"email": "E-Mail"},
		{"tel": "phone"},
		{"email": "ｃｏｕｒｒｉｅｌ", "tel": ""},
	}, zerolog.Nop())

	src, ok := cache.Source("email")
	require.True(t, ok)
	assert.Equal(t, "(?:e-mail)|(?:courriel)", src, "lower-cased, NFKC-normalized, in rule set order")

	src, ok = cache.Source("tel")
	require.True(t, ok)
	assert.Equal(t, "(?:phone)", src)

	_, ok = cache.Source("missing")
	assert.False(t, ok)
}

func TestVendorRegexGet(t *testing.T) {
	cache := NewVendorRegexCache([]map[string]string{
		{"email": "(^e-?mail$)"},
		{"email": `e.?mail|courriel`},
		{"zip": `\bzip\b`},
	}, zerolog.Nop())

	re, err := cache.Get("email")
	require.NoError(t, err)
	require.NotNil(t, re)

	for _, s := range []string{"email", "e-mail", "courriel", "your e mail"} {
		ok, err := re.MatchString(s)
		require.NoError(t, err)
		assert.True(t, ok, s)
	}
	ok, err := re.MatchString("mailbox")
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := cache.Get("email")
	require.NoError(t, err)
	assert.Same(t, re, again, "compiled regex is memoized")

	re, err = cache.Get("missing")
	assert.NoError(t, err)
	assert.Nil(t, re)
}

func TestVendorRegexEndAnchorIsStrict(t *testing.T) {
	cache := NewVendorRegexCache([]map[string]string{{"email": "(^e-?mail$)"}}, zerolog.Nop())
	re, err := cache.Get("email")
	require.NoError(t, err)

	ok, err := re.MatchString("email\n")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVendorRegexLookahead(t *testing.T) {
	cache := NewVendorRegexCache([]map[string]string{{"address-line2": `unit(?!e)`}}, zerolog.Nop())
	re, err := cache.Get("address-line2")
	require.NoError(t, err)

	ok, _ := re.MatchString("unit")
	assert.True(t, ok)
	ok, _ = re.MatchString("united")
	assert.False(t, ok)
}

func TestVendorRegexCompileErrorLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	cache := NewVendorRegexCache([]map[string]string{{"bad": "(unclosed"}}, zerolog.New(&buf))

	_, err := cache.Get("bad")
	require.ErrorIs(t, err, ErrInvalidPattern)
	_, err = cache.Get("bad")
	require.ErrorIs(t, err, ErrInvalidPattern)

	assert.Equal(t, 1, strings.Count(buf.String(), "Vendor regex does not compile"))
	assert.Contains(t, buf.String(), `"component":"matching.vendor"`)
}

func TestVendorRegexNamesAndCompileAll(t *testing.T) {
	cache := NewVendorRegexCache([]map[string]string{
		{"b": "x", "a": "y"},
		{"c": "[", "a": "z", "empty": ""},
	}, zerolog.Nop())

	assert.Equal(t, []string{"a", "b", "c"}, cache.Names())

	err := cache.CompileAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), `"c"`)
}

func TestCanonicalVendorRegexesCompile(t *testing.T) {
	cache := NewVendorRegexCache(Canonical().Strategies.VendorRegexes.Regexes, zerolog.Nop())
	require.NoError(t, cache.CompileAll())
	assert.Contains(t, cache.Names(), "cc-exp-month")
	assert.Contains(t, cache.Names(), "tel")
}

func TestVendorRegexConcurrentGet(t *testing.T) {
	cache := NewVendorRegexCache([]map[string]string{{"tel": "phone|mobile"}}, zerolog.Nop())

	var wg sync.WaitGroup
	results := make(chan any, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			re, _ := cache.Get("tel")
			results <- re
		}()
	}
	wg.Wait()
	close(results)

	var first any
	for re := range results {
		if first == nil {
			first = re
		}
		assert.Same(t, first, re)
	}
}
