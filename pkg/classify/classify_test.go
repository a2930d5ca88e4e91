package classify

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/formsense/pkg/dom"
	"github.com/vulntor/formsense/pkg/dom/htmldom"
	"github.com/vulntor/formsense/pkg/fieldtype"
	"github.com/vulntor/formsense/pkg/matching"
)

func canonical() Static {
	return Static{E: matching.NewEngine(matching.Canonical())}
}

func TestDocumentClassifiesFormsThenLooseInputs(t *testing.T) {
	c := New(canonical(), Options{}, zerolog.Nop())
	res, err := c.File(filepath.Join("testdata", "signup.html"))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Forms)
	require.Len(t, res.Fields, 4, "the submit button is not an input")

	want := []struct {
		form, index int
		label       string
	}{
		{0, 0, "identities.emailAddress"},
		{0, 1, "credentials.username"},
		{0, 2, "credentials.password"},
		{NoForm, 0, "identities.phone"},
	}
	for i, w := range want {
		got := res.Fields[i]
		assert.Equal(t, w.form, got.FormIndex, "field %d", i)
		assert.Equal(t, w.index, got.Index, "field %d", i)
		assert.Equal(t, w.label, got.Label, "field %d", i)
		assert.Equal(t, got.Expected, got.Subtype, "field %d", i)
	}
	assert.Equal(t, "telefonnummer", res.Fields[3].Name)
	assert.Equal(t, "body", res.Fields[3].Form().TagName())
	assert.Equal(t, "form", res.Fields[0].Form().TagName())
	assert.Empty(t, res.HTML)
}

func TestDocumentCreditCardFormAndPreset(t *testing.T) {
	c := New(canonical(), Options{}, zerolog.Nop())
	res, err := c.File(filepath.Join("testdata", "payment.html"))
	require.NoError(t, err)
	require.Len(t, res.Fields, 3)

	assert.Equal(t, "creditCard.cardName", res.Fields[0].Label)
	assert.Equal(t, string(fieldtype.CreditCard), res.Fields[1].MainType)
	assert.Equal(t, "identities.phone", res.Fields[2].Label)
	assert.True(t, res.Fields[2].Preset)
	assert.False(t, res.Fields[0].Preset)
}

func TestDocumentLoginOption(t *testing.T) {
	c := New(canonical(), Options{Login: true}, zerolog.Nop())
	res, err := c.Reader(strings.NewReader(`<form><input name="email"></form>`), "inline")
	require.NoError(t, err)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, fieldtype.LabelUsername, res.Fields[0].Label)
	assert.Equal(t, "inline", res.Fields[0].Source)
}

func TestDocumentSetWritesMarkers(t *testing.T) {
	c := New(canonical(), Options{Set: true}, zerolog.Nop())
	doc, err := htmldom.ParseString(`<form><input name="password"></form>`)
	require.NoError(t, err)

	res := c.Document(doc, "inline")
	require.Len(t, res.Fields, 1)
	assert.Equal(t, "credentials.password", dom.AttrValue(res.Fields[0].Element(), fieldtype.AttrInputType))
	assert.Contains(t, res.HTML, `data-ddg-inputtype="credentials.password"`)
}

func TestDocumentWithoutInputs(t *testing.T) {
	c := New(Static{E: matching.NewEngine(nil)}, Options{}, zerolog.Nop())
	res, err := c.Reader(strings.NewReader(`<p>nothing here</p>`), "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Forms)
	assert.Empty(t, res.Fields)
}

func TestObserverSeesEveryField(t *testing.T) {
	c := New(canonical(), Options{}, zerolog.Nop())
	var mu sync.Mutex
	var seen []string
	c.Observe(func(r FieldResult) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r.Label)
	})

	_, err := c.File(filepath.Join("testdata", "signup.html"))
	require.NoError(t, err)
	assert.Len(t, seen, 4)
}

func TestFilesKeepsOrderAndReportsMissing(t *testing.T) {
	c := New(canonical(), Options{Workers: 2}, zerolog.Nop())
	paths := []string{
		filepath.Join("testdata", "payment.html"),
		filepath.Join("testdata", "missing.html"),
		filepath.Join("testdata", "signup.html"),
	}

	results, err := c.Files(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, p := range paths {
		assert.Equal(t, p, results[i].Source)
	}
	assert.Len(t, results[0].Fields, 3)
	assert.Contains(t, results[1].Error, "missing.html")
	assert.Len(t, results[2].Fields, 4)
}

func TestFilesHonorsCancellation(t *testing.T) {
	c := New(canonical(), Options{Workers: 1}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Files(ctx, []string{filepath.Join("testdata", "signup.html")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDefaultsWorkers(t *testing.T) {
	c := New(canonical(), Options{}, zerolog.Nop())
	assert.Equal(t, DefaultWorkers, c.Options().Workers)
}

func TestClassifierAcceptsProvider(t *testing.T) {
	p, err := matching.NewProvider("")
	require.NoError(t, err)
	c := New(p, Options{}, zerolog.Nop())

	res, err := c.Reader(strings.NewReader(`<form><input name="username"></form>`), "inline")
	require.NoError(t, err)
	assert.Equal(t, "credentials.username", res.Fields[0].Label)
}

func TestContainer(t *testing.T) {
	doc, err := htmldom.ParseString(`<form><div><input id="in"></div></form><input id="out">`)
	require.NoError(t, err)

	in := doc.ElementByID("in")
	require.NotNil(t, in)
	assert.Equal(t, "form", Container(doc, in).TagName())

	out := doc.ElementByID("out")
	require.NotNil(t, out)
	assert.Equal(t, "body", Container(doc, out).TagName())
}
