package htmldom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/formsense/pkg/dom"
)

const fixture = `
<form id="f" class="checkout" data-purpose="payment-card">
  <div id="wrap">
    <label for="email">E-mail</label>
    <input id="email" name="Email" placeholder="you@example.com">
  </div>
  <label>Card number <input id="cc" name="cc-number"><input id="second"></label>
  <span id="hint">Your  login</span>
  <input type="hidden" id="h">
  <select name="country"><option>Norway</option></select>
</form>`

func parse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseString(src)
	require.NoError(t, err)
	return doc
}

func element(t *testing.T, doc *Document, id string) dom.Element {
	t.Helper()
	n := doc.ElementByID(id)
	require.NotNil(t, n, "element %s", id)
	el, ok := n.(dom.Element)
	require.True(t, ok)
	return el
}

func TestNodeBasics(t *testing.T) {
	doc := parse(t, fixture)
	el := element(t, doc, "email")

	assert.Equal(t, "input", el.TagName())
	v, ok := el.Attr("name")
	assert.True(t, ok)
	assert.Equal(t, "Email", v)
	_, ok = el.Attr("missing")
	assert.False(t, ok)
	assert.Equal(t, "you@example.com", dom.AttrValue(el, "placeholder"))

	parent := el.Parent()
	require.NotNil(t, parent)
	assert.Equal(t, "div", parent.TagName())
	assert.Equal(t, doc.ElementByID("wrap"), parent, "same element must compare equal")
}

func TestParentStopsAtDocument(t *testing.T) {
	doc := parse(t, fixture)
	var n dom.Node = element(t, doc, "email")
	depth := 0
	for n.Parent() != nil {
		n = n.Parent()
		depth++
	}
	assert.Equal(t, "html", n.TagName())
	assert.Equal(t, 4, depth)
}

func TestMatchesAndQueries(t *testing.T) {
	doc := parse(t, fixture)
	form := doc.Forms()[0]

	assert.True(t, element(t, doc, "email").Matches(`input[name*=mail i]`))
	assert.False(t, element(t, doc, "email").Matches(`input[name*=phone i]`))
	assert.False(t, element(t, doc, "email").Matches(""))
	assert.False(t, element(t, doc, "email").Matches("input[["))

	found := form.QuerySelector(`input[name="cc-number"], select`)
	require.NotNil(t, found)
	assert.Equal(t, doc.ElementByID("cc"), found)
	assert.Nil(t, form.QuerySelector("textarea"))

	inputs := form.QuerySelectorAll(dom.FormInputsSelector)
	assert.Len(t, inputs, 4, "hidden input is excluded, select included")
	assert.False(t, form.Matches("input"), "Matches tests the node itself")
}

func TestTextContent(t *testing.T) {
	doc := parse(t, fixture)
	assert.Equal(t, "Your  login", doc.ElementByID("hint").TextContent())
	assert.Contains(t, doc.Forms()[0].TextContent(), "Card number")
	assert.Equal(t, "", element(t, doc, "email").TextContent())
}

func TestLabels(t *testing.T) {
	doc := parse(t, fixture)

	labels := element(t, doc, "email").Labels()
	require.Len(t, labels, 1)
	assert.Equal(t, "E-mail", labels[0].TextContent())

	labels = element(t, doc, "cc").Labels()
	require.Len(t, labels, 1)
	assert.True(t, strings.HasPrefix(labels[0].TextContent(), "Card number"))

	assert.Empty(t, element(t, doc, "second").Labels(), "only the first labelable descendant is labelled")
	assert.Empty(t, element(t, doc, "h").Labels())
}

func TestSetAttrAndRender(t *testing.T) {
	doc := parse(t, fixture)
	el := element(t, doc, "email")

	el.SetAttr("data-ddg-inputtype", "identities.emailAddress")
	el.SetAttr("data-ddg-inputtype", "credentials.username")
	v, _ := el.Attr("data-ddg-inputtype")
	assert.Equal(t, "credentials.username", v)
	assert.Contains(t, doc.String(), `data-ddg-inputtype="credentials.username"`)
}

func TestAttrs(t *testing.T) {
	doc := parse(t, fixture)
	attrs := doc.Forms()[0].Attrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, dom.Attribute{Name: "data-purpose", Value: "payment-card"}, attrs[2])
}

func TestBody(t *testing.T) {
	doc := parse(t, `<p>x</p>`)
	assert.Equal(t, "body", doc.Body().TagName())
}

func TestSelectorCache(t *testing.T) {
	c := NewSelectorCache()
	_, ok := c.Get("input[name=a]")
	assert.True(t, ok)
	_, ok = c.Get("input[name=a]")
	assert.True(t, ok)
	_, ok = c.Get("input[")
	assert.False(t, ok)
	_, ok = c.Get("   ")
	assert.False(t, ok)

	assert.NoError(t, Valid(dom.FormInputsSelector))
	assert.Error(t, Valid("a[b"))
}
