// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package htmldom implements the dom interfaces over golang.org/x/net/html
// trees, using cascadia for CSS selector matching.
package htmldom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vulntor/formsense/pkg/dom"
)

// Document is a parsed HTML document. Like a browser DOM it is not safe
// for concurrent mutation; reads from several goroutines are fine as long
// as nobody calls SetAttr.
type Document struct {
	root      *html.Node
	selectors *SelectorCache
}

// Parse parses an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root, selectors: defaultSelectors}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// WithSelectorCache makes the document use cache for compiled selectors.
func (d *Document) WithSelectorCache(cache *SelectorCache) *Document {
	if cache != nil {
		d.selectors = cache
	}
	return d
}

// Wrap returns the dom view of n, which must belong to this document.
func (d *Document) Wrap(n *html.Node) Node {
	return Node{n: n, doc: d}
}

// Body returns the body element, or the document element when the tree has
// no body.
func (d *Document) Body() Node {
	if n := findFirst(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Body }); n != nil {
		return d.Wrap(n)
	}
	if n := findFirst(d.root, func(n *html.Node) bool { return n.Type == html.ElementNode }); n != nil {
		return d.Wrap(n)
	}
	return Node{}
}

// QuerySelectorAll returns every element of the document matching selector.
func (d *Document) QuerySelectorAll(selector string) []Node {
	sel, ok := d.selectors.Get(selector)
	if !ok {
		return nil
	}
	var out []Node
	for _, n := range sel.MatchAll(d.root) {
		out = append(out, d.Wrap(n))
	}
	return out
}

// Forms returns the form elements in document order.
func (d *Document) Forms() []Node {
	return d.QuerySelectorAll("form")
}

// ElementByID returns the first element whose id is id, or nil.
func (d *Document) ElementByID(id string) dom.Node {
	if id == "" {
		return nil
	}
	n := findFirst(d.root, func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	})
	if n == nil {
		return nil
	}
	return d.Wrap(n)
}

// Render writes the document, including any attributes set since parsing.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document to a string.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Node is the dom view of an element. The zero value is not usable.
type Node struct {
	n   *html.Node
	doc *Document
}

var (
	_ dom.Node    = Node{}
	_ dom.Element = Node{}
)

// Raw returns the underlying html node.
func (e Node) Raw() *html.Node { return e.n }

// Valid reports whether e refers to an element.
func (e Node) Valid() bool { return e.n != nil && e.doc != nil }

func (e Node) TagName() string {
	return strings.ToLower(e.n.Data)
}

func (e Node) Attr(name string) (string, bool) {
	return attr(e.n, name)
}

func (e Node) Attrs() []dom.Attribute {
	out := make([]dom.Attribute, 0, len(e.n.Attr))
	for _, a := range e.n.Attr {
		if a.Namespace != "" {
			continue
		}
		out = append(out, dom.Attribute{Name: a.Key, Value: a.Val})
	}
	return out
}

func (e Node) TextContent() string {
	var b strings.Builder
	writeText(e.n, &b)
	return b.String()
}

func (e Node) Parent() dom.Node {
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.Wrap(p)
}

func (e Node) Matches(selector string) bool {
	sel, ok := e.doc.selectors.Get(selector)
	if !ok {
		return false
	}
	return sel.Match(e.n)
}

func (e Node) QuerySelector(selector string) dom.Node {
	sel, ok := e.doc.selectors.Get(selector)
	if !ok {
		return nil
	}
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if m := sel.MatchFirst(c); m != nil {
			return e.doc.Wrap(m)
		}
	}
	return nil
}

func (e Node) QuerySelectorAll(selector string) []dom.Node {
	sel, ok := e.doc.selectors.Get(selector)
	if !ok {
		return nil
	}
	var out []dom.Node
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		for _, m := range sel.MatchAll(c) {
			out = append(out, e.doc.Wrap(m))
		}
	}
	return out
}

func (e Node) SetAttr(name, value string) {
	name = strings.ToLower(name)
	for i := range e.n.Attr {
		if e.n.Attr[i].Namespace == "" && e.n.Attr[i].Key == name {
			e.n.Attr[i].Val = value
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
}

// Labels returns the labels whose labeled control is e, in document order.
// A label with a for attribute labels the first element with that id; a
// label without one labels its first labelable descendant.
func (e Node) Labels() []dom.Node {
	if !labelable(e.n) {
		return nil
	}
	var out []dom.Node
	walk(e.doc.root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Label {
			return
		}
		if e.doc.labelControl(n) == e.n {
			out = append(out, e.doc.Wrap(n))
		}
	})
	return out
}

func (e Node) ElementByID(id string) dom.Node {
	return e.doc.ElementByID(id)
}

func (d *Document) labelControl(label *html.Node) *html.Node {
	if target, ok := attr(label, "for"); ok {
		n := findFirst(d.root, func(n *html.Node) bool {
			v, ok := attr(n, "id")
			return ok && v == target
		})
		if n != nil && labelable(n) {
			return n
		}
		return nil
	}
	var control *html.Node
	for c := label.FirstChild; c != nil && control == nil; c = c.NextSibling {
		control = findFirst(c, labelable)
	}
	return control
}

func labelable(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Button, atom.Meter, atom.Output, atom.Progress, atom.Select, atom.Textarea:
		return true
	case atom.Input:
		v, _ := attr(n, "type")
		return !strings.EqualFold(v, "hidden")
	}
	return false
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func writeText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, b)
	}
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := findFirst(c, pred); m != nil {
			return m
		}
	}
	return nil
}
