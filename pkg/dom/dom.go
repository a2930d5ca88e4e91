// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package dom declares the read-only document view the matching engine
// works against. Implementations must treat an empty or invalid selector
// as matching nothing rather than failing.
package dom

// FormInputsSelector selects every element a user can type into or pick
// from. It is the fallback for the FORM_INPUTS_SELECTOR configuration name.
const FormInputsSelector = `input:not([type=submit]):not([type=button]):not([type=checkbox]):not([type=radio]):not([type=hidden]):not([type=file]):not([type=image]):not([type=reset]), select`

// Attribute is a single name/value pair of an element.
type Attribute struct {
	Name  string
	Value string
}

// Node is an element in the document tree.
//
// Two Node values refer to the same element if and only if they compare
// equal with ==.
type Node interface {
	// TagName returns the lower-case element name.
	TagName() string
	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool)
	// Attrs returns every attribute in document order.
	Attrs() []Attribute
	// TextContent concatenates the text of all descendant text nodes.
	TextContent() string
	// Parent returns the parent element, or nil at the top of the tree.
	Parent() Node
	// Matches reports whether the element itself matches selector.
	Matches(selector string) bool
	// QuerySelector returns the first descendant matching selector, or nil.
	QuerySelector(selector string) Node
	// QuerySelectorAll returns every descendant matching selector.
	QuerySelectorAll(selector string) []Node
}

// Element is an input element being classified.
type Element interface {
	Node
	// SetAttr writes an attribute on the element.
	SetAttr(name, value string)
	// Labels returns the label elements associated with the element.
	Labels() []Node
	// ElementByID looks up an element by id in the element's document.
	ElementByID(id string) Node
}

// AttrValue returns the attribute value or "" when absent.
func AttrValue(n Node, name string) string {
	v, _ := n.Attr(name)
	return v
}
