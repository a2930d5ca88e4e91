// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package extract derives the candidate strings the matching strategies
// test: id, name, label text, placeholder and nearby container text.
package extract

import (
	"iter"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/vulntor/formsense/pkg/dom"
)

// TextLengthCutoff bounds related container text. Longer text mentions too
// many things to be a reliable signal.
const TextLengthCutoff = 50

// AttrAriaLabelled names the element whose text describes the input.
const AttrAriaLabelled = "aria-labelled"

var excessWhitespace = regexp2.MustCompile(`\s{2,}`, regexp2.ECMAScript|regexp2.Unicode)

// RemoveExcessWhitespace collapses every run of two or more whitespace
// characters into a single space and trims the result.
func RemoveExcessWhitespace(s string) string {
	out, err := excessWhitespace.Replace(s, " ", -1, -1)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// CandidateStrings yields the strings to test for el, in priority order.
// Each source is computed only when the consumer asks for it.
func CandidateStrings(el dom.Element, form dom.Node, inputsSelector string) iter.Seq[string] {
	return Source{InputsSelector: inputsSelector}.Candidates(el, form)
}

// Source carries the settings shared by the extraction helpers. A zero
// TextCutoff means TextLengthCutoff.
type Source struct {
	InputsSelector string
	TextCutoff     int
}

func (s Source) cutoff() int {
	if s.TextCutoff <= 0 {
		return TextLengthCutoff
	}
	return s.TextCutoff
}

// Candidates yields id, name, labels text, placeholder and related text.
func (s Source) Candidates(el dom.Element, form dom.Node) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !yield(dom.AttrValue(el, "id")) {
			return
		}
		if !yield(dom.AttrValue(el, "name")) {
			return
		}
		if !yield(ExplicitLabelsText(el)) {
			return
		}
		if !yield(dom.AttrValue(el, "placeholder")) {
			return
		}
		yield(s.RelatedText(el, form))
	}
}

// ExplicitLabelsText joins the text of the element's labels, its
// aria-label and the text of the element referenced by aria-labelled.
func ExplicitLabelsText(el dom.Element) string {
	var b strings.Builder
	for _, label := range el.Labels() {
		b.WriteString(" ")
		b.WriteString(label.TextContent())
	}
	b.WriteString(" ")
	b.WriteString(dom.AttrValue(el, "aria-label"))
	b.WriteString(" ")
	if ref := el.ElementByID(dom.AttrValue(el, AttrAriaLabelled)); ref != nil {
		b.WriteString(ref.TextContent())
	}
	return RemoveExcessWhitespace(b.String())
}

// RelatedText returns the text of the largest container around el that
// holds no other input. It is empty when no such container exists or when
// the text reaches TextLengthCutoff.
func RelatedText(el dom.Element, form dom.Node, inputsSelector string) string {
	return Source{InputsSelector: inputsSelector}.RelatedText(el, form)
}

// RelatedText is the package-level RelatedText with the source's cutoff.
func (s Source) RelatedText(el dom.Element, form dom.Node) string {
	container := LargestMeaningfulContainer(el, form, s.InputsSelector)
	if container == dom.Node(el) || container.TagName() == "select" {
		return ""
	}

	text := container.TextContent()
	if sel := container.QuerySelector("select"); sel != nil {
		if noisy := sel.TextContent(); noisy != "" {
			text = strings.Replace(text, noisy, "", 1)
		}
	}
	text = RemoveExcessWhitespace(text)
	if len([]rune(text)) < s.cutoff() {
		return text
	}
	return ""
}

// LargestMeaningfulContainer walks up from el while the parent's subtree
// contains exactly one element matching inputsSelector. The walk never
// goes above form.
func LargestMeaningfulContainer(el dom.Node, form dom.Node, inputsSelector string) dom.Node {
	for {
		parent := el.Parent()
		if parent == nil || el == form {
			return el
		}
		if len(parent.QuerySelectorAll(inputsSelector)) != 1 {
			return el
		}
		el = parent
	}
}

// MatchInPlaceholderAndLabels returns the first match of re in the
// placeholder, the explicit labels text or the related text, in that
// order, or nil.
func MatchInPlaceholderAndLabels(el dom.Element, form dom.Node, re *regexp2.Regexp, inputsSelector string) *regexp2.Match {
	sources := []func() string{
		func() string { return dom.AttrValue(el, "placeholder") },
		func() string { return ExplicitLabelsText(el) },
		func() string { return RelatedText(el, form, inputsSelector) },
	}
	for _, src := range sources {
		m, err := re.FindStringMatch(src())
		if err == nil && m != nil {
			return m
		}
	}
	return nil
}

// CheckPlaceholderAndLabels reports whether MatchInPlaceholderAndLabels
// finds a match.
func CheckPlaceholderAndLabels(el dom.Element, form dom.Node, re *regexp2.Regexp, inputsSelector string) bool {
	return MatchInPlaceholderAndLabels(el, form, re, inputsSelector) != nil
}
