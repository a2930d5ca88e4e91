// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package classify runs the matching engine over every input of an HTML
// document, and over batches of documents concurrently.
package classify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vulntor/formsense/pkg/dom"
	"github.com/vulntor/formsense/pkg/dom/htmldom"
	"github.com/vulntor/formsense/pkg/fieldtype"
	"github.com/vulntor/formsense/pkg/matching"
)

// AttrManualScoring carries the expected subtype of a labelled input.
const AttrManualScoring = "data-manual-scoring"

// NoForm is the FormIndex of inputs that are not inside any form.
const NoForm = -1

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 4

// EngineSource hands out the engine to classify with. *matching.Provider
// implements it; so does Static.
type EngineSource interface {
	Engine() *matching.Engine
}

// Static wraps a fixed engine as an EngineSource.
type Static struct{ E *matching.Engine }

// Engine returns the wrapped engine.
func (s Static) Engine() *matching.Engine { return s.E }

// Options controls a classification run.
type Options struct {
	Login   bool // classify as login forms
	Set     bool // write the type label onto each input
	Workers int  // documents classified concurrently
}

// FieldResult is the classification of one input.
type FieldResult struct {
	Source    string        `json:"source,omitempty"`
	FormIndex int           `json:"form_index"`
	Index     int           `json:"index"`
	Tag       string        `json:"tag"`
	ID        string        `json:"id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Label     string        `json:"type"`
	MainType  string        `json:"main_type"`
	Subtype   string        `json:"subtype"`
	Preset    bool          `json:"preset,omitempty"`
	Expected  string        `json:"expected,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	element   dom.Element
	container dom.Node
}

// Element returns the classified input.
func (r FieldResult) Element() dom.Element { return r.element }

// Form returns the form the input was classified against, or the body
// for inputs outside any form.
func (r FieldResult) Form() dom.Node { return r.container }

// DocumentResult is the classification of one document.
type DocumentResult struct {
	Source string        `json:"source"`
	Forms  int           `json:"forms"`
	Fields []FieldResult `json:"fields"`
	Error  string        `json:"error,omitempty"`
	// HTML is the rendered document after marker writes, set only when
	// Options.Set is on.
	HTML string `json:"-"`
}

// Observer is called for every classified field, from the goroutine that
// classified it.
type Observer func(FieldResult)

// Classifier classifies documents with the engine of an EngineSource.
type Classifier struct {
	source    EngineSource
	opts      Options
	logger    zerolog.Logger
	observers []Observer
}

// New creates a Classifier.
func New(source EngineSource, opts Options, logger zerolog.Logger) *Classifier {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Classifier{
		source: source,
		opts:   opts,
		logger: logger.With().Str("component", "classify").Logger(),
	}
}

// Observe registers fn for every field classified from now on. It must
// not be called concurrently with a classification.
func (c *Classifier) Observe(fn Observer) {
	c.observers = append(c.observers, fn)
}

// Options returns the effective options.
func (c *Classifier) Options() Options { return c.opts }

// Document classifies every input of doc: first the inputs of each form,
// in document order, then the inputs outside any form against the body.
func (c *Classifier) Document(doc *htmldom.Document, source string) DocumentResult {
	engine := c.source.Engine()
	selector := engine.Store().FormInputsSelector()
	infer := matching.InferOptions{IsLogin: c.opts.Login}

	forms := doc.Forms()
	res := DocumentResult{Source: source, Forms: len(forms)}
	for fi, form := range forms {
		for i, input := range form.QuerySelectorAll(selector) {
			el, ok := input.(dom.Element)
			if !ok {
				continue
			}
			res.Fields = append(res.Fields, c.field(engine, el, form, infer, source, fi, i))
		}
	}

	body := doc.Body()
	if body.Valid() {
		i := 0
		for _, input := range doc.QuerySelectorAll(selector) {
			if insideForm(input) {
				continue
			}
			res.Fields = append(res.Fields, c.field(engine, input, body, infer, source, NoForm, i))
			i++
		}
	}

	if c.opts.Set {
		res.HTML = doc.String()
	}
	c.logger.Debug().
		Str("source", source).
		Int("forms", res.Forms).
		Int("fields", len(res.Fields)).
		Msg("Document classified")
	return res
}

func (c *Classifier) field(engine *matching.Engine, el dom.Element, form dom.Node, infer matching.InferOptions, source string, formIndex, index int) FieldResult {
	preset := dom.AttrValue(el, fieldtype.AttrInputType) != ""

	start := time.Now()
	var label string
	if c.opts.Set {
		label = engine.SetInputType(el, form, infer)
	} else {
		label = engine.InferInputType(el, form, infer)
	}
	elapsed := time.Since(start)

	r := FieldResult{
		Source:    source,
		FormIndex: formIndex,
		Index:     index,
		Tag:       el.TagName(),
		ID:        dom.AttrValue(el, "id"),
		Name:      dom.AttrValue(el, "name"),
		Label:     label,
		MainType:  string(fieldtype.MainTypeOf(label)),
		Subtype:   fieldtype.SubtypeOf(label),
		Preset:    preset,
		Expected:  dom.AttrValue(el, AttrManualScoring),
		Duration:  elapsed,
		element:   el,
		container: form,
	}
	for _, fn := range c.observers {
		fn(r)
	}
	return r
}

// Reader parses r as HTML and classifies it.
func (c *Classifier) Reader(r io.Reader, source string) (DocumentResult, error) {
	doc, err := htmldom.Parse(r)
	if err != nil {
		return DocumentResult{Source: source}, fmt.Errorf("parse %s: %w", source, err)
	}
	return c.Document(doc, source), nil
}

// File classifies the HTML file at path.
func (c *Classifier) File(path string) (DocumentResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return DocumentResult{Source: path}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return c.Reader(f, path)
}

// Files classifies paths concurrently with at most Options.Workers files
// in flight. Results keep the order of paths. A file that cannot be read
// is reported in its DocumentResult.Error and does not stop the batch;
// only cancellation of ctx does.
func (c *Classifier) Files(ctx context.Context, paths []string) ([]DocumentResult, error) {
	results := make([]DocumentResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := c.File(path)
			if err != nil {
				c.logger.Warn().Err(err).Str("source", path).Msg("Skipping document")
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// Container returns the form enclosing n, or the document body when n is
// not inside a form. It is the container Document classifies n against.
func Container(doc *htmldom.Document, n dom.Node) dom.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.TagName() == "form" {
			return p
		}
	}
	return doc.Body()
}

func insideForm(n dom.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.TagName() == "form" {
			return true
		}
	}
	return false
}
