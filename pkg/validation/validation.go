// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package validation scores the matching engine against HTML documents
// whose inputs carry their expected subtype in data-manual-scoring.
package validation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vulntor/formsense/pkg/classify"
	"github.com/vulntor/formsense/pkg/fieldtype"
	"github.com/vulntor/formsense/pkg/matching"
	"github.com/vulntor/formsense/pkg/telemetry"
)

// Case is the outcome of one scored input.
type Case struct {
	File      string        `json:"file"`
	FormIndex int           `json:"form_index"`
	Index     int           `json:"index"`
	FieldID   string        `json:"field_id,omitempty"`
	FieldName string        `json:"field_name,omitempty"`
	Expected  string        `json:"expected"`
	Actual    string        `json:"actual"`
	Label     string        `json:"label"`
	Correct   bool          `json:"correct"`
	Duration  time.Duration `json:"duration_ns"`
}

// FileError records a corpus document that could not be scored.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Report is the result of a validation run.
type Report struct {
	Metrics *Metrics    `json:"metrics"`
	Cases   []Case      `json:"cases"`
	Errors  []FileError `json:"errors,omitempty"`
}

// Err returns nil when the run passed, ErrNoCases for an empty corpus and
// a matching.ErrThresholdFailed error otherwise.
func (r *Report) Err() error {
	switch {
	case r.Metrics.Total == 0:
		return ErrNoCases
	case !r.Metrics.Passed:
		return matching.NewThresholdError(r.Metrics.Accuracy, r.Metrics.MinAccuracy)
	}
	return nil
}

// Failures returns the incorrect cases.
func (r *Report) Failures() []Case {
	var out []Case
	for _, c := range r.Cases {
		if !c.Correct {
			out = append(out, c)
		}
	}
	return out
}

// Options controls a Runner.
type Options struct {
	MinAccuracy float64
	Workers     int
	// Telemetry, when set, receives one record per scored input and
	// provides the run ID.
	Telemetry *telemetry.Writer
}

// Runner executes validation runs against an engine source.
type Runner struct {
	source classify.EngineSource
	opts   Options
	logger zerolog.Logger
}

// NewRunner creates a runner. Every document of a run is classified with
// the engine source yields at the start of the run.
func NewRunner(source classify.EngineSource, opts Options, logger zerolog.Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = classify.DefaultWorkers
	}
	return &Runner{
		source: source,
		opts:   opts,
		logger: logger.With().Str("component", "validation").Logger(),
	}
}

// Run classifies every entry and computes metrics. Unreadable documents
// are reported in Report.Errors; only cancellation of ctx aborts the run.
func (r *Runner) Run(ctx context.Context, entries []Entry) (*Report, error) {
	runID := uuid.NewString()
	if r.opts.Telemetry != nil {
		runID = r.opts.Telemetry.RunID()
	}
	engine := classify.Static{E: r.source.Engine()}

	perEntry := make([][]Case, len(entries))
	errs := make([]*FileError, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := classify.New(engine, classify.Options{Login: entry.Login, Workers: 1}, r.logger)
			res, err := c.File(entry.Path)
			if err != nil {
				r.logger.Warn().Err(err).Str("file", entry.Path).Msg("Skipping corpus document")
				errs[i] = &FileError{File: entry.Path, Error: err.Error()}
				return nil
			}
			perEntry[i] = r.score(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{}
	for i := range entries {
		report.Cases = append(report.Cases, perEntry[i]...)
		if errs[i] != nil {
			report.Errors = append(report.Errors, *errs[i])
		}
	}
	report.Metrics = CalculateMetrics(report.Cases, r.opts.MinAccuracy)
	report.Metrics.RunID = runID

	r.logger.Info().
		Str("run_id", runID).
		Int("cases", report.Metrics.Total).
		Float64("accuracy", report.Metrics.Accuracy).
		Bool("passed", report.Metrics.Passed).
		Msg("Validation run finished")
	return report, nil
}

func (r *Runner) score(res classify.DocumentResult) []Case {
	cases := make([]Case, 0, len(res.Fields))
	for _, f := range res.Fields {
		expected := f.Expected
		if expected == "" {
			expected = fieldtype.LabelUnknown
		}
		cases = append(cases, Case{
			File:      res.Source,
			FormIndex: f.FormIndex,
			Index:     f.Index,
			FieldID:   f.ID,
			FieldName: f.Name,
			Expected:  expected,
			Actual:    f.Subtype,
			Label:     f.Label,
			Correct:   expected == f.Subtype,
			Duration:  f.Duration,
		})
		if r.opts.Telemetry != nil {
			if err := r.opts.Telemetry.WriteField(f, expected); err != nil {
				r.logger.Warn().Err(err).Msg("Telemetry write failed")
			}
		}
	}
	return cases
}
