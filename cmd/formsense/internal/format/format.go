// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// OutputMode defines the output format for CLI commands
type OutputMode string

const (
	// ModeJSON outputs data as JSON
	ModeJSON OutputMode = "json"
	// ModeTable outputs data as aligned text tables
	ModeTable OutputMode = "table"
)

// Formatter provides consistent output formatting across CLI commands
type Formatter interface {
	// Mode returns the output mode the formatter was created with.
	Mode() OutputMode

	// PrintJSON outputs data as JSON to stdout
	PrintJSON(data any) error

	// PrintTable outputs rows under headers, or an array of objects in JSON mode
	PrintTable(headers []string, rows [][]string) error

	// PrintSummary outputs a summary message (stderr in JSON mode)
	PrintSummary(message string) error

	// PrintBanner outputs a framed pass/fail headline (stderr in JSON mode)
	PrintBanner(title string, ok bool) error

	// PrintError outputs an error to stderr (or JSON to stdout in JSON mode)
	PrintError(err error, suggestions []string) error
}

type formatter struct {
	stdout io.Writer
	stderr io.Writer
	mode   OutputMode
	color  bool
}

// New creates a new Formatter
func New(stdout, stderr io.Writer, mode OutputMode, color bool) Formatter {
	return &formatter{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		color:  color,
	}
}

func (f *formatter) Mode() OutputMode { return f.mode }

func (f *formatter) PrintJSON(data any) error {
	enc := json.NewEncoder(f.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *formatter) PrintTable(headers []string, rows [][]string) error {
	if f.mode == ModeJSON {
		items := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			item := make(map[string]string, len(headers))
			for i, header := range headers {
				if i < len(row) {
					item[header] = row[i]
				}
			}
			items = append(items, item)
		}
		return f.PrintJSON(items)
	}

	w := tabwriter.NewWriter(f.stdout, 0, 0, 2, ' ', 0)

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = strings.ToUpper(h)
		if f.color {
			headerLine[i] = color.New(color.Bold).Sprint(headerLine[i])
		}
	}
	if _, err := fmt.Fprintln(w, strings.Join(headerLine, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return w.Flush()
}

func (f *formatter) PrintSummary(message string) error {
	if f.mode == ModeJSON {
		// stdout carries the JSON document only
		_, err := fmt.Fprintln(f.stderr, message)
		return err
	}

	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}

	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

func (f *formatter) PrintBanner(title string, ok bool) error {
	out := f.stdout
	if f.mode == ModeJSON {
		out = f.stderr
	}
	_, err := fmt.Fprintln(out, Banner(title, ok, f.color))
	return err
}

func (f *formatter) PrintError(err error, suggestions []string) error {
	if err == nil {
		return nil
	}

	if f.mode == ModeJSON {
		payload := map[string]any{
			"success": false,
			"error":   err.Error(),
		}
		if len(suggestions) > 0 {
			payload["suggestions"] = suggestions
		}
		return f.PrintJSON(payload)
	}

	var writeErr error
	if f.color {
		_, writeErr = color.New(color.FgRed).Fprintf(f.stderr, "Error: %v\n", err)
	} else {
		_, writeErr = fmt.Fprintf(f.stderr, "Error: %v\n", err)
	}
	if writeErr != nil {
		return writeErr
	}

	if len(suggestions) > 0 {
		if _, err := fmt.Fprintln(f.stderr, "\nSuggestions:"); err != nil {
			return err
		}
		for _, s := range suggestions {
			if _, err := fmt.Fprintf(f.stderr, "  - %s\n", s); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateMode checks if the output mode is valid
func ValidateMode(mode string) error {
	switch OutputMode(strings.ToLower(mode)) {
	case ModeJSON, ModeTable:
		return nil
	default:
		return fmt.Errorf("invalid output mode: %s (must be 'json' or 'table')", mode)
	}
}

// ParseMode converts a string to OutputMode
func ParseMode(mode string) OutputMode {
	switch strings.ToLower(mode) {
	case "json":
		return ModeJSON
	default:
		return ModeTable
	}
}

// Percent renders a 0..1 ratio as a percentage with two decimals.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

// YesNo renders a flag for table cells.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Dash replaces an empty cell.
func Dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
