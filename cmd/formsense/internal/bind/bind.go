// Package bind turns command flags and the loaded configuration into the
// option structs the commands run with. A flag the user set wins over the
// configuration value.
package bind

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vulntor/formsense/cmd/formsense/internal/format"
	"github.com/vulntor/formsense/pkg/config"
)

// ClassifyOptions holds configuration options for the classify command.
type ClassifyOptions struct {
	Rules     string
	Login     bool
	Set       bool
	Output    format.OutputMode
	Workers   int
	Watch     bool
	Debounce  time.Duration
	Telemetry string
}

// BindClassifyOptions extracts and validates classify command flags.
//
// Flags read:
//   - --rules: matching rules file (falls back to matching.rules_file)
//   - --login: classify as login forms (falls back to matching.login)
//   - --set: write type markers and print the decorated HTML
//   - --output: json | table (falls back to classify.output)
//   - --workers: documents in flight (falls back to classify.workers)
//   - --watch: reclassify when the rules file changes
//   - --telemetry: JSONL file receiving one record per field
func BindClassifyOptions(cmd *cobra.Command, cfg config.Config) (ClassifyOptions, error) {
	flags := cmd.Flags()

	opts := ClassifyOptions{
		Rules:     stringFlag(flags, "rules", cfg.Matching.RulesFile),
		Login:     boolFlag(flags, "login", cfg.Matching.Login),
		Set:       boolFlag(flags, "set", false),
		Workers:   intFlag(flags, "workers", cfg.Classify.Workers),
		Watch:     boolFlag(flags, "watch", false),
		Debounce:  cfg.Watch.Debounce,
		Telemetry: stringFlag(flags, "telemetry", ""),
	}

	output, err := outputFlag(flags, cfg.Classify.Output)
	if err != nil {
		return opts, err
	}
	opts.Output = output

	if opts.Workers < 1 {
		return opts, fmt.Errorf("--workers must be at least 1 (got %d)", opts.Workers)
	}
	if opts.Watch && opts.Rules == "" {
		return opts, fmt.Errorf("--watch requires a rules file (--rules or matching.rules_file)")
	}
	return opts, nil
}

// ExplainOptions holds configuration options for the explain command.
type ExplainOptions struct {
	Rules  string
	Field  string
	Login  bool
	Output format.OutputMode
}

// BindExplainOptions extracts and validates explain command flags.
func BindExplainOptions(cmd *cobra.Command, cfg config.Config) (ExplainOptions, error) {
	flags := cmd.Flags()

	opts := ExplainOptions{
		Rules: stringFlag(flags, "rules", cfg.Matching.RulesFile),
		Field: strings.TrimSpace(stringFlag(flags, "field", "")),
		Login: boolFlag(flags, "login", cfg.Matching.Login),
	}
	output, err := outputFlag(flags, cfg.Classify.Output)
	if err != nil {
		return opts, err
	}
	opts.Output = output

	if opts.Field == "" {
		return opts, fmt.Errorf("--field selector is required")
	}
	return opts, nil
}

// ValidateOptions holds configuration options for the validate command.
type ValidateOptions struct {
	Rules       string
	MinAccuracy float64
	Workers     int
	Output      format.OutputMode
	Telemetry   string
}

// BindValidateOptions extracts and validates validate command flags.
func BindValidateOptions(cmd *cobra.Command, cfg config.Config) (ValidateOptions, error) {
	flags := cmd.Flags()

	opts := ValidateOptions{
		Rules:       stringFlag(flags, "rules", cfg.Matching.RulesFile),
		MinAccuracy: float64Flag(flags, "min-accuracy", cfg.Validation.MinAccuracy),
		Workers:     intFlag(flags, "workers", cfg.Classify.Workers),
		Telemetry:   stringFlag(flags, "telemetry", cfg.Validation.TelemetryFile),
	}
	output, err := outputFlag(flags, cfg.Classify.Output)
	if err != nil {
		return opts, err
	}
	opts.Output = output

	if opts.MinAccuracy < 0 || opts.MinAccuracy > 1 {
		return opts, fmt.Errorf("--min-accuracy must be between 0 and 1 (got %g)", opts.MinAccuracy)
	}
	if opts.Workers < 1 {
		return opts, fmt.Errorf("--workers must be at least 1 (got %d)", opts.Workers)
	}
	return opts, nil
}

// RulesOptions holds configuration options for the rules subcommands.
type RulesOptions struct {
	Rules  string
	Format string
}

// BindRulesOptions extracts the rules file and dump format.
func BindRulesOptions(cmd *cobra.Command, cfg config.Config) (RulesOptions, error) {
	flags := cmd.Flags()

	opts := RulesOptions{
		Rules:  stringFlag(flags, "rules", cfg.Matching.RulesFile),
		Format: strings.ToLower(stringFlag(flags, "format", "json")),
	}
	switch opts.Format {
	case "json", "yaml":
	default:
		return opts, fmt.Errorf("invalid rules format: %s (must be 'json' or 'yaml')", opts.Format)
	}
	return opts, nil
}

func outputFlag(flags *pflag.FlagSet, fallback string) (format.OutputMode, error) {
	mode := stringFlag(flags, "output", fallback)
	if err := format.ValidateMode(mode); err != nil {
		return "", err
	}
	return format.ParseMode(mode), nil
}

// The helpers below return fallback unless the flag exists and was set.

func stringFlag(flags *pflag.FlagSet, name, fallback string) string {
	if !flags.Changed(name) {
		return fallback
	}
	v, _ := flags.GetString(name)
	return v
}

func boolFlag(flags *pflag.FlagSet, name string, fallback bool) bool {
	if !flags.Changed(name) {
		return fallback
	}
	v, _ := flags.GetBool(name)
	return v
}

func intFlag(flags *pflag.FlagSet, name string, fallback int) int {
	if !flags.Changed(name) {
		return fallback
	}
	v, _ := flags.GetInt(name)
	return v
}

func float64Flag(flags *pflag.FlagSet, name string, fallback float64) float64 {
	if !flags.Changed(name) {
		return fallback
	}
	v, _ := flags.GetFloat64(name)
	return v
}
