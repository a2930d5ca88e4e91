package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/formsense/cmd/formsense/internal/bind"
	"github.com/vulntor/formsense/cmd/formsense/internal/format"
	"github.com/vulntor/formsense/pkg/classify"
	"github.com/vulntor/formsense/pkg/logging"
	"github.com/vulntor/formsense/pkg/matching"
	"github.com/vulntor/formsense/pkg/stringutil"
	"github.com/vulntor/formsense/pkg/telemetry"
)

// NewClassifyCommand classifies every input of one or more HTML documents.
func NewClassifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <file.html>...",
		Short: "Classify every input field of HTML documents",
		Long: `Classify every input of every form, then the inputs outside any form.

With --set the type markers are written onto the inputs and the decorated
HTML is printed instead of the result table.`,
		Example: `  formsense classify signup.html
  formsense classify --login --output json login.html
  formsense classify --rules rules.yaml --watch page.html`,
		GroupID: "match",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadedConfig(cmd)
			opts, err := bind.BindClassifyOptions(cmd, cfg)
			if err != nil {
				return err
			}

			provider, err := loadProvider(cmd, opts.Rules, cfg)
			if err != nil {
				return err
			}

			tw, err := telemetry.NewWriter(opts.Telemetry, "")
			if err != nil {
				return err
			}
			defer func() { _ = tw.Close() }()

			c := classify.New(provider, classify.Options{
				Login:   opts.Login,
				Set:     opts.Set,
				Workers: opts.Workers,
			}, log.Logger)
			if tw.IsEnabled() {
				c.Observe(tw.Observer(logging.Component("telemetry")))
			}

			out := newFormatter(cmd, opts.Output)
			run := func(ctx context.Context) error {
				results, err := c.Files(ctx, args)
				if err != nil {
					return err
				}
				return printClassification(cmd, out, results, opts.Set)
			}

			if err := run(cmd.Context()); err != nil {
				return err
			}
			if !opts.Watch {
				return nil
			}
			return watchRules(cmd.Context(), provider, opts.Debounce, run)
		},
	}

	cmd.Flags().Bool("login", false, "Classify forms as login forms (email fields become usernames)")
	cmd.Flags().Bool("set", false, "Write type markers onto the inputs and print the decorated HTML")
	cmd.Flags().StringP("output", "o", "table", "Output format: json | table")
	cmd.Flags().Int("workers", 4, "Number of documents classified concurrently")
	cmd.Flags().Bool("watch", false, "Reclassify whenever the rules file changes")
	cmd.Flags().String("telemetry", "", "Append one JSONL record per classified field to this file")

	return cmd
}

func printClassification(cmd *cobra.Command, out format.Formatter, results []classify.DocumentResult, set bool) error {
	var failed []error
	for _, res := range results {
		if res.Error != "" {
			failed = append(failed, errors.New(res.Error))
		}
	}

	switch {
	case set:
		for _, res := range results {
			if res.Error != "" {
				continue
			}
			if len(results) > 1 {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "<!-- %s -->\n", res.Source); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), res.HTML); err != nil {
				return err
			}
		}
	case out.Mode() == format.ModeJSON:
		if err := out.PrintJSON(results); err != nil {
			return err
		}
	default:
		if err := out.PrintTable(
			[]string{"source", "form", "input", "id", "name", "type", "preset"},
			classificationRows(results),
		); err != nil {
			return err
		}
		fields, forms := 0, 0
		for _, res := range results {
			fields += len(res.Fields)
			forms += res.Forms
		}
		if err := out.PrintSummary(fmt.Sprintf("%d fields in %d forms across %d documents", fields, forms, len(results)-len(failed))); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d documents could not be classified: %w", len(failed), len(results), errors.Join(failed...))
	}
	return nil
}

// cellWidth bounds free-text table cells such as ids and names.
const cellWidth = 32

func classificationRows(results []classify.DocumentResult) [][]string {
	var rows [][]string
	for _, res := range results {
		for _, f := range res.Fields {
			form := "-"
			if f.FormIndex != classify.NoForm {
				form = strconv.Itoa(f.FormIndex)
			}
			preset := ""
			if f.Preset {
				preset = "yes"
			}
			rows = append(rows, []string{
				res.Source,
				form,
				strconv.Itoa(f.Index),
				format.Dash(stringutil.Ellipsis(f.ID, cellWidth)),
				format.Dash(stringutil.Ellipsis(f.Name, cellWidth)),
				f.Label,
				preset,
			})
		}
	}
	return rows
}

// watchRules reruns fn after every successful reload of the provider's
// rules file until ctx is canceled.
func watchRules(ctx context.Context, provider *matching.Provider, debounce time.Duration, fn func(context.Context) error) error {
	watcher, err := matching.NewRulesWatcher(provider, debounce, log.Logger)
	if err != nil {
		return err
	}

	reloads := make(chan struct{}, 1)
	provider.OnReload(func(*matching.Engine) {
		select {
		case reloads <- struct{}{}:
		default:
		}
	})

	done := make(chan error, 1)
	go func() { done <- watcher.Start(ctx) }()

	for {
		select {
		case err := <-done:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case <-reloads:
			if err := fn(ctx); err != nil {
				log.Warn().Err(err).Msg("Reclassification after rules reload failed")
			}
		}
	}
}
