package commands

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/formsense/cmd/formsense/internal/bind"
	"github.com/vulntor/formsense/cmd/formsense/internal/format"
	"github.com/vulntor/formsense/pkg/stringutil"
	"github.com/vulntor/formsense/pkg/telemetry"
	"github.com/vulntor/formsense/pkg/validation"
)

// NewValidateCommand scores the engine against labelled HTML corpora.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <corpus-dir|file.html>...",
		Short: "Measure classification accuracy on labelled HTML fixtures",
		Long: `Classify every input of the corpus and compare the subtype with the
data-manual-scoring attribute. Inputs without the attribute are expected to
be unknown. A directory is read through its corpus.yaml manifest when it
has one, otherwise every .html and .htm file below it is used.

The command fails when accuracy is below validation.min_accuracy.`,
		Example: `  formsense validate testdata/corpus
  formsense validate --min-accuracy 0.95 --output json corpus/`,
		GroupID: "match",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadedConfig(cmd)
			opts, err := bind.BindValidateOptions(cmd, cfg)
			if err != nil {
				return err
			}

			entries, err := validation.ResolveCorpus(args)
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

			runner := validation.NewRunner(provider, validation.Options{
				MinAccuracy: opts.MinAccuracy,
				Workers:     opts.Workers,
				Telemetry:   tw,
			}, log.Logger)

			report, err := runner.Run(cmd.Context(), entries)
			if err != nil {
				return err
			}
			if err := printReport(newFormatter(cmd, opts.Output), report); err != nil {
				return err
			}
			return report.Err()
		},
	}

	cmd.Flags().Float64("min-accuracy", 0.9, "Minimum accuracy (0..1) for the run to pass")
	cmd.Flags().StringP("output", "o", "table", "Output format: json | table")
	cmd.Flags().Int("workers", 4, "Number of documents classified concurrently")
	cmd.Flags().String("telemetry", "", "Append one JSONL record per scored field to this file")

	return cmd
}

func printReport(out format.Formatter, report *validation.Report) error {
	m := report.Metrics
	if out.Mode() == format.ModeJSON {
		if err := out.PrintJSON(report); err != nil {
			return err
		}
		return out.PrintBanner(headline(m), m.Passed)
	}

	if err := out.PrintBanner(headline(m), m.Passed); err != nil {
		return err
	}

	if len(m.PerSubtype) > 0 {
		rows := make([][]string, 0, len(m.PerSubtype))
		for _, s := range m.PerSubtype {
			rows = append(rows, []string{
				s.Subtype,
				strconv.Itoa(s.TruePositives),
				strconv.Itoa(s.FalsePositives),
				strconv.Itoa(s.FalseNegatives),
				format.Percent(s.Precision),
				format.Percent(s.Recall),
				format.Percent(s.F1Score),
			})
		}
		if err := out.PrintTable([]string{"subtype", "tp", "fp", "fn", "precision", "recall", "f1"}, rows); err != nil {
			return err
		}
	}

	if failures := report.Failures(); len(failures) > 0 {
		rows := make([][]string, 0, len(failures))
		for _, c := range failures {
			field := c.FieldID
			if field == "" {
				field = c.FieldName
			}
			rows = append(rows, []string{c.File, strconv.Itoa(c.FormIndex), format.Dash(stringutil.Ellipsis(field, cellWidth)), c.Expected, c.Actual})
		}
		if err := out.PrintSummary("\nMisclassified fields:"); err != nil {
			return err
		}
		if err := out.PrintTable([]string{"file", "form", "field", "expected", "actual"}, rows); err != nil {
			return err
		}
	}

	for _, fe := range report.Errors {
		if err := out.PrintSummary(fmt.Sprintf("skipped %s: %s", fe.File, fe.Error)); err != nil {
			return err
		}
	}

	return out.PrintSummary(fmt.Sprintf("run %s: macro F1 %s, %.3f ms per field", m.RunID, format.Percent(m.MacroF1), m.AvgTimeMs))
}

func headline(m *validation.Metrics) string {
	return fmt.Sprintf("accuracy %s (%d/%d), minimum %s",
		format.Percent(m.Accuracy), m.Correct, m.Total, format.Percent(m.MinAccuracy))
}
