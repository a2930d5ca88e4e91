package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vulntor/formsense/cmd/formsense/internal/bind"
	"github.com/vulntor/formsense/cmd/formsense/internal/format"
	"github.com/vulntor/formsense/pkg/classify"
	"github.com/vulntor/formsense/pkg/dom/htmldom"
	"github.com/vulntor/formsense/pkg/matching"
)

// NewExplainCommand prints the strategy trace behind one field's type.
func NewExplainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <file.html>",
		Short: "Show every strategy evaluated to classify one field",
		Example: `  formsense explain signup.html --field '#mail'
  formsense explain login.html --field 'input[name=email]' --login`,
		GroupID: "match",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadedConfig(cmd)
			opts, err := bind.BindExplainOptions(cmd, cfg)
			if err != nil {
				return err
			}
			if err := htmldom.Valid(opts.Field); err != nil {
				return fmt.Errorf("invalid --field selector %q: %w", opts.Field, err)
			}

			provider, err := loadProvider(cmd, opts.Rules, cfg)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			doc, err := htmldom.Parse(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			matches := doc.QuerySelectorAll(opts.Field)
			if len(matches) == 0 {
				return fmt.Errorf("no element matches %q in %s", opts.Field, args[0])
			}
			el := matches[0]
			form := classify.Container(doc, el)

			tr := provider.Engine().Explain(el, form, matching.InferOptions{IsLogin: opts.Login})
			return printTrace(newFormatter(cmd, opts.Output), tr)
		},
	}

	cmd.Flags().String("field", "", "CSS selector of the field to explain (first match is used)")
	cmd.Flags().Bool("login", false, "Classify the form as a login form")
	cmd.Flags().StringP("output", "o", "table", "Output format: json | table")

	return cmd
}

func printTrace(out format.Formatter, tr matching.Trace) error {
	if out.Mode() == format.ModeJSON {
		return out.PrintJSON(tr)
	}

	rows := make([][]string, 0, len(tr.Steps))
	for i, step := range tr.Steps {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			step.List,
			string(step.Field),
			step.Kind,
			step.Name,
			step.Outcome.String(),
		})
	}
	if len(rows) > 0 {
		if err := out.PrintTable([]string{"step", "list", "field", "kind", "name", "outcome"}, rows); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("type: %s", tr.Label)
	switch deciding, ok := tr.Deciding(); {
	case tr.Preset:
		summary += " (preset on the element)"
	case ok:
		summary += fmt.Sprintf(" (decided by %s %s %q)", deciding.List, deciding.Kind, deciding.Name)
	}
	if tr.CCForm {
		summary += ", credit card form"
	}
	return out.PrintSummary(summary)
}
