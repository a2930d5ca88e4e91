package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vulntor/formsense/cmd/formsense/internal/format"
	v "github.com/vulntor/formsense/pkg/version"
)

// NewVersionCommand prints build metadata.
func NewVersionCommand() *cobra.Command {
	var (
		short  bool
		output string
	)

	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := v.Get()
			w := cmd.OutOrStdout()

			if short {
				_, err := fmt.Fprintln(w, info.Version)
				return err
			}
			if err := format.ValidateMode(output); err != nil {
				return err
			}
			if format.ParseMode(output) == format.ModeJSON {
				return newFormatter(cmd, format.ModeJSON).PrintJSON(info)
			}

			_, err := fmt.Fprintf(w, "%s version: %s\nCommit: %s\nBuild Date: %s\nRules Schema: %s\n",
				cliExecutable, info.Version, info.Commit, info.BuildDate, info.RulesSchema)
			return err
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: json | table")

	return cmd
}
