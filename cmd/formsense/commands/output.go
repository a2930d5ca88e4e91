package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vulntor/formsense/cmd/formsense/internal/format"
)

// newFormatter writes to the command's output streams. Color follows the
// terminal unless --no-color is set.
func newFormatter(cmd *cobra.Command, mode format.OutputMode) format.Formatter {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return format.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode, !noColor && !color.NoColor)
}
