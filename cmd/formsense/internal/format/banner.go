package format

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	passStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")). // Green
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(0, 1)

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9")). // Red
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1)

	plainStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

// Banner frames title in a box prefixed with PASS or FAIL, colored green
// or red by ok when color is on.
func Banner(title string, ok bool, color bool) string {
	prefix := "✓ PASS "
	if !ok {
		prefix = "✗ FAIL "
	}
	if !color {
		return plainStyle.Render(prefix + title)
	}
	if ok {
		return passStyle.Render(prefix + title)
	}
	return failStyle.Render(prefix + title)
}
