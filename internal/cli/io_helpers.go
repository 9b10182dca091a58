package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ogre-mesh-tools/internal/batch"
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stdinIsTTY() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// renderSummary styles the batch summary for terminal display. The underlying
// Summary stays the stable machine-readable form.
func renderSummary(s batch.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "processed %d file(s): %s, %s",
		s.TotalItems,
		okStyle.Render(fmt.Sprintf("%d succeeded", s.TotalSucceeded)),
		failStyle.Render(fmt.Sprintf("%d failed", s.TotalFailed)))
	if s.PartialSucceeded > 0 {
		fmt.Fprintf(&b, " (%s)", partialStyle.Render(fmt.Sprintf("%d partial", s.PartialSucceeded)))
	}
	b.WriteString("\n")
	for _, item := range s.Items {
		var standing string
		switch item.Standing {
		case batch.StandingSucceeded:
			standing = okStyle.Render(item.Standing)
		case batch.StandingPartial:
			standing = partialStyle.Render(item.Standing)
		default:
			standing = failStyle.Render(item.Standing)
		}
		fmt.Fprintf(&b, "  %s  %s\n", standing, item.InputPath)
		for _, f := range item.Failures {
			fmt.Fprintf(&b, "      %s\n", mutedStyle.Render(f))
		}
	}
	return b.String()
}
