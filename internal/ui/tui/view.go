package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/ui/benchmarks"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)
	renderPhases(&b, m)

	if len(m.Activity) > 0 {
		renderActivity(&b, m)
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("ldpctl: %s", m.Platform)
	if m.Environment != "" {
		title += fmt.Sprintf(" (%s)", m.Environment)
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done && anyFailed(m):
		status += warningStyle.Render("Completed with failures")
	case m.Done:
		status += readyStyle.Render("Complete")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + warningStyle.Render("Deploying")
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := calculateProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}
	filled := int(float64(barWidth) * progress)
	if filled > barWidth {
		filled = barWidth
	}

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	pct := int(progress * 100)
	eta := ""
	if m.EstimatedRemaining > 0 && !m.Done {
		eta = fmt.Sprintf(" ETA %s", formatDuration(m.EstimatedRemaining))
	}
	if m.PerformanceScale != 0 && m.PerformanceScale != 1.0 {
		eta += fmt.Sprintf("  speed x%.2f", m.PerformanceScale)
	}

	fmt.Fprintf(b, "  %s %d%%%s\n", bar, pct, eta)
}

func renderPhases(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Phases"))
	b.WriteString("\n")

	for _, row := range m.Phases {
		icon, style := phaseIcon(row.Status, m.SpinnerFrame)

		name := row.Name
		if row.Optional {
			name += " (optional)"
		}

		counts := ""
		if row.Resources > 0 {
			counts += fmt.Sprintf(" %d/%d resources", row.Applied, row.Resources)
		}
		if row.Checks > 0 {
			counts += fmt.Sprintf(" %d/%d checks", row.ChecksOK, row.Checks)
		}
		if row.Attempts > 0 {
			counts += sf(warningStyle)(fmt.Sprintf(" (retry %d)", row.Attempts))
		}

		fmt.Fprintf(b, "    %s %s%s %s%s\n",
			style(icon),
			style(fmt.Sprintf("%-24s", name)),
			counts,
			phaseTrailer(row),
			phaseMiniBar(m, row),
		)
	}
}

// phaseTrailer renders the row's right-hand detail: duration for finished
// phases, the failure for broken ones, the gate detail while waiting.
func phaseTrailer(row PhaseRow) string {
	switch row.Status {
	case orchestrate.StatusSucceeded:
		return dimStyle.Render(formatDuration(row.Duration))
	case orchestrate.StatusFailed, orchestrate.StatusFatal:
		if row.Err != nil {
			return failedStyle.Render(truncate(row.Err.Error(), 48))
		}
		return failedStyle.Render(strings.ToLower(string(row.Status)))
	case orchestrate.StatusSkipped:
		return dimStyle.Render(row.Detail)
	case orchestrate.StatusApplying, orchestrate.StatusWaiting:
		return dimStyle.Render(truncate(row.Detail, 48))
	default:
		return ""
	}
}

// phaseMiniBar renders a small elapsed-vs-expected bar for active phases.
func phaseMiniBar(m Model, row PhaseRow) string {
	if row.Status != orchestrate.StatusApplying && row.Status != orchestrate.StatusWaiting {
		return ""
	}
	if row.StartedAt.IsZero() {
		return ""
	}

	expected, ok := benchmarks.PhaseExpectedDuration(row.Name)
	if !ok {
		return ""
	}
	if m.PerformanceScale > 0 {
		expected = time.Duration(float64(expected) * m.PerformanceScale)
	}

	progress := float64(time.Since(row.StartedAt)) / float64(expected)
	return " " + miniBar(progress)
}

func renderActivity(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Activity"))
	b.WriteString("\n")

	for _, entry := range m.Activity {
		style := sf(dimStyle)
		if entry.Failed {
			style = sf(failedStyle)
		}
		fmt.Fprintf(b, "    %s %s\n", dimStyle.Render("["+entry.Phase+"]"), style(truncate(entry.Text, 72)))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	parts := []string{fmt.Sprintf("elapsed: %s", elapsed)}
	if m.Summary != "" {
		parts = append(parts, m.Summary)
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("  %s  |  q: quit", strings.Join(parts, "  |  "))))
	b.WriteString("\n")
}

// Helper functions

func phaseIcon(status orchestrate.Status, frame int) (string, styleFunc) {
	switch status {
	case orchestrate.StatusSucceeded:
		return checkMark, sf(readyStyle)
	case orchestrate.StatusFailed, orchestrate.StatusFatal:
		return crossMark, sf(failedStyle)
	case orchestrate.StatusSkipped:
		return skipMark, sf(dimStyle)
	case orchestrate.StatusApplying, orchestrate.StatusWaiting:
		return currentSpinner(frame), sf(activeStyle)
	default:
		return pending, sf(dimStyle)
	}
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func miniBar(progress float64) string {
	const width = 10
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * width)
	if filled > width {
		filled = width
	}
	return progressBarFull.Render(strings.Repeat("█", filled)) + progressBarEmpty.Render(strings.Repeat("░", width-filled))
}

// calculateProgress weighs every phase by its benchmark duration: terminal
// phases count in full (nothing more will be spent on them), active ones get
// credit for elapsed time.
func calculateProgress(m Model) float64 {
	if m.Done {
		return 1.0
	}
	if len(m.Phases) == 0 {
		return 0
	}

	var total, spent time.Duration
	for _, row := range m.Phases {
		expected, ok := benchmarks.PhaseExpectedDuration(row.Name)
		if !ok {
			expected = time.Minute
		}
		total += expected

		switch row.Status {
		case orchestrate.StatusSucceeded, orchestrate.StatusFailed,
			orchestrate.StatusFatal, orchestrate.StatusSkipped:
			spent += expected
		case orchestrate.StatusApplying, orchestrate.StatusWaiting:
			if row.StartedAt.IsZero() {
				continue
			}
			if elapsed := time.Since(row.StartedAt); elapsed < expected {
				spent += elapsed
			} else {
				spent += expected
			}
		}
	}

	if total == 0 {
		return 0
	}
	progress := float64(spent) / float64(total)
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

func anyFailed(m Model) bool {
	for _, row := range m.Phases {
		if row.Status == orchestrate.StatusFailed || row.Status == orchestrate.StatusFatal {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
