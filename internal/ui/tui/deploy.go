package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
)

// DeployFunc runs the deployment, reporting progress through the notifier.
type DeployFunc func(ctx context.Context, notify orchestrate.Notify) (*orchestrate.Summary, error)

// RunDeployTUI wraps a deployment run with the live dashboard. The run
// executes in a background goroutine and streams its events into the
// program; quitting the dashboard mid-run cancels the run, so the returned
// summary covers whatever had finished by then.
func RunDeployTUI(ctx context.Context, platform, environment string, plan orchestrate.Plan, deploy DeployFunc) (*orchestrate.Summary, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewDeployModel(platform, environment, plan), tea.WithAltScreen())

	type outcome struct {
		summary *orchestrate.Summary
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		summary, err := deploy(runCtx, func(e orchestrate.Event) {
			p.Send(EventMsg{Event: e})
		})
		done <- outcome{summary, err}
		if err != nil {
			p.Send(ErrMsg{Err: err})
			return
		}
		p.Send(DoneMsg{})
	}()

	finalModel, err := p.Run()
	cancel() // quitting early stops the run
	res := <-done

	if err != nil {
		return res.summary, fmt.Errorf("dashboard error: %w", err)
	}
	if fm, ok := finalModel.(Model); ok && fm.Err != nil && res.err == nil {
		res.err = fm.Err
	}
	return res.summary, res.err
}

// RenderSummary renders the run's final accounting. The dashboard runs on
// the alt screen, so the deploy command prints this afterwards to leave a
// record in the scrollback.
func RenderSummary(s *orchestrate.Summary) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Deployment summary"))
	b.WriteString(" ")
	if s.Success {
		b.WriteString(readyStyle.Render(s.String()))
	} else {
		b.WriteString(failedStyle.Render(s.String()))
	}
	b.WriteString("\n")

	for _, st := range s.States {
		icon, style := phaseIcon(st.Status, 0)
		line := fmt.Sprintf("  %s %s %s", style(icon), style(fmt.Sprintf("%-24s", st.Phase)), dimStyle.Render(string(st.Status)))
		if st.Err != nil {
			line += " " + failedStyle.Render(truncate(st.Err.Error(), 64))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}
