// Package tui provides the Bubble Tea dashboard for live deployment runs.
package tui

import "github.com/anhhoangdev/ldpctl/internal/orchestrate"

// EventMsg carries one orchestrator event into the dashboard.
type EventMsg struct {
	Event orchestrate.Event
}

// TickMsg is sent periodically to refresh spinners, elapsed times and the ETA.
type TickMsg struct{}

// ErrMsg carries a run-level error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the run is complete.
type DoneMsg struct{}
