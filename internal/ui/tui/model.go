package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/ui/benchmarks"
)

// activityLimit bounds the activity log to the most recent entries.
const activityLimit = 6

// PhaseRow is one phase's display state, fed entirely by run events.
type PhaseRow struct {
	Name      string
	Optional  bool
	Status    orchestrate.Status
	Resources int
	Applied   int
	Checks    int
	ChecksOK  int
	Attempts  int
	Detail    string
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// ActivityEntry is one recent resource or check observation.
type ActivityEntry struct {
	Phase  string
	Text   string
	Failed bool
}

// Model is the Bubble Tea model for the deploy dashboard.
type Model struct {
	// Platform info
	Platform    string
	Environment string

	// Phase rows in plan order
	Phases []PhaseRow

	// Recent resource and check observations
	Activity []ActivityEntry

	// Final run accounting, from the run.completed event
	Summary string

	// ETA
	EstimatedRemaining time.Duration
	PerformanceScale   float64
	StartTime          time.Time

	// Animation
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool
}

// NewDeployModel creates a dashboard model with every plan phase Pending.
func NewDeployModel(platform, environment string, plan orchestrate.Plan) Model {
	rows := make([]PhaseRow, 0, len(plan))
	for _, phase := range plan {
		rows = append(rows, PhaseRow{
			Name:      phase.Name,
			Optional:  phase.Optional,
			Status:    orchestrate.StatusPending,
			Resources: phase.ResourceCount(),
			Checks:    len(phase.Checks),
		})
	}
	return Model{
		Platform:         platform,
		Environment:      environment,
		Phases:           rows,
		StartTime:        time.Now(),
		PerformanceScale: 1.0,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case EventMsg:
		m.applyEvent(msg.Event)

	case TickMsg:
		m.SpinnerFrame++
		m.updateETA()
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// applyEvent folds one orchestrator event into the display state.
func (m *Model) applyEvent(ev orchestrate.Event) {
	if ev.Type == orchestrate.EventRunCompleted {
		m.Summary = ev.Message
		return
	}

	row := m.row(ev.Phase)
	if row == nil {
		return
	}

	switch ev.Type {
	case orchestrate.EventPhaseStarted:
		row.Status = orchestrate.StatusApplying
		row.StartedAt = ev.Time
		row.Detail = ev.Message

	case orchestrate.EventResourceApplied:
		row.Applied++
		m.record(ev.Phase, ev.Subject+" "+ev.Message, false)

	case orchestrate.EventResourceFailed:
		row.Attempts++
		row.Detail = ev.Subject + ": " + ev.Message
		m.record(ev.Phase, ev.Subject+" "+ev.Message, true)

	case orchestrate.EventResourceDeleted:
		m.record(ev.Phase, ev.Subject+" deleted", false)

	case orchestrate.EventConflictRecovered:
		row.Detail = ev.Subject + ": recreating"
		m.record(ev.Phase, ev.Subject+" conflict, recreating", true)

	case orchestrate.EventGateWaiting:
		row.Status = orchestrate.StatusWaiting
		row.Detail = ev.Message

	case orchestrate.EventCheckSatisfied:
		row.ChecksOK++
		m.record(ev.Phase, "check "+ev.Subject+": "+ev.Message, false)

	case orchestrate.EventCheckTimedOut:
		row.Detail = ev.Subject + ": " + ev.Message
		m.record(ev.Phase, "check "+ev.Subject+" timed out", ev.Err != nil)

	case orchestrate.EventPhaseSucceeded:
		m.finishRow(row, orchestrate.StatusSucceeded, ev)
		row.Detail = ""

	case orchestrate.EventPhaseFailed:
		m.finishRow(row, orchestrate.StatusFailed, ev)

	case orchestrate.EventPhaseFatal:
		m.finishRow(row, orchestrate.StatusFatal, ev)

	case orchestrate.EventPhaseSkipped:
		row.Status = orchestrate.StatusSkipped
		row.Detail = "blocked by " + ev.Subject
	}
}

func (m *Model) finishRow(row *PhaseRow, status orchestrate.Status, ev orchestrate.Event) {
	row.Status = status
	row.Err = ev.Err
	if !row.StartedAt.IsZero() {
		row.Duration = ev.Time.Sub(row.StartedAt)
	}
	if ev.Err != nil {
		m.record(row.Name, ev.Err.Error(), true)
	}
}

func (m *Model) row(phase string) *PhaseRow {
	for i := range m.Phases {
		if m.Phases[i].Name == phase {
			return &m.Phases[i]
		}
	}
	return nil
}

func (m *Model) record(phase, text string, failed bool) {
	m.Activity = append(m.Activity, ActivityEntry{Phase: phase, Text: text, Failed: failed})
	if len(m.Activity) > activityLimit {
		m.Activity = m.Activity[len(m.Activity)-activityLimit:]
	}
}

func (m *Model) updateETA() {
	if m.Done {
		m.EstimatedRemaining = 0
		return
	}

	now := time.Now()
	states := make([]orchestrate.ExecutionState, len(m.Phases))
	for i, row := range m.Phases {
		states[i] = orchestrate.ExecutionState{
			Phase:    row.Name,
			Status:   row.Status,
			Started:  row.StartedAt,
			Finished: row.StartedAt.Add(row.Duration),
		}
	}

	m.PerformanceScale = benchmarks.PerformanceScale(states, now)
	m.EstimatedRemaining = benchmarks.EstimateRemainingWithScale(states, now, m.PerformanceScale)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
