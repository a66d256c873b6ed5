package orchestrate

import "time"

// EventType categorizes run events for rendering and logging.
type EventType string

const (
	EventPhaseStarted      EventType = "phase.started"
	EventPhaseSucceeded    EventType = "phase.succeeded"
	EventPhaseFailed       EventType = "phase.failed"
	EventPhaseFatal        EventType = "phase.fatal"
	EventPhaseSkipped      EventType = "phase.skipped"
	EventResourceApplied   EventType = "resource.applied"
	EventResourceFailed    EventType = "resource.failed"
	EventResourceDeleted   EventType = "resource.deleted"
	EventConflictRecovered EventType = "resource.conflict_recovered"
	EventGateWaiting       EventType = "gate.waiting"
	EventCheckSatisfied    EventType = "gate.check_satisfied"
	EventCheckTimedOut     EventType = "gate.check_timed_out"
	EventRunCompleted      EventType = "run.completed"
)

// Event is one observable occurrence during a run. Events are advisory; the
// tracker remains the source of truth for phase state.
type Event struct {
	Time    time.Time
	Type    EventType
	Phase   string
	Subject string
	Message string
	Err     error
}

// Notify receives run events. Implementations must be fast and non-blocking;
// they are called inline from the executor and gate.
type Notify func(Event)

// emit builds an event and hands it to the notifier, if any.
func emit(notify Notify, eventType EventType, phase, subject, message string, err error) {
	if notify == nil {
		return
	}
	notify(Event{
		Time:    time.Now(),
		Type:    eventType,
		Phase:   phase,
		Subject: subject,
		Message: message,
		Err:     err,
	})
}
