package engine

import (
	"github.com/clerkdesk/agenda-report/internal/domain/entities"
)

// EventKind distinguishes the progress events a run produces.
type EventKind string

const (
	// EventStateChanged reports a run state machine transition.
	EventStateChanged EventKind = "state_changed"

	// EventPassStarted reports the start of one model invocation.
	EventPassStarted EventKind = "pass_started"

	// EventToken delivers one streamed content chunk, already filtered of
	// think-tag ranges.
	EventToken EventKind = "token"

	// EventPassCompleted reports one finished invocation with its metrics.
	EventPassCompleted EventKind = "pass_completed"

	// EventItemSkipped reports a pass-1 item failure consumed by the
	// skip-and-continue policy.
	EventItemSkipped EventKind = "item_skipped"
)

// Event is one element of the run's progress stream. Consumers read the
// channel until it closes; backpressure is bounded by the single in-flight
// model call.
type Event struct {
	Kind      EventKind
	State     entities.RunState
	Pass      int
	ItemIndex int // -1 when the event is not item-scoped
	Token     string
	Result    *entities.PassResult
	Err       error
}

func stateEvent(state entities.RunState) Event {
	return Event{Kind: EventStateChanged, State: state, ItemIndex: -1}
}
