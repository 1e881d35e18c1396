package entities

import (
	"time"

	"github.com/google/uuid"
)

// RunState is one state of the generation run machine:
// Idle → LoadingModel → Pass1Running(i of N) → Pass1Complete → Pass2Running →
// Pass2Complete → Idle, with Failed reachable from any running state and
// Cancelled a distinct terminal outcome.
type RunState string

const (
	RunStateIdle          RunState = "idle"
	RunStateLoadingModel  RunState = "loading_model"
	RunStatePass1Running  RunState = "pass1_running"
	RunStatePass1Complete RunState = "pass1_complete"
	RunStatePass2Running  RunState = "pass2_running"
	RunStatePass2Complete RunState = "pass2_complete"
	RunStateFailed        RunState = "failed"
	RunStateCancelled     RunState = "cancelled"
)

// Terminal reports whether the state ends a run.
func (s RunState) Terminal() bool {
	return s == RunStateFailed || s == RunStateCancelled || s == RunStatePass2Complete
}

// FailurePolicy decides what happens when pass 1 fails for a single item.
type FailurePolicy string

const (
	// FailurePolicyAbort stops the run on the first pass-1 failure. This is
	// the default: a silently degraded report is worse than no report.
	FailurePolicyAbort FailurePolicy = "abort"

	// FailurePolicySkip records the failure, leaves a placeholder section for
	// the item, and continues with the remaining items.
	FailurePolicySkip FailurePolicy = "skip"
)

// GenerationRun tracks one two-pass generation through its state machine.
type GenerationRun struct {
	ID          uuid.UUID  `json:"id"`
	State       RunState   `json:"state"`
	CurrentItem int        `json:"current_item"` // 1-based, pass 1 only
	TotalItems  int        `json:"total_items"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	LastError   *string    `json:"last_error,omitempty"`
}

// NewGenerationRun creates a run in the Idle state.
func NewGenerationRun(totalItems int) *GenerationRun {
	return &GenerationRun{
		ID:         uuid.New(),
		State:      RunStateIdle,
		TotalItems: totalItems,
		StartedAt:  time.Now(),
	}
}

// MarkLoadingModel transitions to LoadingModel.
func (r *GenerationRun) MarkLoadingModel() {
	r.State = RunStateLoadingModel
}

// MarkPass1Running transitions to Pass1Running for item i of N (1-based).
func (r *GenerationRun) MarkPass1Running(item int) {
	r.State = RunStatePass1Running
	r.CurrentItem = item
}

// MarkPass1Complete transitions to Pass1Complete.
func (r *GenerationRun) MarkPass1Complete() {
	r.State = RunStatePass1Complete
	r.CurrentItem = 0
}

// MarkPass2Running transitions to Pass2Running.
func (r *GenerationRun) MarkPass2Running() {
	r.State = RunStatePass2Running
}

// MarkPass2Complete transitions to Pass2Complete and stamps completion.
func (r *GenerationRun) MarkPass2Complete() {
	r.State = RunStatePass2Complete
	now := time.Now()
	r.CompletedAt = &now
}

// MarkFailed records the error and transitions to the Failed terminal state.
func (r *GenerationRun) MarkFailed(errMsg string) {
	r.State = RunStateFailed
	r.LastError = &errMsg
	now := time.Now()
	r.CompletedAt = &now
}

// MarkCancelled transitions to the Cancelled terminal state. Cancellation is
// a normal outcome, not a failure.
func (r *GenerationRun) MarkCancelled() {
	r.State = RunStateCancelled
	now := time.Now()
	r.CompletedAt = &now
}
