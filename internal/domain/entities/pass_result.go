package entities

import (
	"time"

	"github.com/google/uuid"
)

// PassResult holds the output of one model invocation, tagged with the pass
// it belongs to and, for pass 1, the agenda item it summarizes. Results are
// ephemeral and live only for the duration of a run.
type PassResult struct {
	RunID     uuid.UUID     `json:"run_id"`
	Pass      int           `json:"pass"`
	ItemIndex int           `json:"item_index"` // -1 for the aggregate pass
	Text      string        `json:"text"`
	Skipped   bool          `json:"skipped"`
	Tokens    int           `json:"tokens"`
	Duration  time.Duration `json:"duration"`
}

// NewPassResult tags a completed invocation with its pass and item context.
func NewPassResult(runID uuid.UUID, pass, itemIndex int, text string) PassResult {
	return PassResult{
		RunID:     runID,
		Pass:      pass,
		ItemIndex: itemIndex,
		Text:      text,
	}
}

// NewSkippedResult records a pass-1 item that failed under the
// skip-and-continue policy. Its text is a literal placeholder, never model
// output.
func NewSkippedResult(runID uuid.UUID, itemIndex int) PassResult {
	return PassResult{
		RunID:     runID,
		Pass:      1,
		ItemIndex: itemIndex,
		Skipped:   true,
	}
}

// TokensPerSecond reports streaming throughput for the invocation.
func (r PassResult) TokensPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Tokens) / r.Duration.Seconds()
}
