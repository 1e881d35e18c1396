package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationRun_HappyPathTransitions(t *testing.T) {
	r := NewGenerationRun(3)
	require.Equal(t, RunStateIdle, r.State)
	assert.Equal(t, 3, r.TotalItems)

	r.MarkLoadingModel()
	assert.Equal(t, RunStateLoadingModel, r.State)

	r.MarkPass1Running(2)
	assert.Equal(t, RunStatePass1Running, r.State)
	assert.Equal(t, 2, r.CurrentItem)

	r.MarkPass1Complete()
	assert.Equal(t, RunStatePass1Complete, r.State)

	r.MarkPass2Running()
	assert.Equal(t, RunStatePass2Running, r.State)

	r.MarkPass2Complete()
	assert.Equal(t, RunStatePass2Complete, r.State)
	require.NotNil(t, r.CompletedAt)
}

func TestGenerationRun_FailedAndCancelledAreDistinct(t *testing.T) {
	failed := NewGenerationRun(1)
	failed.MarkFailed("boom")
	assert.Equal(t, RunStateFailed, failed.State)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "boom", *failed.LastError)

	cancelled := NewGenerationRun(1)
	cancelled.MarkCancelled()
	assert.Equal(t, RunStateCancelled, cancelled.State)
	assert.NotEqual(t, failed.State, cancelled.State)
}

func TestRunState_Terminal(t *testing.T) {
	for _, s := range []RunState{RunStatePass2Complete, RunStateFailed, RunStateCancelled} {
		assert.True(t, s.Terminal(), string(s))
	}
	for _, s := range []RunState{RunStateIdle, RunStateLoadingModel, RunStatePass1Running, RunStatePass1Complete, RunStatePass2Running} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestTokensPerSecond(t *testing.T) {
	res := PassResult{Tokens: 50}
	assert.Zero(t, res.TokensPerSecond())

	res.Duration = 2 * time.Second
	assert.InDelta(t, 25.0, res.TokensPerSecond(), 0.01)
}
