package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	err := ErrSchemaMismatch("NOTES", []string{"DATE", "ITEM"})
	assert.Contains(t, err.Error(), "SCHEMA_MISMATCH")
	assert.Contains(t, err.Error(), "NOTES")
	assert.Equal(t, "NOTES", err.Detail("column"))
}

func TestAppError_UnwrapChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrModelUnavailable(cause)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("run aborted: %w", err)
	assert.True(t, IsCode(wrapped, ErrorCode_MODEL_UNAVAILABLE))
	assert.Equal(t, ErrorCode_MODEL_UNAVAILABLE, CodeOf(wrapped))
}

func TestCodeOf_NonAppError(t *testing.T) {
	assert.Equal(t, ErrorCode_INTERNAL, CodeOf(errors.New("plain")))
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrRunCancelled()))
	assert.False(t, IsCancelled(ErrInternal(errors.New("x"))))
}

func TestErrGenerationFailure_ItemContext(t *testing.T) {
	withItem := ErrGenerationFailure(1, 4, errors.New("boom"))
	assert.Equal(t, "1", withItem.Detail("pass"))
	assert.Equal(t, "4", withItem.Detail("item_index"))

	aggregate := ErrGenerationFailure(2, -1, errors.New("boom"))
	assert.Equal(t, "2", aggregate.Detail("pass"))
	assert.Empty(t, aggregate.Detail("item_index"))
}

func TestErrTemplateResolution_NamesKey(t *testing.T) {
	err := ErrTemplateResolution("pass1", "items_text")
	require.True(t, IsCode(err, ErrorCode_TEMPLATE_RESOLUTION))
	assert.Contains(t, err.Error(), "items_text")
	assert.Equal(t, "pass1", err.Detail("template"))
}
