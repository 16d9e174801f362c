package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	require.NotNil(t, err)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestConflictCarriesReason(t *testing.T) {
	err := Conflict("noDoses", "drive has no doses left")
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Equal(t, "noDoses", ReasonOf(err))
	assert.True(t, stdErrors.Is(err, ErrConflict))
	assert.False(t, stdErrors.Is(err, ErrNotFound))
	assert.Empty(t, ErrConflict.Reason)
}

func TestStorageIsDistinctFromValidation(t *testing.T) {
	storage := Storage(fmt.Errorf("connection reset"), "failed to save drive")
	validation := Validation(fmt.Errorf("bad"), "invalid drive payload")

	assert.True(t, stdErrors.Is(storage, ErrStorage))
	assert.False(t, stdErrors.Is(storage, ErrValidation))
	assert.True(t, stdErrors.Is(validation, ErrValidation))
	assert.Contains(t, storage.Error(), "connection reset")
}

func TestReasonOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("vaccinate: %w", Conflict("gradeMismatch", "grade not eligible"))
	assert.Equal(t, "gradeMismatch", ReasonOf(wrapped))
	assert.Empty(t, ReasonOf(fmt.Errorf("plain")))
}
