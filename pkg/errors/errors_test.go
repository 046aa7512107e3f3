package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestCloneMatchesTemplateByCode(t *testing.T) {
	clone := Clone(ErrSlotUnavailable, "10:00 is taken")
	wrapped := fmt.Errorf("create: %w", clone)

	assert.True(t, errors.Is(wrapped, ErrSlotUnavailable))
	assert.False(t, errors.Is(wrapped, ErrAlreadyCancelled))
	assert.Equal(t, "10:00 is taken", FromError(wrapped).Message)
	assert.Equal(t, "time slot is not available", ErrSlotUnavailable.Message)
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause, "failed to load appointment")
	assert.Equal(t, "failed to load appointment: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, ErrInternal))
}
