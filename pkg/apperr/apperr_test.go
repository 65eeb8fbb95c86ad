package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf_UnwrapsChain(t *testing.T) {
	base := Conflict("apartment is not available for the selected dates")
	wrapped := fmt.Errorf("create reservation: %w", base)

	assert.Equal(t, CodeConflict, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, CodeConflict))
	assert.True(t, errors.Is(wrapped, base))
}

func TestCodeOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("connection refused")))
	assert.False(t, IsCode(errors.New("boom"), CodeNotFound))
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Internal(cause, "failed to load reservation")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to load reservation")
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestValidation_CarriesFields(t *testing.T) {
	err := Validation("invalid request", FieldError{Field: "end_time", Message: "must be after start_time"})

	assert.Equal(t, CodeValidation, err.Code)
	assert.Len(t, err.Fields, 1)
	assert.Equal(t, "end_time", err.Fields[0].Field)
}
