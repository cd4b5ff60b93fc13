package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsUnwrap(t *testing.T) {
	storeErr := &StoreError{Op: "update", Err: ErrNotFound}
	wrapped := fmt.Errorf("archive 7: %w", storeErr)

	assert.ErrorIs(t, wrapped, ErrNotFound)

	var se *StoreError
	assert.True(t, errors.As(wrapped, &se))
	assert.Equal(t, "update", se.Op)

	aiErr := &AIError{Op: "justify", Err: ErrQuotaExceeded}
	assert.ErrorIs(t, aiErr, ErrQuotaExceeded)

	extractErr := &ExtractionError{URL: "https://example.com", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, extractErr, context.DeadlineExceeded)
	assert.Contains(t, extractErr.Error(), "https://example.com")
}

func TestSaveError_MatchesBothCauses(t *testing.T) {
	cause := &ExtractionError{URL: "https://example.com/a", Err: context.DeadlineExceeded}
	insert := &StoreError{Op: "insert", Code: "08006", Err: errors.New("connection failure")}
	err := &SaveError{URL: "https://example.com/a", Cause: cause, Err: insert}

	var se *StoreError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "08006", se.Code)

	var ee *ExtractionError
	assert.True(t, errors.As(err, &ee))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "08006")
}
