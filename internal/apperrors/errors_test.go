package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("cast vote: %w", DuplicateVote(3, 9))

	assert.ErrorIs(t, err, ErrDuplicateVote)
	assert.NotErrorIs(t, err, ErrReferenceNotFound)

	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "proposal", appErr.Entity)
	assert.Equal(t, "9", appErr.Key)
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable(cause)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "reference not found: process 42", NotFound("process", 42).Error())
	assert.Equal(t, "validation failure: vote_type: unknown value", Validation("vote_type", "unknown value").Error())
}

func TestKindName(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NotFound("budget", 1), "reference_not_found"},
		{DuplicateVote(1, 2), "duplicate_vote"},
		{Validation("title", "required"), "validation_failure"},
		{InvalidAmount("4", "negative"), "invalid_amount"},
		{Unavailable(errors.New("x")), "store_unavailable"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindName(tt.err))
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "7", Key(fmt.Errorf("wrapped: %w", InvalidAmount("7", "above max"))))
	assert.Empty(t, Key(errors.New("plain")))
}

func TestPublicMessageOmitsCause(t *testing.T) {
	cause := errors.New(`pq: insert or update on table "votes" violates foreign key constraint "votes_citizen_id_fkey"`)
	err := fmt.Errorf("cast vote: %w", &Error{Kind: ErrReferenceNotFound, Entity: "citizen", Key: "7", Err: cause})

	assert.Equal(t, "reference not found: citizen 7", PublicMessage(err))
	assert.Contains(t, err.Error(), "pq:", "the full error still carries the cause for logs")
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "invalid amount: budget_category 4: negative", PublicMessage(InvalidAmount("4", "negative")))
	assert.Equal(t, "validation failure", PublicMessage(fmt.Errorf("parse: %w", ErrValidation)))
	assert.Empty(t, PublicMessage(errors.New("boom")))
}
