package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"participa/internal/apperrors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		refs     []ref
		wantKind error
		wantKey  string
	}{
		{
			name:     "listed foreign key",
			err:      &pq.Error{Code: "23503", Constraint: "votes_proposal_id_fkey"},
			refs:     []ref{{"votes_proposal_id_fkey", "proposal", 4}},
			wantKind: apperrors.ErrReferenceNotFound,
			wantKey:  "4",
		},
		{
			name:     "unlisted foreign key",
			err:      &pq.Error{Code: "23503", Constraint: "votes_citizen_id_fkey"},
			refs:     []ref{{"votes_proposal_id_fkey", "proposal", 4}},
			wantKind: apperrors.ErrReferenceNotFound,
		},
		{
			name:     "numeric overflow",
			err:      &pq.Error{Code: "22003", Message: "numeric field overflow"},
			wantKind: apperrors.ErrInvalidAmount,
		},
		{
			name:     "lost connection",
			err:      &pq.Error{Code: "08006"},
			wantKind: apperrors.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writeError("failed to write", tt.err, tt.refs...)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantKey, apperrors.Key(err))
		})
	}
}

func TestWriteErrorKeepsConstraintNamesOutOfPublicMessage(t *testing.T) {
	err := writeError("failed to write", &pq.Error{Code: "23503", Constraint: "votes_citizen_id_fkey"})
	assert.NotContains(t, apperrors.PublicMessage(err), "votes_citizen_id_fkey")
	assert.Contains(t, err.Error(), "pq:")
}

func TestWriteErrorLeavesOtherErrorsUnclassified(t *testing.T) {
	err := writeError("failed to write", errors.New("boom"))
	assert.Equal(t, "internal", apperrors.KindName(err))
}
