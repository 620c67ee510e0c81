package repository

import (
	"context"
	"database/sql"
	"errors"

	"participa/internal/apperrors"
	"participa/internal/database"
	"participa/internal/models"
)

// VoteRepository handles the proposal vote ledger
type VoteRepository struct {
	db database.Querier
}

func NewVoteRepository(db database.Querier) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) WithTx(tx *sql.Tx) *VoteRepository {
	return &VoteRepository{db: tx}
}

// Insert stores v unless the citizen already voted on the proposal. It
// reports false, leaving the stored vote unchanged, when a vote exists.
func (r *VoteRepository) Insert(ctx context.Context, v *models.Vote) (bool, error) {
	query := `
		INSERT INTO votes (citizen_id, proposal_id, vote_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (citizen_id, proposal_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, v.CitizenID, v.ProposalID, v.VoteType).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if database.IsUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, writeError("failed to insert vote", err,
			ref{"votes_citizen_id_fkey", "citizen", v.CitizenID},
			ref{"votes_proposal_id_fkey", "proposal", v.ProposalID})
	}
	return true, nil
}

// UpdateType changes the stance of an existing vote in place. updated_at only
// moves when the type actually changes.
func (r *VoteRepository) UpdateType(ctx context.Context, citizenID, proposalID uint, voteType models.VoteType) (*models.Vote, error) {
	query := `
		UPDATE votes
		SET vote_type = $3,
			updated_at = CASE WHEN vote_type = $3 THEN updated_at ELSE NOW() END
		WHERE citizen_id = $1 AND proposal_id = $2
		RETURNING id, citizen_id, proposal_id, vote_type, created_at, updated_at
	`
	v, err := scanVote(r.db.QueryRowContext(ctx, query, citizenID, proposalID, voteType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.Error{
			Kind:    apperrors.ErrReferenceNotFound,
			Entity:  "vote",
			Key:     keyOf(proposalID),
			Message: "no vote to change",
		}
	}
	if err != nil {
		return nil, queryError("failed to update vote", err)
	}
	return v, nil
}

// GetByCitizenAndProposal returns the citizen's vote or nil when none exists
func (r *VoteRepository) GetByCitizenAndProposal(ctx context.Context, citizenID, proposalID uint) (*models.Vote, error) {
	query := `
		SELECT id, citizen_id, proposal_id, vote_type, created_at, updated_at
		FROM votes
		WHERE citizen_id = $1 AND proposal_id = $2
	`
	v, err := scanVote(r.db.QueryRowContext(ctx, query, citizenID, proposalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("failed to get vote", err)
	}
	return v, nil
}

// CountByType counts the votes of one type on a proposal
func (r *VoteRepository) CountByType(ctx context.Context, proposalID uint, voteType models.VoteType) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM votes WHERE proposal_id = $1 AND vote_type = $2`
	if err := r.db.QueryRowContext(ctx, query, proposalID, voteType).Scan(&n); err != nil {
		return 0, queryError("failed to count votes", err)
	}
	return n, nil
}

func scanVote(row rowScanner) (*models.Vote, error) {
	var v models.Vote
	err := row.Scan(&v.ID, &v.CitizenID, &v.ProposalID, &v.VoteType, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
