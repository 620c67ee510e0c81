package service

import (
	"context"
	"database/sql"
	"log/slog"

	"participa/internal/apperrors"
	"participa/internal/database"
	"participa/internal/models"
	"participa/internal/repository"
)

// VoteService keeps at most one live vote per citizen and proposal
type VoteService struct {
	db            *sql.DB
	voteRepo      *repository.VoteRepository
	proposalRepo  *repository.ProposalRepository
	participation *ParticipationService
}

// NewVoteService creates a new vote service
func NewVoteService(
	db *sql.DB,
	voteRepo *repository.VoteRepository,
	proposalRepo *repository.ProposalRepository,
	participation *ParticipationService,
) *VoteService {
	return &VoteService{
		db:            db,
		voteRepo:      voteRepo,
		proposalRepo:  proposalRepo,
		participation: participation,
	}
}

// CastVote stores the citizen's first vote on a proposal and records the
// vote participation in the same transaction. A second vote fails with
// DuplicateVote and leaves the stored vote unchanged.
func (s *VoteService) CastVote(ctx context.Context, citizenID, proposalID uint, voteType models.VoteType) (*models.Vote, error) {
	if !voteType.Valid() {
		return nil, apperrors.Validation("vote_type", "unknown vote type "+string(voteType))
	}

	vote := &models.Vote{
		CitizenID:  citizenID,
		ProposalID: proposalID,
		VoteType:   voteType,
	}

	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		processID, err := s.proposalRepo.WithTx(tx).ProcessIDOf(ctx, proposalID)
		if err != nil {
			return err
		}

		inserted, err := s.voteRepo.WithTx(tx).Insert(ctx, vote)
		if err != nil {
			return err
		}
		if !inserted {
			return apperrors.DuplicateVote(citizenID, proposalID)
		}

		return s.participation.RecordTx(ctx, tx, citizenID, processID, models.ParticipationVote)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Vote cast", "vote_id", vote.ID, "citizen_id", citizenID, "proposal_id", proposalID, "vote_type", voteType)
	return vote, nil
}

// ChangeVote replaces the stance of an existing vote in place. Changing to
// the current stance is a no-op.
func (s *VoteService) ChangeVote(ctx context.Context, citizenID, proposalID uint, voteType models.VoteType) (*models.Vote, error) {
	if !voteType.Valid() {
		return nil, apperrors.Validation("vote_type", "unknown vote type "+string(voteType))
	}

	vote, err := s.voteRepo.UpdateType(ctx, citizenID, proposalID, voteType)
	if err != nil {
		return nil, err
	}

	slog.Info("Vote changed", "vote_id", vote.ID, "citizen_id", citizenID, "proposal_id", proposalID, "vote_type", voteType)
	return vote, nil
}

// CountVotesByType runs the three per-type counts in one read-only snapshot so
// they always add up to the number of votes at that instant.
func (s *VoteService) CountVotesByType(ctx context.Context, proposalID uint) (*models.VoteTally, error) {
	tally := &models.VoteTally{ProposalID: proposalID}

	err := database.WithTx(ctx, s.db, database.ReadSnapshot, func(tx *sql.Tx) error {
		if _, err := s.proposalRepo.WithTx(tx).ProcessIDOf(ctx, proposalID); err != nil {
			return err
		}

		votes := s.voteRepo.WithTx(tx)
		counts := map[models.VoteType]*int{
			models.VoteSupport: &tally.Support,
			models.VoteOppose:  &tally.Oppose,
			models.VoteNeutral: &tally.Neutral,
		}
		for _, voteType := range models.VoteTypes {
			n, err := votes.CountByType(ctx, proposalID, voteType)
			if err != nil {
				return err
			}
			*counts[voteType] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tally.Total = tally.Support + tally.Oppose + tally.Neutral
	return tally, nil
}

// GetCitizenVote returns the citizen's vote on a proposal, or nil
func (s *VoteService) GetCitizenVote(ctx context.Context, citizenID, proposalID uint) (*models.Vote, error) {
	return s.voteRepo.GetByCitizenAndProposal(ctx, citizenID, proposalID)
}
