package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"participa/internal/apperrors"
	"participa/internal/models"
	"participa/internal/repository"
)

// ParticipationService records that a citizen took part in a process. Each
// (citizen, process, kind) is stored at most once no matter how often or how
// concurrently it is recorded.
type ParticipationService struct {
	participationRepo *repository.ParticipationRepository
}

// NewParticipationService creates a new participation service
func NewParticipationService(participationRepo *repository.ParticipationRepository) *ParticipationService {
	return &ParticipationService{participationRepo: participationRepo}
}

// Record stores the participation if absent. Repeats are not errors.
func (s *ParticipationService) Record(ctx context.Context, citizenID, processID uint, kind models.ParticipationKind) error {
	return s.record(ctx, s.participationRepo, citizenID, processID, kind)
}

// RecordTx is Record inside the caller's transaction, so the participation
// commits or rolls back together with the write that caused it.
func (s *ParticipationService) RecordTx(ctx context.Context, tx *sql.Tx, citizenID, processID uint, kind models.ParticipationKind) error {
	return s.record(ctx, s.participationRepo.WithTx(tx), citizenID, processID, kind)
}

func (s *ParticipationService) record(ctx context.Context, repo *repository.ParticipationRepository, citizenID, processID uint, kind models.ParticipationKind) error {
	if !kind.Valid() {
		return apperrors.Validation("participation_type", "unknown participation kind "+string(kind))
	}

	inserted, err := repo.Record(ctx, citizenID, processID, kind)
	if err != nil {
		if errors.Is(err, apperrors.ErrReferenceNotFound) {
			// callers resolve the process before recording, so this is a bug upstream
			slog.Error("Participation references a missing entity",
				"citizen_id", citizenID,
				"process_id", processID,
				"participation_type", kind,
				"error", err,
			)
		}
		return err
	}

	if inserted {
		slog.Debug("Recorded participation", "citizen_id", citizenID, "process_id", processID, "participation_type", kind)
	}
	return nil
}

// HasParticipated reports whether the citizen has a participation of kind
func (s *ParticipationService) HasParticipated(ctx context.Context, citizenID, processID uint, kind models.ParticipationKind) (bool, error) {
	if !kind.Valid() {
		return false, apperrors.Validation("participation_type", "unknown participation kind "+string(kind))
	}
	p, err := s.participationRepo.Get(ctx, citizenID, processID, kind)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

// Summary counts participating citizens per kind for a process
func (s *ParticipationService) Summary(ctx context.Context, processID uint) (*models.ParticipationSummary, error) {
	counts, err := s.participationRepo.CountByKind(ctx, processID)
	if err != nil {
		return nil, err
	}
	return &models.ParticipationSummary{
		ProcessID: processID,
		View:      counts[models.ParticipationView],
		Proposal:  counts[models.ParticipationProposal],
		Vote:      counts[models.ParticipationVote],
		Comment:   counts[models.ParticipationComment],
	}, nil
}
