package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"participa/internal/apperrors"
	"participa/internal/database"
	"participa/internal/models"
	"participa/internal/repository"
)

// ProposalService manages proposals within processes
type ProposalService struct {
	db            *sql.DB
	proposalRepo  *repository.ProposalRepository
	processRepo   *repository.ProcessRepository
	participation *ParticipationService
}

// NewProposalService creates a new proposal service
func NewProposalService(
	db *sql.DB,
	proposalRepo *repository.ProposalRepository,
	processRepo *repository.ProcessRepository,
	participation *ParticipationService,
) *ProposalService {
	return &ProposalService{
		db:            db,
		proposalRepo:  proposalRepo,
		processRepo:   processRepo,
		participation: participation,
	}
}

// Create stores a pending proposal in an active process together with the
// author's proposal participation
func (s *ProposalService) Create(ctx context.Context, authorID, processID uint, title, description string) (*models.Proposal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.Validation("title", "is required")
	}

	p := &models.Proposal{
		ProcessID:   processID,
		AuthorID:    authorID,
		Title:       title,
		Description: description,
	}

	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		process, err := s.processRepo.WithTx(tx).GetByID(ctx, processID)
		if err != nil {
			return err
		}
		if process.Status != models.ProcessActive {
			return apperrors.Validation("process_id", fmt.Sprintf("process is %s, proposals need an active process", process.Status))
		}
		if err := s.proposalRepo.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		return s.participation.RecordTx(ctx, tx, authorID, processID, models.ParticipationProposal)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Proposal created", "proposal_id", p.ID, "process_id", processID, "author_id", authorID)
	return p, nil
}

// Get returns a proposal by id
func (s *ProposalService) Get(ctx context.Context, proposalID uint) (*models.Proposal, error) {
	return s.proposalRepo.GetByID(ctx, proposalID)
}

// ListByProcess returns the proposals of an existing process
func (s *ProposalService) ListByProcess(ctx context.Context, processID uint) ([]models.Proposal, error) {
	if _, err := s.processRepo.GetByID(ctx, processID); err != nil {
		return nil, err
	}
	return s.proposalRepo.ListByProcess(ctx, processID)
}

// TransitionStatus moves a proposal along its review lifecycle
func (s *ProposalService) TransitionStatus(ctx context.Context, proposalID uint, to models.ProposalStatus) (*models.Proposal, error) {
	if !to.Valid() {
		return nil, apperrors.Validation("status", "unknown proposal status "+string(to))
	}
	p, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(to) {
		return nil, apperrors.Validation("status", fmt.Sprintf("cannot move proposal from %s to %s", p.Status, to))
	}

	ok, err := s.proposalRepo.UpdateStatus(ctx, proposalID, p.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Validation("status", "proposal status changed concurrently")
	}

	slog.Info("Proposal status changed", "proposal_id", proposalID, "from", p.Status, "to", to)
	return s.proposalRepo.GetByID(ctx, proposalID)
}
