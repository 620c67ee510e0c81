package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"participa/internal/apperrors"
	"participa/internal/models"
	"participa/internal/repository"
)

// ProcessService manages consultation processes
type ProcessService struct {
	processRepo   *repository.ProcessRepository
	participation *ParticipationService
}

// NewProcessService creates a new process service
func NewProcessService(processRepo *repository.ProcessRepository, participation *ParticipationService) *ProcessService {
	return &ProcessService{processRepo: processRepo, participation: participation}
}

// Create stores a new draft process
func (s *ProcessService) Create(ctx context.Context, organizerID uint, title, description string, endDate *time.Time) (*models.Process, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.Validation("title", "is required")
	}
	if endDate != nil && endDate.Before(time.Now()) {
		return nil, apperrors.Validation("end_date", "must be in the future")
	}

	p := &models.Process{
		Title:       title,
		Description: description,
		OrganizerID: organizerID,
		EndDate:     endDate,
	}
	if err := s.processRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("Process created", "process_id", p.ID, "organizer_id", organizerID)
	return p, nil
}

// Get returns a process and records the caller's view. A failed view
// record does not fail the read.
func (s *ProcessService) Get(ctx context.Context, citizenID, processID uint) (*models.Process, error) {
	p, err := s.processRepo.GetByID(ctx, processID)
	if err != nil {
		return nil, err
	}

	if err := s.participation.Record(ctx, citizenID, processID, models.ParticipationView); err != nil {
		slog.Warn("Failed to record view participation", "citizen_id", citizenID, "process_id", processID, "error", err)
	}
	return p, nil
}

// List returns processes, optionally filtered by status
func (s *ProcessService) List(ctx context.Context, status *models.ProcessStatus) ([]models.Process, error) {
	if status != nil && !status.Valid() {
		return nil, apperrors.Validation("status", "unknown process status "+string(*status))
	}
	return s.processRepo.List(ctx, status)
}

// TransitionStatus moves a process along draft -> active -> closed -> completed
func (s *ProcessService) TransitionStatus(ctx context.Context, processID uint, to models.ProcessStatus) (*models.Process, error) {
	if !to.Valid() {
		return nil, apperrors.Validation("status", "unknown process status "+string(to))
	}
	p, err := s.processRepo.GetByID(ctx, processID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(to) {
		return nil, apperrors.Validation("status", fmt.Sprintf("cannot move process from %s to %s", p.Status, to))
	}

	ok, err := s.processRepo.UpdateStatus(ctx, processID, p.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Validation("status", "process status changed concurrently")
	}

	slog.Info("Process status changed", "process_id", processID, "from", p.Status, "to", to)
	return s.processRepo.GetByID(ctx, processID)
}

// CloseExpired closes active processes past their end date
func (s *ProcessService) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.processRepo.CloseExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		slog.Info("Process status changed", "process_id", id, "from", models.ProcessActive, "to", models.ProcessClosed, "reason", "end_date")
	}
	return len(ids), nil
}
