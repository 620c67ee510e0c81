package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"participa/internal/apperrors"
	"participa/internal/database"
	"participa/internal/models"
	"participa/internal/repository"
)

// CommentInput describes a new comment. The process is taken from the
// proposal or discussion when one is given.
type CommentInput struct {
	Content      string
	ProcessID    *uint
	ProposalID   *uint
	DiscussionID *uint
}

// DiscussionService manages discussions and comments
type DiscussionService struct {
	db             *sql.DB
	discussionRepo *repository.DiscussionRepository
	proposalRepo   *repository.ProposalRepository
	processRepo    *repository.ProcessRepository
	participation  *ParticipationService
}

func NewDiscussionService(
	db *sql.DB,
	discussionRepo *repository.DiscussionRepository,
	proposalRepo *repository.ProposalRepository,
	processRepo *repository.ProcessRepository,
	participation *ParticipationService,
) *DiscussionService {
	return &DiscussionService{
		db:             db,
		discussionRepo: discussionRepo,
		proposalRepo:   proposalRepo,
		processRepo:    processRepo,
		participation:  participation,
	}
}

// CreateDiscussion opens a discussion and records the author's comment
// participation
func (s *DiscussionService) CreateDiscussion(ctx context.Context, authorID, processID uint, title, content string) (*models.Discussion, error) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return nil, apperrors.Validation("title", "is required")
	case strings.TrimSpace(content) == "":
		return nil, apperrors.Validation("content", "is required")
	}

	d := &models.Discussion{ProcessID: processID, AuthorID: authorID, Title: title, Content: content}
	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if _, err := s.processRepo.WithTx(tx).GetByID(ctx, processID); err != nil {
			return err
		}
		if err := s.discussionRepo.WithTx(tx).Create(ctx, d); err != nil {
			return err
		}
		return s.participation.RecordTx(ctx, tx, authorID, processID, models.ParticipationComment)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDiscussions returns the discussions of a process
func (s *DiscussionService) ListDiscussions(ctx context.Context, processID uint) ([]models.Discussion, error) {
	return s.discussionRepo.ListByProcess(ctx, processID)
}

// AddComment stores a comment and the author's comment participation in one
// transaction
func (s *DiscussionService) AddComment(ctx context.Context, citizenID uint, in CommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperrors.Validation("content", "is required")
	}
	if in.ProposalID != nil && in.DiscussionID != nil {
		return nil, apperrors.Validation("discussion_id", "a comment belongs to a proposal or a discussion, not both")
	}

	c := &models.Comment{
		CitizenID:    citizenID,
		ProposalID:   in.ProposalID,
		DiscussionID: in.DiscussionID,
		Content:      in.Content,
	}

	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		processID, err := s.resolveProcess(ctx, tx, in)
		if err != nil {
			return err
		}
		c.ProcessID = processID

		if err := s.discussionRepo.WithTx(tx).CreateComment(ctx, c); err != nil {
			return err
		}
		return s.participation.RecordTx(ctx, tx, citizenID, processID, models.ParticipationComment)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *DiscussionService) resolveProcess(ctx context.Context, tx *sql.Tx, in CommentInput) (uint, error) {
	var (
		processID uint
		err       error
	)
	switch {
	case in.ProposalID != nil:
		processID, err = s.proposalRepo.WithTx(tx).ProcessIDOf(ctx, *in.ProposalID)
	case in.DiscussionID != nil:
		var d *models.Discussion
		if d, err = s.discussionRepo.WithTx(tx).GetByID(ctx, *in.DiscussionID); err == nil {
			processID = d.ProcessID
		}
	case in.ProcessID != nil:
		_, err = s.processRepo.WithTx(tx).GetByID(ctx, *in.ProcessID)
		processID = *in.ProcessID
	default:
		return 0, apperrors.Validation("process_id", "is required without proposal_id or discussion_id")
	}
	if err != nil {
		return 0, err
	}

	if in.ProcessID != nil && *in.ProcessID != processID {
		return 0, apperrors.Validation("process_id", fmt.Sprintf("does not match the parent's process %d", processID))
	}
	return processID, nil
}

// ListComments returns comments under one parent
func (s *DiscussionService) ListComments(ctx context.Context, filter repository.CommentFilter) ([]models.Comment, error) {
	if filter.ProcessID == nil && filter.ProposalID == nil && filter.DiscussionID == nil {
		return nil, apperrors.Validation("process_id", "a parent id is required")
	}
	return s.discussionRepo.ListComments(ctx, filter)
}
