package repository

import (
	"context"
	"database/sql"
	"fmt"

	"participa/internal/database"
	"participa/internal/models"
)

// DiscussionRepository handles discussions and their comments
type DiscussionRepository struct {
	db database.Querier
}

func NewDiscussionRepository(db database.Querier) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

func (r *DiscussionRepository) WithTx(tx *sql.Tx) *DiscussionRepository {
	return &DiscussionRepository{db: tx}
}

// Create creates a new discussion
func (r *DiscussionRepository) Create(ctx context.Context, d *models.Discussion) error {
	query := `
		INSERT INTO discussions (process_id, author_id, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, d.ProcessID, d.AuthorID, d.Title, d.Content).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return writeError("failed to create discussion", err,
			ref{"discussions_process_id_fkey", "process", d.ProcessID},
			ref{"discussions_author_id_fkey", "citizen", d.AuthorID})
	}
	return nil
}

// GetByID retrieves a discussion by id
func (r *DiscussionRepository) GetByID(ctx context.Context, id uint) (*models.Discussion, error) {
	query := `
		SELECT id, process_id, author_id, title, content, created_at
		FROM discussions
		WHERE id = $1
	`
	var d models.Discussion
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.ProcessID,
		&d.AuthorID,
		&d.Title,
		&d.Content,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, readError("failed to get discussion", err, "discussion", id)
	}
	return &d, nil
}

// ListByProcess returns the discussions of a process, newest first
func (r *DiscussionRepository) ListByProcess(ctx context.Context, processID uint) ([]models.Discussion, error) {
	query := `
		SELECT id, process_id, author_id, title, content, created_at
		FROM discussions
		WHERE process_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, processID)
	if err != nil {
		return nil, queryError("failed to list discussions", err)
	}
	defer rows.Close()

	discussions := []models.Discussion{}
	for rows.Next() {
		var d models.Discussion
		if err := rows.Scan(&d.ID, &d.ProcessID, &d.AuthorID, &d.Title, &d.Content, &d.CreatedAt); err != nil {
			return nil, queryError("failed to scan discussion", err)
		}
		discussions = append(discussions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating discussions", err)
	}
	return discussions, nil
}

// CreateComment creates a comment; ProcessID must already be resolved
func (r *DiscussionRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (citizen_id, process_id, proposal_id, discussion_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.CitizenID,
		c.ProcessID,
		database.NullInt64(c.ProposalID),
		database.NullInt64(c.DiscussionID),
		c.Content,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		refs := []ref{
			{"comments_citizen_id_fkey", "citizen", c.CitizenID},
			{"comments_process_id_fkey", "process", c.ProcessID},
		}
		if c.ProposalID != nil {
			refs = append(refs, ref{"comments_proposal_id_fkey", "proposal", *c.ProposalID})
		}
		if c.DiscussionID != nil {
			refs = append(refs, ref{"comments_discussion_id_fkey", "discussion", *c.DiscussionID})
		}
		return writeError("failed to create comment", err, refs...)
	}
	return nil
}

// CommentFilter selects comments by their parent. Exactly one field is
// expected to be set.
type CommentFilter struct {
	ProcessID    *uint
	ProposalID   *uint
	DiscussionID *uint
}

// ListComments returns comments oldest first
func (r *DiscussionRepository) ListComments(ctx context.Context, filter CommentFilter) ([]models.Comment, error) {
	var (
		column string
		value  uint
	)
	switch {
	case filter.ProposalID != nil:
		column, value = "proposal_id", *filter.ProposalID
	case filter.DiscussionID != nil:
		column, value = "discussion_id", *filter.DiscussionID
	case filter.ProcessID != nil:
		column, value = "process_id", *filter.ProcessID
	default:
		return nil, fmt.Errorf("comment filter requires a parent id")
	}

	query := `
		SELECT id, citizen_id, process_id, proposal_id, discussion_id, content, created_at
		FROM comments
		WHERE ` + column + ` = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, queryError("failed to list comments", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var (
			c                        models.Comment
			proposalID, discussionID sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.CitizenID, &c.ProcessID, &proposalID, &discussionID, &c.Content, &c.CreatedAt); err != nil {
			return nil, queryError("failed to scan comment", err)
		}
		c.ProposalID = optionalID(proposalID)
		c.DiscussionID = optionalID(discussionID)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating comments", err)
	}
	return comments, nil
}

func optionalID(v sql.NullInt64) *uint {
	if !v.Valid {
		return nil
	}
	id := uint(v.Int64)
	return &id
}
