package repository

import (
	"context"
	"database/sql"

	"participa/internal/database"
	"participa/internal/models"
)

const proposalColumns = `id, process_id, author_id, title, description, status, created_at, updated_at`

// ProposalRepository handles proposal database operations
type ProposalRepository struct {
	db database.Querier
}

func NewProposalRepository(db database.Querier) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) WithTx(tx *sql.Tx) *ProposalRepository {
	return &ProposalRepository{db: tx}
}

// Create inserts a pending proposal
func (r *ProposalRepository) Create(ctx context.Context, p *models.Proposal) error {
	p.Status = models.ProposalPending
	query := `
		INSERT INTO proposals (process_id, author_id, title, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ProcessID,
		p.AuthorID,
		p.Title,
		p.Description,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return writeError("failed to create proposal", err,
			ref{"proposals_process_id_fkey", "process", p.ProcessID},
			ref{"proposals_author_id_fkey", "citizen", p.AuthorID})
	}
	return nil
}

// GetByID retrieves a proposal by id
func (r *ProposalRepository) GetByID(ctx context.Context, id uint) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
	p, err := scanProposal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, readError("failed to get proposal", err, "proposal", id)
	}
	return p, nil
}

// ProcessIDOf resolves the process a proposal belongs to
func (r *ProposalRepository) ProcessIDOf(ctx context.Context, proposalID uint) (uint, error) {
	var processID uint
	err := r.db.QueryRowContext(ctx, `SELECT process_id FROM proposals WHERE id = $1`, proposalID).Scan(&processID)
	if err != nil {
		return 0, readError("failed to resolve proposal process", err, "proposal", proposalID)
	}
	return processID, nil
}

// ListByProcess returns the proposals of a process, oldest first
func (r *ProposalRepository) ListByProcess(ctx context.Context, processID uint) ([]models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE process_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, processID)
	if err != nil {
		return nil, queryError("failed to list proposals", err)
	}
	defer rows.Close()

	proposals := []models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, queryError("failed to scan proposal", err)
		}
		proposals = append(proposals, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating proposals", err)
	}
	return proposals, nil
}

// UpdateStatus is a compare-and-set on the proposal status
func (r *ProposalRepository) UpdateStatus(ctx context.Context, id uint, from, to models.ProposalStatus) (bool, error) {
	query := `UPDATE proposals SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, queryError("failed to update proposal status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, queryError("failed to read affected rows", err)
	}
	return n == 1, nil
}

func scanProposal(row rowScanner) (*models.Proposal, error) {
	var p models.Proposal
	err := row.Scan(
		&p.ID,
		&p.ProcessID,
		&p.AuthorID,
		&p.Title,
		&p.Description,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
