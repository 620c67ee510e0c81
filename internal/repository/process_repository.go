package repository

import (
	"context"
	"database/sql"
	"time"

	"participa/internal/database"
	"participa/internal/models"
)

const processColumns = `id, title, description, status, organizer_id, end_date, created_at, updated_at`

// ProcessRepository handles process database operations
type ProcessRepository struct {
	db database.Querier
}

func NewProcessRepository(db database.Querier) *ProcessRepository {
	return &ProcessRepository{db: db}
}

func (r *ProcessRepository) WithTx(tx *sql.Tx) *ProcessRepository {
	return &ProcessRepository{db: tx}
}

// Create inserts a process in draft state unless Status is already set
func (r *ProcessRepository) Create(ctx context.Context, p *models.Process) error {
	if p.Status == "" {
		p.Status = models.ProcessDraft
	}
	query := `
		INSERT INTO processes (title, description, status, organizer_id, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.Title,
		p.Description,
		p.Status,
		p.OrganizerID,
		p.EndDate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return writeError("failed to create process", err,
			ref{"processes_organizer_id_fkey", "citizen", p.OrganizerID})
	}
	return nil
}

// GetByID retrieves a process by id
func (r *ProcessRepository) GetByID(ctx context.Context, id uint) (*models.Process, error) {
	query := `SELECT ` + processColumns + ` FROM processes WHERE id = $1`
	p, err := scanProcess(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, readError("failed to get process", err, "process", id)
	}
	return p, nil
}

// List returns processes, newest first, optionally filtered by status
func (r *ProcessRepository) List(ctx context.Context, status *models.ProcessStatus) ([]models.Process, error) {
	query := `SELECT ` + processColumns + ` FROM processes`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("failed to list processes", err)
	}
	defer rows.Close()

	processes := []models.Process{}
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, queryError("failed to scan process", err)
		}
		processes = append(processes, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating processes", err)
	}
	return processes, nil
}

// UpdateStatus moves a process from one status to another. It reports false
// when the stored status no longer equals from.
func (r *ProcessRepository) UpdateStatus(ctx context.Context, id uint, from, to models.ProcessStatus) (bool, error) {
	query := `UPDATE processes SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, queryError("failed to update process status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, queryError("failed to read affected rows", err)
	}
	return n == 1, nil
}

// CloseExpired moves every active process whose end date lies before now
// to closed and returns the ids it moved
func (r *ProcessRepository) CloseExpired(ctx context.Context, now time.Time) ([]uint, error) {
	query := `
		UPDATE processes SET status = $1, updated_at = NOW()
		WHERE status = $2 AND end_date IS NOT NULL AND end_date < $3
		RETURNING id
	`
	rows, err := r.db.QueryContext(ctx, query, models.ProcessClosed, models.ProcessActive, now)
	if err != nil {
		return nil, queryError("failed to close expired processes", err)
	}
	defer rows.Close()

	var ids []uint
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, queryError("failed to scan process id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating closed processes", err)
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcess(row rowScanner) (*models.Process, error) {
	var p models.Process
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Status,
		&p.OrganizerID,
		&p.EndDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
