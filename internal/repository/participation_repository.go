package repository

import (
	"context"
	"database/sql"

	"participa/internal/database"
	"participa/internal/models"
)

// ParticipationRepository writes the participation ledger. Rows are only
// ever inserted.
type ParticipationRepository struct {
	db database.Querier
}

func NewParticipationRepository(db database.Querier) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

func (r *ParticipationRepository) WithTx(tx *sql.Tx) *ParticipationRepository {
	return &ParticipationRepository{db: tx}
}

// Record inserts the (citizen, process, kind) row if absent. It reports
// whether a new row was written; an existing row is left untouched.
func (r *ParticipationRepository) Record(ctx context.Context, citizenID, processID uint, kind models.ParticipationKind) (bool, error) {
	query := `
		INSERT INTO participations (citizen_id, process_id, participation_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (citizen_id, process_id, participation_type) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, citizenID, processID, kind)
	if err != nil {
		return false, writeError("failed to record participation", err,
			ref{"participations_citizen_id_fkey", "citizen", citizenID},
			ref{"participations_process_id_fkey", "process", processID})
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, queryError("failed to read affected rows", err)
	}
	return n == 1, nil
}

// Get returns the participation row, or nil when the citizen has not
// participated in that way.
func (r *ParticipationRepository) Get(ctx context.Context, citizenID, processID uint, kind models.ParticipationKind) (*models.Participation, error) {
	query := `
		SELECT id, citizen_id, process_id, participation_type, created_at
		FROM participations
		WHERE citizen_id = $1 AND process_id = $2 AND participation_type = $3
	`
	var p models.Participation
	err := r.db.QueryRowContext(ctx, query, citizenID, processID, kind).Scan(
		&p.ID,
		&p.CitizenID,
		&p.ProcessID,
		&p.Type,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("failed to get participation", err)
	}
	return &p, nil
}

// CountByKind counts participating citizens per kind for a process
func (r *ParticipationRepository) CountByKind(ctx context.Context, processID uint) (map[models.ParticipationKind]int, error) {
	query := `
		SELECT participation_type, COUNT(DISTINCT citizen_id)
		FROM participations
		WHERE process_id = $1
		GROUP BY participation_type
	`
	rows, err := r.db.QueryContext(ctx, query, processID)
	if err != nil {
		return nil, queryError("failed to count participations", err)
	}
	defer rows.Close()

	counts := make(map[models.ParticipationKind]int, len(models.ParticipationKinds))
	for rows.Next() {
		var kind models.ParticipationKind
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, queryError("failed to scan participation count", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating participation counts", err)
	}
	return counts, nil
}
