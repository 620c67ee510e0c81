package repository

import (
	"context"
	"database/sql"
	"strconv"

	"participa/internal/database"
	"participa/internal/models"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db database.Querier
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db database.Querier) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) WithTx(tx *sql.Tx) *AuditRepository {
	return &AuditRepository{db: tx}
}

// Create creates a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (citizen_id, action, resource, details, ip_hash, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		database.NullInt64(log.CitizenID),
		log.Action,
		log.Resource,
		log.Details,
		log.IPHash,
		log.UserAgent,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return queryError("failed to create audit log", err)
	}

	return nil
}

// AuditFilter narrows an audit log listing
type AuditFilter struct {
	CitizenID *uint
	Action    string
	Resource  string
}

// List retrieves audit logs, newest first, with pagination
func (r *AuditRepository) List(ctx context.Context, filter AuditFilter, limit, offset int) ([]models.AuditLog, error) {
	query := `
		SELECT id, citizen_id, action, resource, COALESCE(details, ''), COALESCE(ip_hash, ''),
			COALESCE(user_agent, ''), created_at
		FROM audit_logs
		WHERE 1 = 1
	`
	var args []any
	if filter.CitizenID != nil {
		args = append(args, *filter.CitizenID)
		query += ` AND citizen_id = $` + strconv.Itoa(len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += ` AND action = $` + strconv.Itoa(len(args))
	}
	if filter.Resource != "" {
		args = append(args, filter.Resource)
		query += ` AND resource = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit, offset)
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("failed to get audit logs", err)
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var (
			log       models.AuditLog
			citizenID sql.NullInt64
		)
		if err := rows.Scan(
			&log.ID,
			&citizenID,
			&log.Action,
			&log.Resource,
			&log.Details,
			&log.IPHash,
			&log.UserAgent,
			&log.CreatedAt,
		); err != nil {
			return nil, queryError("failed to scan audit log", err)
		}
		log.CitizenID = optionalID(citizenID)
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating audit logs", err)
	}

	return logs, nil
}
