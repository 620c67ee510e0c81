package repository

import (
	"context"
	"database/sql"

	"participa/internal/database"
	"participa/internal/models"
)

// CitizenRepository reads citizens provisioned by the auth subsystem
type CitizenRepository struct {
	db database.Querier
}

func NewCitizenRepository(db database.Querier) *CitizenRepository {
	return &CitizenRepository{db: db}
}

// GetByID retrieves a citizen by id
func (r *CitizenRepository) GetByID(ctx context.Context, id uint) (*models.Citizen, error) {
	query := `
		SELECT id, display_name, role, is_active, created_at
		FROM citizens
		WHERE id = $1
	`

	var c models.Citizen
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.DisplayName,
		&c.Role,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, readError("failed to get citizen", err, "citizen", id)
	}
	return &c, nil
}

// Create inserts a citizen row. Only tooling and tests call this.
func (r *CitizenRepository) Create(ctx context.Context, c *models.Citizen) error {
	query := `
		INSERT INTO citizens (display_name, role, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, c.DisplayName, c.Role, c.IsActive).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return writeError("failed to create citizen", err)
	}
	return nil
}

// WithTx returns a repository bound to tx
func (r *CitizenRepository) WithTx(tx *sql.Tx) *CitizenRepository {
	return &CitizenRepository{db: tx}
}
