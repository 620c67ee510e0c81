package repository

import (
	"context"
	"database/sql"
	"errors"

	"participa/internal/database"
	"participa/internal/models"
)

const budgetColumns = `id, title, description, total_amount, currency, fiscal_year,
	start_date, end_date, status, created_by, created_at, updated_at`

// BudgetRepository handles budgets, their categories and citizen ballots
type BudgetRepository struct {
	db database.Querier
}

func NewBudgetRepository(db database.Querier) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) WithTx(tx *sql.Tx) *BudgetRepository {
	return &BudgetRepository{db: tx}
}

// Create inserts a budget in draft state
func (r *BudgetRepository) Create(ctx context.Context, b *models.Budget) error {
	b.Status = models.BudgetDraft
	if b.Currency == "" {
		b.Currency = "EUR"
	}
	query := `
		INSERT INTO budgets (title, description, total_amount, currency, fiscal_year,
			start_date, end_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		b.Title,
		b.Description,
		b.TotalAmount,
		b.Currency,
		b.FiscalYear,
		b.StartDate,
		b.EndDate,
		b.Status,
		b.CreatedBy,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return writeError("failed to create budget", err,
			ref{"budgets_created_by_fkey", "citizen", b.CreatedBy})
	}
	return nil
}

// GetByID retrieves a budget by id
func (r *BudgetRepository) GetByID(ctx context.Context, id uint) (*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE id = $1`
	b, err := scanBudget(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, readError("failed to get budget", err, "budget", id)
	}
	return b, nil
}

// List returns all budgets, most recent fiscal year first
func (r *BudgetRepository) List(ctx context.Context) ([]models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets ORDER BY fiscal_year DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("failed to list budgets", err)
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, queryError("failed to scan budget", err)
		}
		budgets = append(budgets, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating budgets", err)
	}
	return budgets, nil
}

// UpdateStatus is a compare-and-set on the budget status
func (r *BudgetRepository) UpdateStatus(ctx context.Context, id uint, from, to models.BudgetStatus) (bool, error) {
	query := `UPDATE budgets SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, queryError("failed to update budget status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, queryError("failed to read affected rows", err)
	}
	return n == 1, nil
}

// CreateCategory adds a category to a budget
func (r *BudgetRepository) CreateCategory(ctx context.Context, c *models.BudgetCategory) error {
	query := `
		INSERT INTO budget_categories (budget_id, name, description, suggested_amount,
			min_amount, max_amount, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		c.BudgetID,
		c.Name,
		c.Description,
		c.SuggestedAmount,
		c.MinAmount,
		c.MaxAmount,
		c.DisplayOrder,
	).Scan(&c.ID)
	if err != nil {
		return writeError("failed to create budget category", err,
			ref{"budget_categories_budget_id_fkey", "budget", c.BudgetID})
	}
	return nil
}

// ListCategories returns a budget's categories in display order
func (r *BudgetRepository) ListCategories(ctx context.Context, budgetID uint) ([]models.BudgetCategory, error) {
	query := `
		SELECT id, budget_id, name, description, suggested_amount, min_amount, max_amount, display_order
		FROM budget_categories
		WHERE budget_id = $1
		ORDER BY display_order, id
	`
	rows, err := r.db.QueryContext(ctx, query, budgetID)
	if err != nil {
		return nil, queryError("failed to list budget categories", err)
	}
	defer rows.Close()

	categories := []models.BudgetCategory{}
	for rows.Next() {
		var c models.BudgetCategory
		if err := rows.Scan(
			&c.ID,
			&c.BudgetID,
			&c.Name,
			&c.Description,
			&c.SuggestedAmount,
			&c.MinAmount,
			&c.MaxAmount,
			&c.DisplayOrder,
		); err != nil {
			return nil, queryError("failed to scan budget category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating budget categories", err)
	}
	return categories, nil
}

// UpsertBallot creates the citizen's ballot or touches the existing one. The
// conflicting update takes a row lock that serializes concurrent
// resubmissions by the same citizen until the surrounding transaction ends.
func (r *BudgetRepository) UpsertBallot(ctx context.Context, citizenID, budgetID uint) (*models.BudgetVote, error) {
	query := `
		INSERT INTO budget_votes (citizen_id, budget_id)
		VALUES ($1, $2)
		ON CONFLICT (citizen_id, budget_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, citizen_id, budget_id, created_at, updated_at
	`
	var v models.BudgetVote
	err := r.db.QueryRowContext(ctx, query, citizenID, budgetID).
		Scan(&v.ID, &v.CitizenID, &v.BudgetID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, writeError("failed to upsert budget vote", err,
			ref{"budget_votes_citizen_id_fkey", "citizen", citizenID},
			ref{"budget_votes_budget_id_fkey", "budget", budgetID})
	}
	return &v, nil
}

// DeleteAllocations removes every allocation of a ballot
func (r *BudgetRepository) DeleteAllocations(ctx context.Context, voteID uint) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM budget_vote_allocations WHERE vote_id = $1`, voteID); err != nil {
		return queryError("failed to delete allocations", err)
	}
	return nil
}

// InsertAllocation stores one strictly positive allocation
func (r *BudgetRepository) InsertAllocation(ctx context.Context, a *models.BudgetVoteAllocation) error {
	query := `
		INSERT INTO budget_vote_allocations (vote_id, category_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, a.VoteID, a.CategoryID, a.Amount).Scan(&a.ID)
	if err != nil {
		return writeError("failed to insert allocation", err,
			ref{"budget_vote_allocations_category_id_fkey", "budget_category", a.CategoryID})
	}
	return nil
}

// GetBallot returns the citizen's ballot with its allocations, or nil
func (r *BudgetRepository) GetBallot(ctx context.Context, citizenID, budgetID uint) (*models.BudgetVote, error) {
	query := `
		SELECT id, citizen_id, budget_id, created_at, updated_at
		FROM budget_votes
		WHERE citizen_id = $1 AND budget_id = $2
	`
	var v models.BudgetVote
	err := r.db.QueryRowContext(ctx, query, citizenID, budgetID).
		Scan(&v.ID, &v.CitizenID, &v.BudgetID, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("failed to get budget vote", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.vote_id, a.category_id, a.amount
		FROM budget_vote_allocations a
		JOIN budget_categories c ON c.id = a.category_id
		WHERE a.vote_id = $1
		ORDER BY c.display_order, c.id
	`, v.ID)
	if err != nil {
		return nil, queryError("failed to get allocations", err)
	}
	defer rows.Close()

	v.Allocations, err = scanAllocations(rows)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListAllocations returns every stored allocation of a budget
func (r *BudgetRepository) ListAllocations(ctx context.Context, budgetID uint) ([]models.BudgetVoteAllocation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.vote_id, a.category_id, a.amount
		FROM budget_vote_allocations a
		JOIN budget_votes v ON v.id = a.vote_id
		WHERE v.budget_id = $1
	`, budgetID)
	if err != nil {
		return nil, queryError("failed to list allocations", err)
	}
	defer rows.Close()

	return scanAllocations(rows)
}

// CountBallots counts submitted ballots for a budget
func (r *BudgetRepository) CountBallots(ctx context.Context, budgetID uint) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budget_votes WHERE budget_id = $1`, budgetID).Scan(&n)
	if err != nil {
		return 0, queryError("failed to count budget votes", err)
	}
	return n, nil
}

func scanAllocations(rows *sql.Rows) ([]models.BudgetVoteAllocation, error) {
	allocations := []models.BudgetVoteAllocation{}
	for rows.Next() {
		var a models.BudgetVoteAllocation
		if err := rows.Scan(&a.ID, &a.VoteID, &a.CategoryID, &a.Amount); err != nil {
			return nil, queryError("failed to scan allocation", err)
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("error iterating allocations", err)
	}
	return allocations, nil
}

func scanBudget(row rowScanner) (*models.Budget, error) {
	var b models.Budget
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Description,
		&b.TotalAmount,
		&b.Currency,
		&b.FiscalYear,
		&b.StartDate,
		&b.EndDate,
		&b.Status,
		&b.CreatedBy,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
