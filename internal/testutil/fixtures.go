package testutil

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"participa/internal/models"
)

// Fixtures holds test data
type Fixtures struct {
	DB        *sql.DB
	Admin     *models.Citizen
	Organizer *models.Citizen
	Alice     *models.Citizen
	Bob       *models.Citizen
	Carol     *models.Citizen

	Process  *models.Process
	Proposal *models.Proposal

	// Budget totals 1000.00 with categories food, health (max 600) and
	// education (min 50), in that display order
	Budget     *models.Budget
	Categories []models.BudgetCategory
}

// SetupFixtures creates test data
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	f := &Fixtures{DB: db}

	f.Admin = CreateCitizen(t, db, "Admin", models.RoleAdmin)
	f.Organizer = CreateCitizen(t, db, "Olga Organizer", models.RoleOrganizer)
	f.Alice = CreateCitizen(t, db, "Alice", models.RoleCitizen)
	f.Bob = CreateCitizen(t, db, "Bob", models.RoleCitizen)
	f.Carol = CreateCitizen(t, db, "Carol", models.RoleCitizen)

	f.Process = CreateProcess(t, db, f.Organizer.ID, "Riverside park renewal", models.ProcessActive)
	f.Proposal = CreateProposal(t, db, f.Process.ID, f.Alice.ID, "More benches")

	f.Budget = CreateBudget(t, db, f.Organizer.ID, decimal.RequireFromString("1000.00"), models.BudgetVoting)
	f.Categories = []models.BudgetCategory{
		*CreateCategory(t, db, f.Budget.ID, "food", 1, nil, nil),
		*CreateCategory(t, db, f.Budget.ID, "health", 2, nil, ptr(decimal.RequireFromString("600"))),
		*CreateCategory(t, db, f.Budget.ID, "education", 3, ptr(decimal.RequireFromString("50")), nil),
	}

	return f
}

// Category returns the fixture category with the given name
func (f *Fixtures) Category(t *testing.T, name string) models.BudgetCategory {
	t.Helper()
	for _, c := range f.Categories {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no fixture category %q", name)
	return models.BudgetCategory{}
}

// CreateCitizen inserts a citizen
func CreateCitizen(t *testing.T, db *sql.DB, name string, role models.Role) *models.Citizen {
	t.Helper()

	c := models.Citizen{DisplayName: name, Role: role, IsActive: true}
	err := db.QueryRow(`
		INSERT INTO citizens (display_name, role, is_active)
		VALUES ($1, $2, true)
		RETURNING id, created_at
	`, name, role).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create citizen %s: %v", name, err)
	}
	return &c
}

// CreateProcess inserts a process with the given status
func CreateProcess(t *testing.T, db *sql.DB, organizerID uint, title string, status models.ProcessStatus) *models.Process {
	t.Helper()

	p := models.Process{Title: title, Status: status, OrganizerID: organizerID}
	err := db.QueryRow(`
		INSERT INTO processes (title, description, status, organizer_id)
		VALUES ($1, '', $2, $3)
		RETURNING id, created_at, updated_at
	`, title, status, organizerID).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create process %s: %v", title, err)
	}
	return &p
}

// CreateProposal inserts a pending proposal
func CreateProposal(t *testing.T, db *sql.DB, processID, authorID uint, title string) *models.Proposal {
	t.Helper()

	p := models.Proposal{ProcessID: processID, AuthorID: authorID, Title: title, Status: models.ProposalPending}
	err := db.QueryRow(`
		INSERT INTO proposals (process_id, author_id, title, description, status)
		VALUES ($1, $2, $3, '', 'pending')
		RETURNING id, created_at, updated_at
	`, processID, authorID, title).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create proposal %s: %v", title, err)
	}
	return &p
}

// CreateBudget inserts a budget with the given status
func CreateBudget(t *testing.T, db *sql.DB, createdBy uint, total decimal.Decimal, status models.BudgetStatus) *models.Budget {
	t.Helper()

	b := models.Budget{
		Title:       "Neighbourhood budget",
		TotalAmount: total,
		Currency:    "EUR",
		FiscalYear:  2026,
		Status:      status,
		CreatedBy:   createdBy,
	}
	err := db.QueryRow(`
		INSERT INTO budgets (title, total_amount, currency, fiscal_year, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, b.Title, b.TotalAmount, b.Currency, b.FiscalYear, b.Status, b.CreatedBy).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create budget: %v", err)
	}
	return &b
}

// CreateCategory inserts a budget category with optional bounds
func CreateCategory(t *testing.T, db *sql.DB, budgetID uint, name string, order int, minAmount, maxAmount *decimal.Decimal) *models.BudgetCategory {
	t.Helper()

	c := models.BudgetCategory{
		BudgetID:        budgetID,
		Name:            name,
		SuggestedAmount: decimal.Zero,
		DisplayOrder:    order,
	}
	if minAmount != nil {
		c.MinAmount = decimal.NewNullDecimal(*minAmount)
	}
	if maxAmount != nil {
		c.MaxAmount = decimal.NewNullDecimal(*maxAmount)
	}

	err := db.QueryRow(`
		INSERT INTO budget_categories (budget_id, name, suggested_amount, min_amount, max_amount, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, budgetID, name, c.SuggestedAmount, c.MinAmount, c.MaxAmount, order).Scan(&c.ID)
	if err != nil {
		t.Fatalf("Failed to create category %s: %v", name, err)
	}
	return &c
}

func ptr[T any](v T) *T {
	return &v
}
