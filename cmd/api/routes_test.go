package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participa/internal/config"
	"participa/internal/models"
	"participa/internal/testutil"
)

type pingDB struct{}

func (pingDB) HealthCheck(context.Context) error { return nil }

type apiClient struct {
	t       *testing.T
	handler http.Handler
	auth    *testutil.AuthHelper
}

func (c *apiClient) do(citizen *models.Citizen, method, path, body string) *testutil.TestResponse {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.9:5555"
	if citizen != nil {
		c.auth.AddAuthHeader(c.t, req, citizen)
	}
	rec := testutil.NewTestResponse()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func setupAPI(t *testing.T) (*apiClient, *testutil.Fixtures) {
	t.Helper()

	db := testutil.SetupPostgres(t)
	fixtures := testutil.SetupFixtures(t, db)
	authHelper := testutil.NewAuthHelper(t)

	cfg := &config.Config{
		App:       config.AppConfig{Name: "Participa", Version: "test"},
		Audit:     config.AuditConfig{IPHashKey: "audit-test-key"},
		RateLimit: config.RateLimitConfig{Enabled: false},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	app, err := newApplication(cfg, db, pingDB{}, authHelper.Service)
	require.NoError(t, err)
	t.Cleanup(app.rateLimiter.Stop)

	return &apiClient{t: t, handler: app.routes(), auth: authHelper}, fixtures
}

func TestRoutesRequireAuthentication(t *testing.T) {
	api, _ := setupAPI(t)

	api.do(nil, http.MethodGet, "/api/v1/processes", "").AssertStatus(t, http.StatusUnauthorized)
	api.do(nil, http.MethodPost, "/api/v1/votes", `{}`).AssertStatus(t, http.StatusUnauthorized)
	api.do(nil, http.MethodGet, "/health", "").AssertStatus(t, http.StatusOK)
}

func TestOrganizerRoutes(t *testing.T) {
	api, f := setupAPI(t)
	body := `{"title":"Library opening hours","description":"Evening hours"}`

	api.do(f.Alice, http.MethodPost, "/api/v1/processes", body).AssertStatus(t, http.StatusForbidden)

	resp := api.do(f.Organizer, http.MethodPost, "/api/v1/processes", body)
	resp.AssertStatus(t, http.StatusCreated)
	var process models.Process
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &process))
	assert.Equal(t, models.ProcessDraft, process.Status)
	assert.Equal(t, fmt.Sprintf("/api/v1/processes/%d", process.ID), resp.Header().Get("Location"))

	statusPath := fmt.Sprintf("/api/v1/processes/%d/status", process.ID)
	api.do(f.Admin, http.MethodPut, statusPath, `{"status":"active"}`).AssertStatus(t, http.StatusOK)
	api.do(f.Organizer, http.MethodPut, statusPath, `{"status":"completed"}`).AssertStatus(t, http.StatusBadRequest)
	api.do(f.Organizer, http.MethodPut, "/api/v1/processes/999999/status", `{"status":"active"}`).AssertStatus(t, http.StatusNotFound)
}

func TestParticipationThroughAPI(t *testing.T) {
	api, f := setupAPI(t)
	processPath := fmt.Sprintf("/api/v1/processes/%d", f.Process.ID)

	// Viewing twice records one view
	api.do(f.Bob, http.MethodGet, processPath, "").AssertStatus(t, http.StatusOK)
	api.do(f.Bob, http.MethodGet, processPath, "").AssertStatus(t, http.StatusOK)

	api.do(f.Bob, http.MethodPost, "/api/v1/votes",
		fmt.Sprintf(`{"proposal_id":%d,"vote_type":"oppose"}`, f.Proposal.ID)).AssertStatus(t, http.StatusCreated)
	api.do(f.Bob, http.MethodPost, "/api/v1/comments",
		fmt.Sprintf(`{"content":"Benches need shade","proposal_id":%d}`, f.Proposal.ID)).AssertStatus(t, http.StatusCreated)

	resp := api.do(f.Bob, http.MethodGet, processPath+"/my-participation", "")
	resp.AssertStatus(t, http.StatusOK)
	var mine map[string]bool
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &mine))
	assert.Equal(t, map[string]bool{"view": true, "proposal": false, "vote": true, "comment": true}, mine)

	resp = api.do(f.Alice, http.MethodGet, processPath+"/participation", "")
	resp.AssertStatus(t, http.StatusOK)
	var summary models.ParticipationSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.View)
	assert.Equal(t, 1, summary.Vote)
	assert.Equal(t, 1, summary.Comment)

	resp = api.do(f.Alice, http.MethodGet, fmt.Sprintf("/api/v1/comments?proposal_id=%d", f.Proposal.ID), "")
	resp.AssertStatus(t, http.StatusOK)
	var comments []models.Comment
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, f.Process.ID, comments[0].ProcessID)
}

func TestWritesAreAudited(t *testing.T) {
	api, f := setupAPI(t)

	api.do(f.Carol, http.MethodPost, "/api/v1/votes",
		fmt.Sprintf(`{"proposal_id":%d,"vote_type":"neutral"}`, f.Proposal.ID)).AssertStatus(t, http.StatusCreated)
	// A rejected duplicate is not audited
	api.do(f.Carol, http.MethodPost, "/api/v1/votes",
		fmt.Sprintf(`{"proposal_id":%d,"vote_type":"support"}`, f.Proposal.ID)).AssertStatus(t, http.StatusConflict)

	api.do(f.Carol, http.MethodGet, "/api/v1/admin/audit-logs", "").AssertStatus(t, http.StatusForbidden)

	resp := api.do(f.Admin, http.MethodGet, fmt.Sprintf("/api/v1/admin/audit-logs?action=vote.cast&citizen_id=%d", f.Carol.ID), "")
	resp.AssertStatus(t, http.StatusOK)

	var page struct {
		Logs []models.AuditLog `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Logs, 1)
	assert.Equal(t, "/api/v1/votes", page.Logs[0].Resource)
	assert.Len(t, page.Logs[0].IPHash, 64)
	assert.NotContains(t, page.Logs[0].IPHash, "203.0.113.9")
}

func TestBudgetLifecycleThroughAPI(t *testing.T) {
	api, f := setupAPI(t)

	resp := api.do(f.Organizer, http.MethodPost, "/api/v1/budgets",
		`{"title":"School gardens","total_amount":"500.00","fiscal_year":2027}`)
	resp.AssertStatus(t, http.StatusCreated)
	var budget models.Budget
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &budget))
	assert.Equal(t, "EUR", budget.Currency)

	base := fmt.Sprintf("/api/v1/budgets/%d", budget.ID)
	resp = api.do(f.Organizer, http.MethodPost, base+"/categories", `{"name":"Seeds","max_amount":"200"}`)
	resp.AssertStatus(t, http.StatusCreated)
	var seeds models.BudgetCategory
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &seeds))

	for _, status := range []string{"active", "voting"} {
		api.do(f.Organizer, http.MethodPut, base+"/status", fmt.Sprintf(`{"status":%q}`, status)).AssertStatus(t, http.StatusOK)
	}
	// Categories are frozen once voting starts
	api.do(f.Organizer, http.MethodPost, base+"/categories", `{"name":"Tools"}`).AssertStatus(t, http.StatusBadRequest)

	ballots := []struct {
		citizen *models.Citizen
		amount  string
	}{
		{f.Alice, "150.00"},
		{f.Bob, "25.55"},
	}
	for _, b := range ballots {
		body := fmt.Sprintf(`{"budget_id":%d,"allocations":{"%d":%q}}`, budget.ID, seeds.ID, b.amount)
		api.do(b.citizen, http.MethodPost, "/api/v1/budget-votes", body).AssertStatus(t, http.StatusCreated)
	}

	resp = api.do(f.Carol, http.MethodGet, base+"/summary", "")
	resp.AssertStatus(t, http.StatusOK)
	var summary []models.AllocationSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summary))
	require.Len(t, summary, 1)
	assert.Equal(t, 2, summary[0].VoteCount)
	assert.Equal(t, "87.78", summary[0].AverageAllocation.StringFixed(2))
}
