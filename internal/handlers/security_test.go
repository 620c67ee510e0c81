package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participa/internal/handlers"
	"participa/internal/middleware"
	"participa/internal/models"
	"participa/internal/repository"
	"participa/internal/service"
	"participa/internal/testutil"
)

type ledgerHandlers struct {
	votes   *handlers.VoteHandler
	budgets *handlers.BudgetHandler
}

func newLedgerHandlers(t *testing.T) (*ledgerHandlers, *testutil.Fixtures) {
	t.Helper()

	db := testutil.SetupPostgres(t)
	fixtures := testutil.SetupFixtures(t, db)

	participation := service.NewParticipationService(repository.NewParticipationRepository(db))
	voteService := service.NewVoteService(db, repository.NewVoteRepository(db), repository.NewProposalRepository(db), participation)
	budgetService := service.NewBudgetService(db, repository.NewBudgetRepository(db))

	return &ledgerHandlers{
		votes:   handlers.NewVoteHandler(voteService),
		budgets: handlers.NewBudgetHandler(budgetService),
	}, fixtures
}

func call(h http.HandlerFunc, citizen *models.Citizen, method, body, id string) *testutil.TestResponse {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if id != "" {
		req.SetPathValue("id", id)
	}
	req = middleware.WithCitizen(req, citizen.ID, citizen.Role)

	rec := testutil.NewTestResponse()
	h(rec, req)
	return rec
}

// TestVoteIsolation verifies that citizens can only see and change their own votes
func TestVoteIsolation(t *testing.T) {
	h, f := newLedgerHandlers(t)
	proposalID := fmt.Sprint(f.Proposal.ID)
	voteBody := func(voteType string) string {
		return fmt.Sprintf(`{"proposal_id":%d,"vote_type":%q}`, f.Proposal.ID, voteType)
	}

	call(h.votes.CastVote, f.Alice, http.MethodPost, voteBody("support"), "").AssertStatus(t, http.StatusCreated)

	// Bob has no vote to read or change
	call(h.votes.GetMyVote, f.Bob, http.MethodGet, "", proposalID).AssertStatus(t, http.StatusNotFound)
	resp := call(h.votes.ChangeVote, f.Bob, http.MethodPut, voteBody("oppose"), "")
	resp.AssertStatus(t, http.StatusNotFound)
	assert.Contains(t, resp.Body.String(), "reference_not_found")

	// Alice's vote is untouched
	resp = call(h.votes.GetMyVote, f.Alice, http.MethodGet, "", proposalID)
	resp.AssertStatus(t, http.StatusOK)
	var vote models.Vote
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &vote))
	assert.Equal(t, models.VoteSupport, vote.VoteType)
	assert.Equal(t, f.Alice.ID, vote.CitizenID)
}

// TestDuplicateVoteConflict verifies that a second cast is a 409 and leaves the tally unchanged
func TestDuplicateVoteConflict(t *testing.T) {
	h, f := newLedgerHandlers(t)
	body := fmt.Sprintf(`{"proposal_id":%d,"vote_type":"support"}`, f.Proposal.ID)

	call(h.votes.CastVote, f.Alice, http.MethodPost, body, "").AssertStatus(t, http.StatusCreated)

	resp := call(h.votes.CastVote, f.Alice, http.MethodPost, strings.Replace(body, "support", "oppose", 1), "")
	resp.AssertStatus(t, http.StatusConflict)
	var errBody handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errBody))
	assert.Equal(t, "duplicate_vote", errBody.Kind)

	resp = call(h.votes.CountVotes, f.Bob, http.MethodGet, "", fmt.Sprint(f.Proposal.ID))
	resp.AssertStatus(t, http.StatusOK)
	var tally models.VoteTally
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tally))
	assert.Equal(t, 1, tally.Support)
	assert.Equal(t, 0, tally.Oppose)
	assert.Equal(t, 1, tally.Total)
}

// TestUnknownProposalVote verifies that voting on a missing proposal names it
func TestUnknownProposalVote(t *testing.T) {
	h, f := newLedgerHandlers(t)

	resp := call(h.votes.CastVote, f.Alice, http.MethodPost, `{"proposal_id":999999,"vote_type":"neutral"}`, "")
	resp.AssertStatus(t, http.StatusBadRequest)

	var errBody handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errBody))
	assert.Equal(t, "reference_not_found", errBody.Kind)
	assert.Equal(t, "999999", errBody.Key)

	call(h.votes.CountVotes, f.Alice, http.MethodGet, "", "999999").AssertStatus(t, http.StatusNotFound)
}

// TestAllocationIsolation verifies that ballots are private and replaced per citizen
func TestAllocationIsolation(t *testing.T) {
	h, f := newLedgerHandlers(t)
	budgetID := fmt.Sprint(f.Budget.ID)
	food := f.Category(t, "food")
	health := f.Category(t, "health")

	body := fmt.Sprintf(`{"budget_id":%d,"allocations":{"%d":"300.00","%d":250}}`, f.Budget.ID, food.ID, health.ID)
	call(h.budgets.SubmitAllocation, f.Alice, http.MethodPost, body, "").AssertStatus(t, http.StatusCreated)

	call(h.budgets.GetMyAllocation, f.Bob, http.MethodGet, "", budgetID).AssertStatus(t, http.StatusNotFound)

	// Alice replaces her ballot; only the new set remains
	body = fmt.Sprintf(`{"budget_id":%d,"allocations":{"%d":"100.00"}}`, f.Budget.ID, health.ID)
	call(h.budgets.SubmitAllocation, f.Alice, http.MethodPost, body, "").AssertStatus(t, http.StatusCreated)

	resp := call(h.budgets.GetMyAllocation, f.Alice, http.MethodGet, "", budgetID)
	resp.AssertStatus(t, http.StatusOK)
	var ballot models.BudgetVote
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &ballot))
	require.Len(t, ballot.Allocations, 1)
	assert.Equal(t, health.ID, ballot.Allocations[0].CategoryID)
	assert.Equal(t, "100", ballot.Allocations[0].Amount.String())

	resp = call(h.budgets.GetBudget, f.Bob, http.MethodGet, "", budgetID)
	resp.AssertStatus(t, http.StatusOK)
	var detail models.BudgetDetail
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &detail))
	assert.Equal(t, 1, detail.TotalBallots)
	require.Len(t, detail.AllocationSummary, 3)
	assert.Equal(t, 0, detail.AllocationSummary[0].VoteCount)
	assert.Equal(t, 1, detail.AllocationSummary[1].VoteCount)
	assert.Equal(t, "100", detail.AllocationSummary[1].AverageAllocation.String())
}

// TestAllocationRejections verifies the InvalidAmount and ReferenceNotFound responses
func TestAllocationRejections(t *testing.T) {
	h, f := newLedgerHandlers(t)
	health := f.Category(t, "health")
	education := f.Category(t, "education")

	tests := []struct {
		name     string
		body     string
		wantKind string
		wantKey  string
	}{
		{"above category maximum", fmt.Sprintf(`{"budget_id":%d,"allocations":{"%d":"600.01"}}`, f.Budget.ID, health.ID), "invalid_amount", fmt.Sprint(health.ID)},
		{"below category minimum", fmt.Sprintf(`{"budget_id":%d,"allocations":{"%d":"10"}}`, f.Budget.ID, education.ID), "invalid_amount", fmt.Sprint(education.ID)},
		{"negative amount", fmt.Sprintf(`{"budget_id":%d,"allocations":{"%d":"-1"}}`, f.Budget.ID, health.ID), "invalid_amount", fmt.Sprint(health.ID)},
		{"unknown category", fmt.Sprintf(`{"budget_id":%d,"allocations":{"999999":"1"}}`, f.Budget.ID), "reference_not_found", "999999"},
		{"unknown budget", `{"budget_id":999999,"allocations":{}}`, "reference_not_found", "999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(h.budgets.SubmitAllocation, f.Carol, http.MethodPost, tt.body, "")
			resp.AssertStatus(t, http.StatusBadRequest)

			var errBody handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errBody))
			assert.Equal(t, tt.wantKind, errBody.Kind)
			assert.Equal(t, tt.wantKey, errBody.Key)
		})
	}

	// Nothing was stored for Carol
	call(h.budgets.GetMyAllocation, f.Carol, http.MethodGet, "", fmt.Sprint(f.Budget.ID)).AssertStatus(t, http.StatusNotFound)
}
