package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participa/internal/middleware"
	"participa/internal/models"
)

// The requests below are rejected before any service is called, so the
// handlers are built without services.
func TestRequestsRejectedBeforeServiceCall(t *testing.T) {
	votes := NewVoteHandler(nil)
	proposals := NewProposalHandler(nil)
	processes := NewProcessHandler(nil, nil)
	discussions := NewDiscussionHandler(nil)
	budgets := NewBudgetHandler(nil)

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		method   string
		body     string
		pathID   string
		citizen  bool
		wantCode int
		wantKey  string
	}{
		{"cast vote without citizen", votes.CastVote, http.MethodPost, `{"proposal_id":1,"vote_type":"support"}`, "", false, http.StatusUnauthorized, ""},
		{"cast vote malformed body", votes.CastVote, http.MethodPost, `{"proposal_id":`, "", true, http.StatusBadRequest, ""},
		{"cast vote unknown type", votes.CastVote, http.MethodPost, `{"proposal_id":1,"vote_type":"maybe"}`, "", true, http.StatusBadRequest, "vote_type"},
		{"cast vote missing proposal", votes.CastVote, http.MethodPost, `{"vote_type":"support"}`, "", true, http.StatusBadRequest, "proposal_id"},
		{"change vote unknown type", votes.ChangeVote, http.MethodPut, `{"proposal_id":1,"vote_type":"yes"}`, "", true, http.StatusBadRequest, "vote_type"},
		{"count votes bad id", votes.CountVotes, http.MethodGet, "", "abc", true, http.StatusBadRequest, ""},
		{"proposal without title", proposals.CreateProposal, http.MethodPost, `{"process_id":1}`, "", true, http.StatusBadRequest, "title"},
		{"proposal status unknown", proposals.UpdateProposalStatus, http.MethodPut, `{"status":"archived"}`, "3", true, http.StatusBadRequest, "status"},
		{"proposal status missing", proposals.UpdateProposalStatus, http.MethodPut, `{}`, "3", true, http.StatusBadRequest, "status"},
		{"process title too long", processes.CreateProcess, http.MethodPost, `{"title":"` + strings.Repeat("x", 256) + `"}`, "", true, http.StatusBadRequest, "title"},
		{"comment without content", discussions.AddComment, http.MethodPost, `{"process_id":1}`, "", true, http.StatusBadRequest, "content"},
		{"comment with zero proposal", discussions.AddComment, http.MethodPost, `{"content":"hi","proposal_id":0}`, "", true, http.StatusBadRequest, "proposal_id"},
		{"discussion without process", discussions.CreateDiscussion, http.MethodPost, `{"title":"t","content":"c"}`, "", true, http.StatusBadRequest, "process_id"},
		{"allocation without map", budgets.SubmitAllocation, http.MethodPost, `{"budget_id":1}`, "", true, http.StatusBadRequest, "allocations"},
		{"allocation with bad amount", budgets.SubmitAllocation, http.MethodPost, `{"budget_id":1,"allocations":{"2":"lots"}}`, "", true, http.StatusBadRequest, ""},
		{"budget without fiscal year", budgets.CreateBudget, http.MethodPost, `{"title":"Parks","total_amount":"100"}`, "", true, http.StatusBadRequest, "fiscal_year"},
		{"budget status bad id", budgets.UpdateBudgetStatus, http.MethodPut, `{"status":"active"}`, "-1", true, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.pathID != "" {
				req.SetPathValue("id", tt.pathID)
			}
			if tt.citizen {
				req = middleware.WithCitizen(req, 7, models.RoleOrganizer)
			}

			rec := httptest.NewRecorder()
			tt.handler(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKey, body.Key)
		})
	}
}

func TestListCommentsRejectsMalformedFilter(t *testing.T) {
	h := NewDiscussionHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments?proposal_id=abc", nil)
	rec := httptest.NewRecorder()
	h.ListComments(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "proposal_id")
}

func TestListProcessesRejectsUnknownStatus(t *testing.T) {
	h := NewProcessHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/processes?status=paused", nil)
	rec := httptest.NewRecorder()
	h.ListProcesses(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_failure", body.Kind)
	assert.Equal(t, "status", body.Key)
}
