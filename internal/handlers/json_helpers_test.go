package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participa/internal/models"
)

func TestRespondWithJSONNormalizesNilSlices(t *testing.T) {
	detail := &models.BudgetDetail{
		Budget: models.Budget{
			ID:          4,
			Title:       "Parks 2026",
			TotalAmount: decimal.RequireFromString("1000.50"),
			CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Categories: []models.BudgetCategory{{
			ID:        9,
			Name:      "Benches",
			MaxAmount: decimal.NewNullDecimal(decimal.RequireFromString("600")),
		}},
	}

	rec := httptest.NewRecorder()
	respondWithJSON(rec, http.StatusOK, detail)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{}, body["allocation_summary"])
	assert.Equal(t, "1000.5", body["total_amount"])
	assert.Equal(t, "2026-01-02T03:04:05Z", body["created_at"])

	categories := body["categories"].([]any)
	require.Len(t, categories, 1)
	category := categories[0].(map[string]any)
	assert.Equal(t, "600", category["max_amount"])
	assert.Nil(t, category["min_amount"])
}

func TestNormalizeSlicesTopLevel(t *testing.T) {
	var proposals []models.Proposal
	out, err := json.Marshal(normalizeSlices(proposals))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))

	out, err = json.Marshal(normalizeSlices(map[string]any{"logs": []models.AuditLog(nil), "page": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"logs": [], "page": 1}`, string(out))

	assert.Nil(t, normalizeSlices(nil))
}
