package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scout_crm_backend/internal/config"
	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemoteFixture(t *testing.T, handler http.HandlerFunc) *RemoteStoreService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRemoteStoreService(config.RemoteStoreConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		Table:          "players",
		RequestTimeout: 5 * time.Second,
	})
}

func TestStatusTokenRoundTrip(t *testing.T) {
	for _, status := range model.AllStatuses {
		token := StatusToToken(status)
		require.NotEmpty(t, token, "status %s has no remote token", status)
		assert.Equal(t, status, StatusFromToken(token))
	}
}

func TestStatusTokenRenames(t *testing.T) {
	// The hosted store kept its original column values when the pipeline
	// stages were renamed.
	assert.Equal(t, "review", StatusToToken(model.StatusFinalReview))
	assert.Equal(t, "offer", StatusToToken(model.StatusOffered))
	assert.Equal(t, model.StatusFinalReview, StatusFromToken("review"))
	assert.Equal(t, model.StatusOffered, StatusFromToken("offer"))
}

func TestStatusFromTokenDefaultsToLead(t *testing.T) {
	assert.Equal(t, model.StatusLead, StatusFromToken("negotiating"))
	assert.Equal(t, model.StatusLead, StatusFromToken(""))
}

func TestMissingTokenIsHardFailure(t *testing.T) {
	svc := NewRemoteStoreService(config.RemoteStoreConfig{
		BaseURL: "http://localhost:1",
		Table:   "players",
	})
	err := svc.Ping(context.Background())
	assert.ErrorIs(t, err, util.ErrMissingStoreToken)
}

func TestToRowFlattensEvaluationAndOmitsEmpty(t *testing.T) {
	age := 16
	p := &model.Prospect{
		UUIDBase: model.UUIDBase{ID: "local-1"},
		OwnerID:  4,
		Name:     "Iker Sanz",
		Position: "GK",
		Age:      &age,
		Status:   model.StatusFinalReview,
		Evaluation: &model.Evaluation{
			Score:               81,
			Tier:                model.Tier1,
			RecommendedPathways: []string{},
			Strengths:           []string{"distribution"},
			Weaknesses:          []string{},
		},
		ActivityStatus: model.ActivityViewed,
	}

	row, err := ToRow(p, 4)
	require.NoError(t, err)

	data, err := json.Marshal(row)
	require.NoError(t, err)
	encoded := string(data)

	assert.Contains(t, encoded, `"status":"review"`)
	require.NotNil(t, row.Evaluation)
	var eval model.Evaluation
	require.NoError(t, json.Unmarshal([]byte(*row.Evaluation), &eval))
	assert.Equal(t, 81, eval.Score)

	// Unset optionals must be absent, never the literal string "null"
	// for the flattened evaluation or empty strings for contacts.
	assert.NotContains(t, encoded, `"email"`)
	assert.NotContains(t, encoded, `"placed_location"`)
	assert.NotContains(t, encoded, "null")
}

func TestFromRowRestoresEvaluation(t *testing.T) {
	evalJSON := `{"score":64,"tier":"Tier 2","strengths":["vision"]}`
	id := "r-1"
	p := FromRow(ProspectRow{
		ID:         &id,
		Name:       "Tom",
		Position:   "LB",
		Status:     "offer",
		Evaluation: &evalJSON,
	})

	assert.Equal(t, model.StatusOffered, p.Status)
	require.NotNil(t, p.Evaluation)
	assert.Equal(t, 64, p.Evaluation.Score)
	assert.Equal(t, []string{"vision"}, p.Evaluation.Strengths)
	require.NotNil(t, p.RemoteID)
	assert.Equal(t, "r-1", *p.RemoteID)
	assert.Equal(t, model.ActivityNone, p.ActivityStatus, "blank activity defaults to none")
}

func TestInsertProspectSendsBearerAndReadsRepresentation(t *testing.T) {
	var gotAuth, gotPrefer string
	svc := newRemoteFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPrefer = r.Header.Get("Prefer")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/players", r.URL.Path)

		var row ProspectRow
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		id := "assigned-1"
		row.ID = &id
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]ProspectRow{row})
	})

	remoteID, err := svc.InsertProspect(context.Background(), &model.Prospect{
		UUIDBase: model.UUIDBase{ID: "local-1"},
		Name:     "Ana",
		Position: "ST",
		Status:   model.StatusLead,
	})
	require.NoError(t, err)
	assert.Equal(t, "assigned-1", remoteID)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "return=representation", gotPrefer)
}

func TestPatchProspectSendsOnlyChangedColumns(t *testing.T) {
	var gotBody map[string]interface{}
	var gotQuery string
	svc := newRemoteFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.WriteHeader(http.StatusNoContent)
	})

	status := model.StatusPlaced
	location := "Lisbon"
	err := svc.PatchProspect(context.Background(), "r-7", ProspectPatch{
		Status:         &status,
		PlacedLocation: &location,
	})
	require.NoError(t, err)

	assert.Equal(t, "id=eq.r-7", gotQuery)
	assert.Equal(t, map[string]interface{}{
		"status":          "placed",
		"placed_location": "Lisbon",
	}, gotBody, "unchanged columns must not appear in the patch")
}

func TestServerErrorsClassifyAsUnavailable(t *testing.T) {
	svc := newRemoteFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	err := svc.Ping(context.Background())
	assert.ErrorIs(t, err, util.ErrRemoteUnavailable)
}

func TestClientErrorsClassifyAsRejection(t *testing.T) {
	svc := newRemoteFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("age must be positive"))
	})

	_, err := svc.InsertProspect(context.Background(), &model.Prospect{Name: "X", Position: "CB", Status: model.StatusLead})
	require.Error(t, err)
	assert.NotErrorIs(t, err, util.ErrRemoteUnavailable)

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, http.StatusUnprocessableEntity, rejection.StatusCode)
	assert.Contains(t, rejection.Message, "age must be positive")
}

func TestConnectionRefusedClassifiesAsUnavailable(t *testing.T) {
	svc := NewRemoteStoreService(config.RemoteStoreConfig{
		BaseURL:        "http://127.0.0.1:1",
		APIKey:         "test-key",
		Table:          "players",
		RequestTimeout: time.Second,
	})
	err := svc.Ping(context.Background())
	assert.ErrorIs(t, err, util.ErrRemoteUnavailable)
}
