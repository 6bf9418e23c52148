package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/triage/biz"
	"github.com/pawsense/triage/internal/triage/handler"
	"github.com/pawsense/triage/internal/triage/router"
	"github.com/pawsense/triage/internal/triage/store"
)

// apiResponse mirrors the standard response envelope.
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kb := store.NewKnowledgeBase([]*model.Disease{
		{
			Name:         "Parvovirus",
			Species:      "Dog",
			Symptoms:     []string{"vomiting", "lethargy", "diarrhea"},
			Urgency:      model.UrgencyCritical,
			Contagious:   true,
			CareGuidance: "Isolate from other dogs and keep hydrated.",
			WhenToSeeVet: "Go to an emergency clinic immediately.",
		},
		{
			Name:     "Gastritis",
			Species:  "Dog",
			Symptoms: []string{"vomiting", "loss_of_appetite"},
			Urgency:  model.UrgencyModerate,
		},
	})
	vocab, err := store.NewVocabulary(
		map[string]string{"throwing up": "vomiting", "tired": "lethargy"},
		[]string{"vomiting", "lethargy", "diarrhea", "loss_of_appetite", "seizures"},
	)
	require.NoError(t, err)

	svc := biz.NewTriageService(
		biz.NewExtractor(vocab, nil, nil, nil, nil),
		biz.NewMatcher(kb, nil),
		biz.NewVerifier(nil, kb, nil),
		biz.NewReranker(kb),
		nil,
	)

	engine := gin.New()
	router.Register(engine, handler.NewTriageHandler(svc))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAssessEndpoint(t *testing.T) {
	engine := testEngine(t)

	w := doJSON(t, engine, http.MethodPost, "/v1/triage/assess", map[string]interface{}{
		"species":       "Dog",
		"pet_name":      "Rex",
		"symptoms_list": []string{"vomiting", "lethargy"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)

	var triageResp model.TriageResponse
	require.NoError(t, json.Unmarshal(resp.Data, &triageResp))
	require.NotEmpty(t, triageResp.Assessment.Diagnoses)
	assert.Equal(t, "Parvovirus", triageResp.Assessment.Diagnoses[0].Condition)
	assert.Equal(t, model.UrgencyCritical, triageResp.Assessment.OverallUrgency)
	assert.NotEmpty(t, triageResp.Report.CaseID)
}

func TestAssessEndpointValidation(t *testing.T) {
	engine := testEngine(t)

	tests := []struct {
		name       string
		payload    map[string]interface{}
		wantStatus int
	}{
		{
			name:       "missing species",
			payload:    map[string]interface{}{"symptoms_list": []string{"vomiting"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "nothing to assess",
			payload:    map[string]interface{}{"species": "Dog"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "no recognizable symptoms",
			payload:    map[string]interface{}{"species": "Dog", "user_notes": "he seems fine"},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, engine, http.MethodPost, "/v1/triage/assess", tt.payload)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAssessEndpointMalformedBody(t *testing.T) {
	engine := testEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/triage/assess", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractEndpoint(t *testing.T) {
	engine := testEngine(t)

	w := doJSON(t, engine, http.MethodPost, "/v1/triage/extract", map[string]interface{}{
		"species":    "Dog",
		"user_notes": "He keeps throwing up and seems very tired.",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	var result model.ExtractionResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Contains(t, result.CombinedSymptoms, "vomiting")
	assert.Contains(t, result.CombinedSymptoms, "lethargy")
}

func TestStatsEndpoint(t *testing.T) {
	engine := testEngine(t)

	w := doJSON(t, engine, http.MethodGet, "/v1/triage/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Contains(t, stats, "verdict_cache")
}

func TestHealthzEndpoint(t *testing.T) {
	engine := testEngine(t)

	w := doJSON(t, engine, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
