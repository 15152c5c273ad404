package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotobonheur/predictor/internal/algorithms"
	"github.com/lotobonheur/predictor/internal/cache"
	"github.com/lotobonheur/predictor/internal/ensemble"
	"github.com/lotobonheur/predictor/internal/tuning"
	"github.com/lotobonheur/predictor/models"
)

const testSecret = "test-secret"

var testNow = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	draws    map[string][]models.DrawResult
	rankings []models.AlgorithmRanking
	err      error
	getCalls int
}

func (f *fakeStore) GetDraws(drawName string, limit int) ([]models.DrawResult, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.draws[drawName], nil
}

func (f *fakeStore) Rankings() ([]models.AlgorithmRanking, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rankings, nil
}

type fakeTrainer struct {
	report    *tuning.Report
	restored  int
	err       error
	trainRuns int
}

func (f *fakeTrainer) Train() (*tuning.Report, error) {
	f.trainRuns++
	return f.report, f.err
}

func (f *fakeTrainer) Rollback(runAt time.Time) (int, error) {
	return f.restored, f.err
}

func generateTestDraws(n int, generator func(int) models.DrawResult) []models.DrawResult {
	draws := make([]models.DrawResult, n)
	for i := 0; i < n; i++ {
		draws[i] = generator(i)
	}
	return draws
}

func freshDraws(n int, now time.Time) []models.DrawResult {
	return generateTestDraws(n, func(i int) models.DrawResult {
		base := (i * 7) % 80
		return models.DrawResult{
			DrawName:       "Reveil",
			DrawDate:       now.Add(-time.Duration(i) * 24 * time.Hour),
			WinningNumbers: []int{base + 1, base + 3, base + 5, base + 8, base + 11},
		}
	})
}

func newTestServer(store Store, trainer Trainer) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	s := New(Options{
		Store:     store,
		Trainer:   trainer,
		Registry:  algorithms.NewRegistry(),
		Ensemble:  ensemble.New(),
		JWTSecret: testSecret,
	})
	s.now = func() time.Time { return testNow }
	return s, s.Router()
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	claims := adminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "tester",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doJSON(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	_, router := newTestServer(&fakeStore{}, &fakeTrainer{})
	w := doJSON(router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestPredictions(t *testing.T) {
	store := &fakeStore{draws: map[string][]models.DrawResult{
		"Reveil": freshDraws(60, testNow),
	}}
	_, router := newTestServer(store, &fakeTrainer{})

	w := doJSON(router, http.MethodPost, "/api/v1/predictions",
		gin.H{"draw_name": "Reveil"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp predictionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// Six catalog algorithms plus the ensemble.
	require.Len(t, resp.Predictions, 7)
	for _, p := range resp.Predictions {
		assert.Len(t, p.Numbers, 5)
		assert.NotEmpty(t, p.Algorithm)
	}
	for i := 1; i < len(resp.Predictions); i++ {
		assert.GreaterOrEqual(t, resp.Predictions[i-1].Score, resp.Predictions[i].Score)
	}
	assert.Len(t, resp.Explanations, 5)
	assert.Empty(t, resp.Warning)
}

func TestPredictionsThinHistoryWarns(t *testing.T) {
	store := &fakeStore{draws: map[string][]models.DrawResult{
		"Reveil": freshDraws(8, time.Now()),
	}}
	_, router := newTestServer(store, &fakeTrainer{})

	w := doJSON(router, http.MethodPost, "/api/v1/predictions",
		gin.H{"draw_name": "Reveil"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp predictionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Historique limité: les prédictions sont peu fiables", resp.Warning)
}

func TestPredictionsStaleHistoryWarns(t *testing.T) {
	stale := generateTestDraws(60, func(i int) models.DrawResult {
		base := (i * 7) % 80
		return models.DrawResult{
			DrawDate:       testNow.Add(-time.Duration(i+10) * 24 * time.Hour),
			WinningNumbers: []int{base + 1, base + 3, base + 5, base + 8, base + 11},
		}
	})
	store := &fakeStore{draws: map[string][]models.DrawResult{"Reveil": stale}}
	_, router := newTestServer(store, &fakeTrainer{})

	w := doJSON(router, http.MethodPost, "/api/v1/predictions",
		gin.H{"draw_name": "Reveil"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp predictionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Warning)
}

func TestPredictionsWithCompanion(t *testing.T) {
	now := time.Now()
	store := &fakeStore{draws: map[string][]models.DrawResult{
		"Reveil": freshDraws(60, now),
		"Etoile": freshDraws(60, now),
	}}
	_, router := newTestServer(store, &fakeTrainer{})

	w := doJSON(router, http.MethodPost, "/api/v1/predictions",
		gin.H{"draw_name": "Reveil", "companion": "Etoile"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp predictionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// Catalog + cross-draw + ensemble.
	require.Len(t, resp.Predictions, 8)
	found := false
	for _, p := range resp.Predictions {
		if p.Algorithm == "Corrélation Croisée" {
			found = true
		}
	}
	assert.True(t, found, "companion request must include the cross-draw prediction")
}

func TestPredictionsValidation(t *testing.T) {
	_, router := newTestServer(&fakeStore{}, &fakeTrainer{})

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing draw_name", gin.H{}},
		{"illegal characters", gin.H{"draw_name": "Reveil; DROP TABLE draws"}},
		{"too long", gin.H{"draw_name": "Reveil-Reveil-Reveil-Reveil-Reveil-Reveil-Reveil-Reveil"}},
		{"bad companion", gin.H{"draw_name": "Reveil", "companion": "Etoile\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/v1/predictions", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPredictionsStoreErrorIsOpaque(t *testing.T) {
	store := &fakeStore{err: errors.New("pq: connection refused")}
	_, router := newTestServer(store, &fakeTrainer{})

	w := doJSON(router, http.MethodPost, "/api/v1/predictions",
		gin.H{"draw_name": "Reveil"}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Contains(t, w.Body.String(), "erreur interne")
}

func TestPatterns(t *testing.T) {
	store := &fakeStore{draws: map[string][]models.DrawResult{
		"Reveil": freshDraws(40, time.Now()),
	}}
	_, router := newTestServer(store, &fakeTrainer{})

	w := doJSON(router, http.MethodGet, "/api/v1/patterns?draw=Reveil", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Patterns   []models.Pattern `json:"patterns"`
		Suggestion []int            `json:"suggestion"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Suggestion, 5)
}

func TestPatternsRejectsBadDraw(t *testing.T) {
	_, router := newTestServer(&fakeStore{}, &fakeTrainer{})
	w := doJSON(router, http.MethodGet, "/api/v1/patterns?draw=", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBacktest(t *testing.T) {
	store := &fakeStore{draws: map[string][]models.DrawResult{
		"Reveil": freshDraws(80, time.Now()),
	}}
	_, router := newTestServer(store, &fakeTrainer{})

	w := doJSON(router, http.MethodPost, "/api/v1/backtest",
		gin.H{"draw_name": "Reveil", "algorithm": "Fréquence Pondérée"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.BacktestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Fréquence Pondérée", result.Algorithm)
	assert.Equal(t, 20, result.TestPoints)
}

func TestBacktestUnknownAlgorithm(t *testing.T) {
	_, router := newTestServer(&fakeStore{}, &fakeTrainer{})
	w := doJSON(router, http.MethodPost, "/api/v1/backtest",
		gin.H{"draw_name": "Reveil", "algorithm": "Boule de Cristal"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "algorithme inconnu")
}

func TestRankings(t *testing.T) {
	store := &fakeStore{rankings: []models.AlgorithmRanking{
		{Algorithm: "Fréquence Pondérée", Weight: 1.2},
	}}
	_, router := newTestServer(store, &fakeTrainer{})

	w := doJSON(router, http.MethodGet, "/api/v1/rankings", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Fréquence Pondérée")
}

func TestAdminAuth(t *testing.T) {
	trainer := &fakeTrainer{report: &tuning.Report{}}
	_, router := newTestServer(&fakeStore{}, trainer)

	t.Run("missing token", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/admin/train", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 0, trainer.trainRuns)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/admin/train", nil,
			map[string]string{"Authorization": "Bearer not-a-jwt"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/admin/train", nil,
			map[string]string{"Authorization": "Bearer " + adminToken(t, "viewer")})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 0, trainer.trainRuns)
	})

	t.Run("admin role", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/admin/train", nil,
			map[string]string{"Authorization": "Bearer " + adminToken(t, "admin")})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, trainer.trainRuns)
	})
}

func TestRollback(t *testing.T) {
	trainer := &fakeTrainer{restored: 6}
	_, router := newTestServer(&fakeStore{}, trainer)
	auth := map[string]string{"Authorization": "Bearer " + adminToken(t, "admin")}

	t.Run("requires confirmation", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/admin/rollback",
			gin.H{"timestamp": "2025-08-15T06:00:00Z"}, auth)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "confirmation explicite requise")
	})

	t.Run("rejects bad timestamp", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/admin/rollback",
			gin.H{"timestamp": "hier", "confirm": true}, auth)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("confirmed", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/admin/rollback",
			gin.H{"timestamp": "2025-08-15T06:00:00Z", "confirm": true}, auth)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"restored":6`)
	})
}

func TestLoadHistoryReadsThroughCache(t *testing.T) {
	store := &fakeStore{draws: map[string][]models.DrawResult{
		"Reveil": freshDraws(60, testNow),
	}}
	c := cache.New(8, time.Minute, time.Minute)
	defer c.Stop()

	gin.SetMode(gin.TestMode)
	s := New(Options{
		Store:     store,
		Trainer:   &fakeTrainer{},
		Cache:     c,
		Registry:  algorithms.NewRegistry(),
		Ensemble:  ensemble.New(),
		JWTSecret: testSecret,
	})
	s.now = func() time.Time { return testNow }
	router := s.Router()

	for i := 0; i < 3; i++ {
		w := doJSON(router, http.MethodPost, "/api/v1/predictions",
			gin.H{"draw_name": "Reveil"}, nil)
		require.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("request %d", i))
	}

	assert.Equal(t, 1, store.getCalls, "repeat requests must be served from cache")
}
