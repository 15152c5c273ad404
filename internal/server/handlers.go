package server

import (
	"net/http"
	"regexp"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lotobonheur/predictor/internal/algorithms"
	"github.com/lotobonheur/predictor/internal/backtest"
	"github.com/lotobonheur/predictor/internal/explain"
	"github.com/lotobonheur/predictor/internal/patterns"
	"github.com/lotobonheur/predictor/internal/stats"
	"github.com/lotobonheur/predictor/models"
)

// Draw names come from a small fixed schedule; letters, digits, spaces and
// hyphens only, at most 50 characters.
var drawNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{0,49}$`)

type predictionRequest struct {
	DrawName  string `json:"draw_name" binding:"required"`
	Companion string `json:"companion,omitempty"`
}

type predictionResponse struct {
	Predictions  []models.Prediction  `json:"predictions"`
	Explanations []models.Explanation `json:"explanations,omitempty"`
	Warning      string               `json:"warning,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePredictions(c *gin.Context) {
	var req predictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requête invalide", "reason": "draw_name manquant"})
		return
	}
	if !drawNameRe.MatchString(req.DrawName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requête invalide", "reason": "nom de tirage non reconnu"})
		return
	}
	if req.Companion != "" && !drawNameRe.MatchString(req.Companion) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requête invalide", "reason": "nom de tirage apparié non reconnu"})
		return
	}

	history, err := s.loadHistory(req.DrawName)
	if err != nil {
		s.logger.Error().Err(err).Str("draw", req.DrawName).Msg("history fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur interne"})
		return
	}

	registry := s.registry
	if req.Companion != "" {
		companion, err := s.loadHistory(req.Companion)
		if err != nil {
			s.logger.Error().Err(err).Str("draw", req.Companion).Msg("companion fetch failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur interne"})
			return
		}
		registry = algorithms.NewRegistry()
		registry.Register(algorithms.NewCrossDraw(req.Companion, companion))
	}

	preds := registry.RunAll(history)
	preds = append(preds, s.ensemble.Predict(history))
	sort.SliceStable(preds, func(i, j int) bool { return preds[i].Score > preds[j].Score })

	resp := predictionResponse{
		Predictions: preds,
		Warning:     s.historyWarning(history),
	}
	if len(preds) > 0 {
		resp.Explanations = explain.Explain(preds[0].Numbers, history)
	}

	c.JSON(http.StatusOK, resp)
}

// historyWarning flags thin, low-quality or stale histories.
func (s *Server) historyWarning(history []models.DrawResult) string {
	if len(history) < 20 {
		return "Historique limité: les prédictions sont peu fiables"
	}
	now := s.now()
	if stats.DataQuality(history, now) < 0.5 {
		return "Qualité des données insuffisante: prédictions à interpréter avec prudence"
	}
	if now.Sub(history[0].DrawDate) > 7*24*time.Hour {
		return "Données anciennes: le dernier tirage date de plus de 7 jours"
	}
	return ""
}

func (s *Server) handlePatterns(c *gin.Context) {
	drawName := c.Query("draw")
	if !drawNameRe.MatchString(drawName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requête invalide", "reason": "nom de tirage non reconnu"})
		return
	}

	history, err := s.loadHistory(drawName)
	if err != nil {
		s.logger.Error().Err(err).Str("draw", drawName).Msg("history fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur interne"})
		return
	}

	found := patterns.Detect(history)
	c.JSON(http.StatusOK, gin.H{
		"patterns":   found,
		"suggestion": patterns.PredictFromPatterns(found),
	})
}

type backtestRequest struct {
	DrawName   string `json:"draw_name" binding:"required"`
	Algorithm  string `json:"algorithm" binding:"required"`
	WindowSize int    `json:"window_size,omitempty"`
}

func (s *Server) handleBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requête invalide", "reason": "champs manquants"})
		return
	}
	if !drawNameRe.MatchString(req.DrawName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requête invalide", "reason": "nom de tirage non reconnu"})
		return
	}

	algo, ok := s.registry.Get(req.Algorithm)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requête invalide", "reason": "algorithme inconnu"})
		return
	}

	history, err := s.loadHistory(req.DrawName)
	if err != nil {
		s.logger.Error().Err(err).Str("draw", req.DrawName).Msg("history fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur interne"})
		return
	}

	result := backtest.Run(func(h []models.DrawResult) models.Prediction {
		return algorithms.Run(algo, h)
	}, algo.Name(), history, req.WindowSize)

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRankings(c *gin.Context) {
	rankings, err := s.store.Rankings()
	if err != nil {
		s.logger.Error().Err(err).Msg("rankings fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur interne"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rankings": rankings})
}

func (s *Server) handleTrain(c *gin.Context) {
	report, err := s.trainer.Train()
	if err != nil {
		s.logger.Error().Err(err).Msg("training run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur interne"})
		return
	}
	c.JSON(http.StatusOK, report)
}

type rollbackRequest struct {
	Timestamp string `json:"timestamp" binding:"required"`
	Confirm   bool   `json:"confirm"`
}

func (s *Server) handleRollback(c *gin.Context) {
	var req rollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requête invalide", "reason": "timestamp manquant"})
		return
	}
	if !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requête invalide", "reason": "confirmation explicite requise"})
		return
	}

	runAt, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requête invalide", "reason": "timestamp illisible"})
		return
	}

	restored, err := s.trainer.Rollback(runAt)
	if err != nil {
		s.logger.Error().Err(err).Time("run_at", runAt).Msg("rollback failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur interne"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"restored": restored})
}
