// Package server exposes the prediction engine over HTTP: public
// prediction/pattern/backtest/ranking endpoints and admin-only
// training/rollback endpoints.
package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lotobonheur/predictor/internal/algorithms"
	"github.com/lotobonheur/predictor/internal/cache"
	"github.com/lotobonheur/predictor/internal/ensemble"
	"github.com/lotobonheur/predictor/internal/tuning"
	"github.com/lotobonheur/predictor/models"
)

// Store is the persistence surface the handlers read from.
type Store interface {
	GetDraws(drawName string, limit int) ([]models.DrawResult, error)
	Rankings() ([]models.AlgorithmRanking, error)
}

// Trainer drives the admin training and rollback operations.
type Trainer interface {
	Train() (*tuning.Report, error)
	Rollback(runAt time.Time) (int, error)
}

// Options wires the server's collaborators.
type Options struct {
	Store        Store
	Trainer      Trainer
	Cache        *cache.Cache
	Registry     *algorithms.Registry
	Ensemble     *ensemble.Ensemble
	JWTSecret    string
	HistoryLimit int
}

// Server holds the request handlers and their dependencies.
type Server struct {
	store        Store
	trainer      Trainer
	cache        *cache.Cache
	registry     *algorithms.Registry
	ensemble     *ensemble.Ensemble
	jwtSecret    string
	historyLimit int
	logger       zerolog.Logger
	now          func() time.Time
}

// New builds a Server; nil Cache disables caching.
func New(opts Options) *Server {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 300
	}
	return &Server{
		store:        opts.Store,
		trainer:      opts.Trainer,
		cache:        opts.Cache,
		registry:     opts.Registry,
		ensemble:     opts.Ensemble,
		jwtSecret:    opts.JWTSecret,
		historyLimit: opts.HistoryLimit,
		logger:       log.With().Str("component", "server").Logger(),
		now:          time.Now,
	}
}

// Router assembles the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(s.logger))

	router.GET("/health", s.handleHealth)

	api := router.Group("/api/v1")
	{
		api.POST("/predictions", s.handlePredictions)
		api.GET("/patterns", s.handlePatterns)
		api.POST("/backtest", s.handleBacktest)
		api.GET("/rankings", s.handleRankings)

		admin := api.Group("/admin")
		admin.Use(AdminAuth(s.jwtSecret))
		{
			admin.POST("/train", s.handleTrain)
			admin.POST("/rollback", s.handleRollback)
		}
	}

	return router
}

// loadHistory reads draw history through the cache when one is configured.
func (s *Server) loadHistory(drawName string) ([]models.DrawResult, error) {
	key := "history:" + drawName
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.([]models.DrawResult), nil
		}
	}

	draws, err := s.store.GetDraws(drawName, s.historyLimit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, draws)
	}
	return draws, nil
}
