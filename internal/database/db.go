package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/lotobonheur/predictor/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS draws (
			id SERIAL PRIMARY KEY,
			draw_name TEXT NOT NULL,
			draw_date DATE NOT NULL,
			winning_numbers INTEGER[] NOT NULL,
			machine_numbers INTEGER[],
			UNIQUE (draw_name, draw_date)
		)`,
		`CREATE TABLE IF NOT EXISTS algorithm_configs (
			algorithm TEXT PRIMARY KEY,
			weight DOUBLE PRECISION NOT NULL,
			parameters JSONB NOT NULL,
			is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS algorithm_performance (
			id SERIAL PRIMARY KEY,
			algorithm TEXT NOT NULL,
			draw_name TEXT NOT NULL,
			predicted_numbers INTEGER[] NOT NULL,
			winning_numbers INTEGER[] NOT NULL,
			match_count INTEGER NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL,
			f1_score DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			execution_ms BIGINT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS training_history (
			id SERIAL PRIMARY KEY,
			run_at TIMESTAMP NOT NULL,
			algorithm TEXT NOT NULL,
			previous_weight DOUBLE PRECISION NOT NULL,
			new_weight DOUBLE PRECISION NOT NULL,
			previous_parameters JSONB NOT NULL,
			new_parameters JSONB NOT NULL,
			improvement_pct DOUBLE PRECISION NOT NULL,
			composite_score DOUBLE PRECISION NOT NULL,
			accuracy_variance DOUBLE PRECISION NOT NULL,
			applied BOOLEAN NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertDraw stores one draw; conflicting (draw_name, draw_date) rows are
// left untouched since published results never change.
func (db *DB) InsertDraw(d models.DrawResult) error {
	if err := d.Validate(); err != nil {
		return err
	}

	_, err := db.Exec(`
		INSERT INTO draws (draw_name, draw_date, winning_numbers, machine_numbers)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (draw_name, draw_date) DO NOTHING
	`, d.DrawName, d.DrawDate, pq.Array(toInt64(d.WinningNumbers)), pq.Array(toInt64(d.MachineNumbers)))

	return err
}

// GetDraws returns up to limit draws for a schedule, most recent first.
func (db *DB) GetDraws(drawName string, limit int) ([]models.DrawResult, error) {
	rows, err := db.Query(`
		SELECT draw_name, draw_date, winning_numbers, machine_numbers
		FROM draws
		WHERE draw_name = $1
		ORDER BY draw_date DESC
		LIMIT $2
	`, drawName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var draws []models.DrawResult
	for rows.Next() {
		var d models.DrawResult
		var winning, machine []int64
		if err := rows.Scan(&d.DrawName, &d.DrawDate, pq.Array(&winning), pq.Array(&machine)); err != nil {
			return nil, err
		}
		d.WinningNumbers = toInt(winning)
		d.MachineNumbers = toInt(machine)
		draws = append(draws, d)
	}
	return draws, rows.Err()
}

// GetConfig retrieves one algorithm's config, nil when untrained.
func (db *DB) GetConfig(algorithm string) (*models.AlgorithmConfig, error) {
	var cfg models.AlgorithmConfig
	var params []byte

	err := db.QueryRow(`
		SELECT algorithm, weight, parameters, is_enabled, updated_at
		FROM algorithm_configs
		WHERE algorithm = $1
	`, algorithm).Scan(&cfg.Algorithm, &cfg.Weight, &params, &cfg.IsEnabled, &cfg.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(params, &cfg.Params); err != nil {
		return nil, fmt.Errorf("decoding parameters for %s: %w", algorithm, err)
	}
	return &cfg, nil
}

// GetConfigs returns every persisted algorithm config.
func (db *DB) GetConfigs() ([]models.AlgorithmConfig, error) {
	rows, err := db.Query(`
		SELECT algorithm, weight, parameters, is_enabled, updated_at
		FROM algorithm_configs
		ORDER BY algorithm
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []models.AlgorithmConfig
	for rows.Next() {
		var cfg models.AlgorithmConfig
		var params []byte
		if err := rows.Scan(&cfg.Algorithm, &cfg.Weight, &params, &cfg.IsEnabled, &cfg.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(params, &cfg.Params); err != nil {
			return nil, fmt.Errorf("decoding parameters for %s: %w", cfg.Algorithm, err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// UpsertConfig writes an algorithm's config, creating it when absent.
func (db *DB) UpsertConfig(cfg models.AlgorithmConfig) error {
	if err := cfg.Params.Validate(); err != nil {
		return fmt.Errorf("invalid parameters for %s: %w", cfg.Algorithm, err)
	}
	params, err := json.Marshal(cfg.Params)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO algorithm_configs (algorithm, weight, parameters, is_enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (algorithm)
		DO UPDATE SET
			weight = EXCLUDED.weight,
			parameters = EXCLUDED.parameters,
			is_enabled = EXCLUDED.is_enabled,
			updated_at = EXCLUDED.updated_at
	`, cfg.Algorithm, cfg.Weight, params, cfg.IsEnabled, cfg.UpdatedAt)

	return err
}

// InsertPerformance appends one evaluated prediction row.
func (db *DB) InsertPerformance(rec models.PerformanceRecord) error {
	var executionMs sql.NullInt64
	if rec.ExecutionMs > 0 {
		executionMs = sql.NullInt64{Int64: rec.ExecutionMs, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO algorithm_performance (
			algorithm, draw_name, predicted_numbers, winning_numbers,
			match_count, accuracy, f1_score, confidence, execution_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.Algorithm, rec.DrawName, pq.Array(toInt64(rec.Predicted)), pq.Array(toInt64(rec.Winning)),
		rec.MatchCount, rec.Accuracy, rec.F1Score, rec.Confidence, executionMs, rec.CreatedAt)

	return err
}

// GetPerformance returns evaluated rows most recent first, optionally
// filtered by algorithm and draw schedule.
func (db *DB) GetPerformance(algorithm, drawName string, limit int) ([]models.PerformanceRecord, error) {
	rows, err := db.Query(`
		SELECT id, algorithm, draw_name, predicted_numbers, winning_numbers,
			match_count, accuracy, f1_score, confidence, execution_ms, created_at
		FROM algorithm_performance
		WHERE ($1 = '' OR algorithm = $1)
		  AND ($2 = '' OR draw_name = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, algorithm, drawName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.PerformanceRecord
	for rows.Next() {
		var rec models.PerformanceRecord
		var predicted, winning []int64
		var executionMs sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.Algorithm, &rec.DrawName,
			pq.Array(&predicted), pq.Array(&winning),
			&rec.MatchCount, &rec.Accuracy, &rec.F1Score, &rec.Confidence,
			&executionMs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Predicted = toInt(predicted)
		rec.Winning = toInt(winning)
		if executionMs.Valid {
			rec.ExecutionMs = executionMs.Int64
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// InsertTrainingEntries appends the audit rows of one training run.
func (db *DB) InsertTrainingEntries(entries []models.TrainingHistoryEntry) error {
	for _, e := range entries {
		prevParams, err := json.Marshal(e.PreviousParams)
		if err != nil {
			return err
		}
		newParams, err := json.Marshal(e.NewParams)
		if err != nil {
			return err
		}

		_, err = db.Exec(`
			INSERT INTO training_history (
				run_at, algorithm, previous_weight, new_weight,
				previous_parameters, new_parameters,
				improvement_pct, composite_score, accuracy_variance, applied
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, e.RunAt, e.Algorithm, e.PreviousWeight, e.NewWeight,
			prevParams, newParams, e.ImprovementPct, e.CompositeScore, e.AccuracyVariance, e.Applied)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetTrainingEntriesAt returns the audit rows of the run at runAt.
func (db *DB) GetTrainingEntriesAt(runAt time.Time) ([]models.TrainingHistoryEntry, error) {
	rows, err := db.Query(`
		SELECT id, run_at, algorithm, previous_weight, new_weight,
			previous_parameters, new_parameters,
			improvement_pct, composite_score, accuracy_variance, applied
		FROM training_history
		WHERE run_at = $1
	`, runAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TrainingHistoryEntry
	for rows.Next() {
		var e models.TrainingHistoryEntry
		var prevParams, newParams []byte
		if err := rows.Scan(&e.ID, &e.RunAt, &e.Algorithm, &e.PreviousWeight, &e.NewWeight,
			&prevParams, &newParams, &e.ImprovementPct, &e.CompositeScore,
			&e.AccuracyVariance, &e.Applied); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(prevParams, &e.PreviousParams); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(newParams, &e.NewParams); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Rankings aggregates performance per algorithm, joined with the current
// weight, best average accuracy first.
func (db *DB) Rankings() ([]models.AlgorithmRanking, error) {
	rows, err := db.Query(`
		SELECT p.algorithm,
			COALESCE(c.weight, 1.0),
			AVG(p.accuracy),
			COUNT(*)
		FROM algorithm_performance p
		LEFT JOIN algorithm_configs c ON c.algorithm = p.algorithm
		GROUP BY p.algorithm, c.weight
		ORDER BY AVG(p.accuracy) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rankings []models.AlgorithmRanking
	for rows.Next() {
		var r models.AlgorithmRanking
		if err := rows.Scan(&r.Algorithm, &r.Weight, &r.AvgAccuracy, &r.Evaluations); err != nil {
			return nil, err
		}
		rankings = append(rankings, r)
	}
	return rankings, rows.Err()
}

func toInt64(nums []int) []int64 {
	if nums == nil {
		return nil
	}
	out := make([]int64, len(nums))
	for i, n := range nums {
		out[i] = int64(n)
	}
	return out
}

func toInt(nums []int64) []int {
	if nums == nil {
		return nil
	}
	out := make([]int, len(nums))
	for i, n := range nums {
		out[i] = int(n)
	}
	return out
}
