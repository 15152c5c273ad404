// Package client fetches published draw results from the external results
// API. Read-only; the collector binary writes what it returns to the store.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/lotobonheur/predictor/models"
)

// Client wraps the results API with rate limiting and retries.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	logger     zerolog.Logger
}

// New creates a results client with rate limiting
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 5), // 5 requests per second
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log.With().Str("component", "results_client").Logger(),
	}
}

type resultsResponse struct {
	Success bool `json:"success"`
	Results []struct {
		DrawName       string `json:"drawName"`
		Date           string `json:"date"`
		WinningNumbers string `json:"winningNumbers"`
		MachineNumbers string `json:"machineNumbers"`
	} `json:"drawsResults"`
}

// FetchResults pulls the published draws for one month (format "2006-01").
// Rows that fail validation are skipped, not fatal.
func (c *Client) FetchResults(ctx context.Context, month string) ([]models.DrawResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	url := fmt.Sprintf("%s?month=%s", c.baseURL, month)
	c.logger.Debug().Str("url", url).Msg("Fetching draw results")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("non-200 status code: %d", resp.StatusCode)
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data resultsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if !data.Success {
		return nil, fmt.Errorf("results API reported failure")
	}

	var draws []models.DrawResult
	for _, r := range data.Results {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			c.logger.Warn().Str("date", r.Date).Msg("unparseable draw date, skipping")
			continue
		}
		winning, err := parseNumbers(r.WinningNumbers)
		if err != nil {
			c.logger.Warn().Str("draw", r.DrawName).Str("date", r.Date).Err(err).
				Msg("invalid winning numbers, skipping")
			continue
		}
		machine, _ := parseNumbers(r.MachineNumbers) // machine numbers are optional

		draw := models.DrawResult{
			DrawName:       r.DrawName,
			DrawDate:       date,
			WinningNumbers: winning,
			MachineNumbers: machine,
		}
		if err := draw.Validate(); err != nil {
			c.logger.Warn().Str("draw", r.DrawName).Str("date", r.Date).Err(err).
				Msg("invalid draw, skipping")
			continue
		}
		draws = append(draws, draw)
	}

	c.logger.Debug().Int("count", len(draws)).Msg("Fetched draw results")
	return draws, nil
}

// parseNumbers reads the "12-34-56-78-90" wire format.
func parseNumbers(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty number list")
	}
	parts := strings.Split(raw, "-")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", p, err)
		}
		nums = append(nums, n)
	}
	return nums, nil
}
