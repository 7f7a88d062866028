// Package oracle is the HTTP client of the external difficulty predictor.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
)

type predictRequest struct {
	CurrentDifficulty int  `json:"current_difficulty"`
	WasCorrect        bool `json:"was_correct"`
	TimeTaken         int  `json:"time_taken"`
}

type predictResponse struct {
	PredictedDifficulty string `json:"predicted_difficulty"`
}

// Client calls the predict-difficulty endpoint.
type Client struct {
	url  string
	http *http.Client
	log  zerolog.Logger
}

// NewClient creates a client for url. timeout bounds every call, on top of
// any deadline carried by the caller's context.
func NewClient(url string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  log.With().Str("component", "oracle").Logger(),
	}
}

// Predict asks which tier should follow an answer. Every failure wraps
// quiz.ErrOracleUnavailable.
func (c *Client) Predict(ctx context.Context, current model.Tier, wasCorrect bool, secondsTaken int) (model.Tier, error) {
	body, err := json.Marshal(predictRequest{
		CurrentDifficulty: current.Numeric(),
		WasCorrect:        wasCorrect,
		TimeTaken:         secondsTaken,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", quiz.ErrOracleUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", quiz.ErrOracleUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", quiz.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("%w: status %d: %s", quiz.ErrOracleUnavailable, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", quiz.ErrOracleUnavailable, err)
	}

	tier, ok := model.ParseTier(out.PredictedDifficulty)
	if !ok {
		return "", fmt.Errorf("%w: unknown tier %q", quiz.ErrOracleUnavailable, out.PredictedDifficulty)
	}

	c.log.Debug().
		Str("current", string(current)).
		Bool("was_correct", wasCorrect).
		Int("time_taken", secondsTaken).
		Str("predicted", string(tier)).
		Dur("took", time.Since(start)).
		Msg("Difficulty predicted")

	return tier, nil
}
