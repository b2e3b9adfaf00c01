// Package ai talks to the external language-model service that turns a
// player's aggregated statistics into a written summary.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/zanshin/internal/domain/summary"
	"github.com/okian/zanshin/pkg/logger"
	"github.com/okian/zanshin/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout        = 30 * time.Second
	defaultRequestsPerMin = 20
	maxResponseBytes      = 1 << 20
)

// Result is the service's answer to a summary or follow-up request.
type Result struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// Client produces natural-language summaries from aggregated statistics.
type Client interface {
	// Summarize sends the stats payload and returns the generated text
	// together with a session id usable for follow-up questions.
	Summarize(ctx context.Context, p summary.Payload) (Result, error)

	// FollowUp asks a question within an existing summary session.
	FollowUp(ctx context.Context, sessionID, question string) (Result, error)
}

// HTTPClient implements Client against an HTTP endpoint.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client with configuration options.
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}

	c := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(float64(defaultRequestsPerMin)/60.0), 1),
		logger:  logger.Get().Named("ai"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type summarizeRequest struct {
	Payload summary.Payload `json:"payload"`
}

type followUpRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// Summarize sends the stats payload to the summary endpoint.
func (c *HTTPClient) Summarize(ctx context.Context, p summary.Payload) (Result, error) {
	return c.post(ctx, "/v1/summaries", summarizeRequest{Payload: p})
}

// FollowUp asks a question within an existing session.
func (c *HTTPClient) FollowUp(ctx context.Context, sessionID, question string) (Result, error) {
	if sessionID == "" {
		return Result{}, ErrNoSession
	}
	return c.post(ctx, "/v1/summaries/follow-up", followUpRequest{
		SessionID: sessionID,
		Question:  question,
	})
}

func (c *HTTPClient) post(ctx context.Context, path string, body any) (Result, error) {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordSummaryLatency(float64(latency))
	}()

	metrics.RecordSummaryRequest()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordSummaryError()
		return Result{}, fmt.Errorf("rate limit wait: %w", err)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		metrics.RecordSummaryError()
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		metrics.RecordSummaryError()
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordSummaryError()
		c.logger.Error(ctx, "summary request failed", logger.String("path", path), logger.Error(err))
		return Result{}, fmt.Errorf("summary request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.RecordSummaryError()
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.RecordSummaryError()
		c.logger.Error(ctx, "summary service returned an error",
			logger.String("path", path),
			logger.Int("status", resp.StatusCode),
		)
		return Result{}, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		metrics.RecordSummaryError()
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	return res, nil
}
