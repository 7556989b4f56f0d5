package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/mmr/pkg/logger"
)

// Retry policy for throttled submissions.
const (
	maxAttempts  = 3
	retryBackoff = 50 * time.Millisecond
)

// outcome classifies one submission.
type outcome int

const (
	outcomeRated outcome = iota
	outcomeDuplicate
	outcomeRejected
	outcomeThrottled
	outcomeFailed
)

// HTTPClient wraps http.Client with JSON helpers bound to a base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client for the service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request and returns the status and body.
func (c *HTTPClient) Get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// GetJSON performs a GET and decodes a 200 response into v.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, v any) error {
	status, body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d: %s", path, status, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GET %s: failed to parse response: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// submitMatches posts matches concurrently and tallies the outcomes.
func submitMatches(ctx context.Context, config *Config, client *HTTPClient, matches []Match, stats *Stats) {
	log := logger.Get()
	log.Info(ctx, "submitting matches",
		logger.Int("matches", len(matches)),
		logger.Int("workers", config.Workers))

	var counts [outcomeFailed + 1]atomic.Int64
	jobs := make(chan Match, config.Workers*2)

	var wg sync.WaitGroup
	for range config.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				res := submitMatch(ctx, client, m)
				counts[res].Add(1)
				if res != outcomeRated && config.Verbose {
					log.Warn(ctx, "match not rated",
						logger.String("match_id", m.MatchID),
						logger.Int("outcome", int(res)))
				}
			}
		}()
	}

	func() {
		defer close(jobs)
		for _, m := range matches {
			select {
			case <-ctx.Done():
				return
			case jobs <- m:
			}
		}
	}()
	wg.Wait()

	stats.MatchesRated = int(counts[outcomeRated].Load())
	stats.MatchesDuplicate = int(counts[outcomeDuplicate].Load())
	stats.MatchesRejected = int(counts[outcomeRejected].Load())
	stats.MatchesThrottled = int(counts[outcomeThrottled].Load())
	stats.MatchesFailed = int(counts[outcomeFailed].Load())
	stats.MatchesSubmitted = stats.MatchesRated + stats.MatchesDuplicate +
		stats.MatchesRejected + stats.MatchesThrottled + stats.MatchesFailed

	log.Info(ctx, "match submission completed",
		logger.Int("rated", stats.MatchesRated),
		logger.Int("duplicate", stats.MatchesDuplicate),
		logger.Int("rejected", stats.MatchesRejected),
		logger.Int("throttled", stats.MatchesThrottled),
		logger.Int("failed", stats.MatchesFailed))
}

// submitMatch posts one match, retrying while the service applies
// backpressure.
func submitMatch(ctx context.Context, client *HTTPClient, m Match) outcome {
	for attempt := 1; ; attempt++ {
		status, _, err := client.Post(ctx, "/matches", m)
		if err != nil {
			return outcomeFailed
		}
		switch status {
		case http.StatusOK:
			return outcomeRated
		case http.StatusConflict:
			return outcomeDuplicate
		case http.StatusUnprocessableEntity:
			return outcomeRejected
		case http.StatusTooManyRequests:
			if attempt == maxAttempts {
				return outcomeThrottled
			}
			select {
			case <-ctx.Done():
				return outcomeThrottled
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		default:
			return outcomeFailed
		}
	}
}
