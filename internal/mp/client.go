// Package mp is a client for the Materials Project style summary API:
// structure lookups by chemical formula, authenticated with an API key.
package mp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kalambet/crysfetch/internal/structure"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.materialsproject.org"

const summaryFields = "material_id,formula_pretty,volume,band_gap,structure"

// Config holds client settings. Zero values fall back to production
// defaults, except RequestDelay where zero disables pacing.
type Config struct {
	APIKey  string
	BaseURL string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the total number of attempts per search. Between
	// attempts the client waits Backoff * BackoffFactor^(failures-1).
	MaxRetries    int
	BackoffFactor float64
	Backoff       time.Duration

	// BatchSize and RequestDelay throttle the request budget: after every
	// BatchSize issued requests the client pauses for RequestDelay.
	BatchSize    int
	RequestDelay time.Duration
}

// Client queries the materials summary endpoint. It is not safe for
// concurrent use: request pacing counts issued requests.
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	timeout       time.Duration
	maxRetries    int
	backoff       time.Duration
	backoffFactor float64
	batchSize     int
	requestDelay  time.Duration

	sleep    func(ctx context.Context, d time.Duration) error
	requests int
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 2
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.RequestDelay < 0 {
		cfg.RequestDelay = 0
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		httpClient:    &http.Client{},
		timeout:       cfg.Timeout,
		maxRetries:    cfg.MaxRetries,
		backoff:       cfg.Backoff,
		backoffFactor: cfg.BackoffFactor,
		batchSize:     cfg.BatchSize,
		requestDelay:  cfg.RequestDelay,
		sleep:         sleepCtx,
	}
}

// SummaryDoc is one materials database summary record. Structure is nil
// when the record carries no structure payload.
type SummaryDoc struct {
	MaterialID string
	Formula    string
	Volume     float64
	BandGap    float64
	Structure  *structure.Structure
}

// SummarySearch looks up the first summary record matching the formula.
// It returns ErrNotFound when the database has no entry, an *AuthError on a
// rejected key, and a *RequestError for any other failed request; transient
// failures are retried before one is reported. Context cancellation is
// returned as-is.
func (c *Client) SummarySearch(ctx context.Context, formula string) (*SummaryDoc, error) {
	if strings.TrimSpace(formula) == "" {
		return nil, ErrEmptyFormula
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(c.backoffFactor, float64(attempt-1)) * float64(c.backoff))
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		doc, err := c.summaryOnce(ctx, formula)
		if err == nil {
			return doc, nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var sErr *statusError
		if errors.As(err, &sErr) && !sErr.retryable() {
			return nil, &RequestError{Formula: formula, Attempts: attempt + 1, Err: err}
		}
		lastErr = err
	}
	return nil, &RequestError{Formula: formula, Attempts: c.maxRetries, Err: lastErr}
}

// pace enforces the request budget: after every batchSize issued requests,
// wait requestDelay before the next one.
func (c *Client) pace(ctx context.Context) error {
	if c.requestDelay > 0 && c.requests > 0 && c.requests%c.batchSize == 0 {
		if err := c.sleep(ctx, c.requestDelay); err != nil {
			return err
		}
	}
	c.requests++
	return nil
}

func (c *Client) summaryOnce(ctx context.Context, formula string) (*SummaryDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("formula", formula)
	q.Set("_fields", summaryFields)
	q.Set("_limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/materials/summary?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating summary request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("materials summary request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &statusError{code: resp.StatusCode}
	}

	var body summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding summary response: %w", err)
	}
	if len(body.Data) == 0 {
		return nil, ErrNotFound
	}
	return body.Data[0].toDoc()
}

// statusError marks an unexpected HTTP status. Rate limiting and server
// errors are worth retrying; anything else is not.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
