package distribution

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/opencourt/publication-svc/internal/config"
)

// attemptResult captures one HTTP attempt against a destination
type attemptResult struct {
	HTTPStatus *int
	Err        error
}

func (r *attemptResult) succeeded() bool {
	return r.Err == nil && r.HTTPStatus != nil &&
		*r.HTTPStatus >= 200 && *r.HTTPStatus < 300
}

// reason renders the failure as a human-readable cause, e.g. "404 Not Found"
func (r *attemptResult) reason() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	if r.HTTPStatus != nil {
		return fmt.Sprintf("%d %s", *r.HTTPStatus, http.StatusText(*r.HTTPStatus))
	}
	return "no HTTP status received"
}

// Client delivers one leg to a destination with a bounded retry/backoff
// policy: maxRetries retries after the first attempt, doubling the delay each
// time. A 2xx response returns immediately without consuming the budget.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	logger         *zap.Logger
}

func NewClient(cfg *config.DeliveryConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: time.Duration(cfg.InitialBackoffSeconds) * time.Second,
		logger:         logger,
	}
}

// Send delivers one leg to destinationURL, attaching the descriptive headers
// and a Bearer token when one is supplied. It returns the number of attempts
// made and a *DeliveryError once the retry budget is exhausted.
func (c *Client) Send(ctx context.Context, destinationURL string, leg Leg, headers map[string]string, bearer string) (int, error) {
	maxAttempts := c.maxRetries + 1
	backoff := c.initialBackoff

	var last *attemptResult
	attemptsMade := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptsMade = attempt
		last = c.attempt(ctx, destinationURL, leg, headers, bearer)
		if last.succeeded() {
			return attempt, nil
		}

		if attempt < maxAttempts {
			c.logger.Warn("Delivery attempt failed, retrying",
				zap.String("destination", destinationURL),
				zap.Int("attempt", attempt),
				zap.String("reason", last.reason()),
				zap.Duration("backoff", backoff),
			)
			if err := sleep(ctx, backoff); err != nil {
				break
			}
			backoff *= 2
		}
	}

	return attemptsMade, &DeliveryError{
		DestinationURL: destinationURL,
		LastStatus:     last.HTTPStatus,
		Reason:         last.reason(),
		Retries:        c.maxRetries,
	}
}

// attempt performs a single HTTP request for the leg
func (c *Client) attempt(ctx context.Context, destinationURL string, leg Leg, headers map[string]string, bearer string) *attemptResult {
	result := &attemptResult{}

	var body io.Reader
	contentType := ""

	switch leg.Kind {
	case PayloadJSON:
		body = strings.NewReader(leg.JSON)
		contentType = "application/json"
	case PayloadFile:
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)
		part, err := writer.CreateFormFile("file", leg.Filename)
		if err != nil {
			result.Err = fmt.Errorf("failed to build multipart body: %w", err)
			return result
		}
		if _, err := part.Write(leg.Data); err != nil {
			result.Err = fmt.Errorf("failed to write multipart body: %w", err)
			return result
		}
		if err := writer.Close(); err != nil {
			result.Err = fmt.Errorf("failed to finalise multipart body: %w", err)
			return result
		}
		body = buf
		contentType = writer.FormDataContentType()
	case PayloadEmpty:
		body = nil
	}

	req, err := http.NewRequestWithContext(ctx, leg.Verb, destinationURL, body)
	if err != nil {
		result.Err = fmt.Errorf("failed to create HTTP request: %w", err)
		return result
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("HTTP request failed: %w", err)
		return result
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	result.HTTPStatus = &resp.StatusCode
	return result
}

// sleep waits for the backoff duration or until the context is cancelled
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
