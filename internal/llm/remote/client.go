package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"streetfood-backend/internal/llm"
	"streetfood-backend/internal/recommendations/schema"
	"streetfood-backend/internal/shared/metrics"
	"streetfood-backend/internal/shared/telemetry"
)

const (
	defaultBaseURL     = "https://api.kiro.ai/v1"
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
	defaultOfflineArea = "Connaught Place"
	maxErrorBody       = 512
)

var (
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrTimeout     = errors.New("request timeout")
	ErrConnection  = errors.New("connection error")
	ErrEmptyReply  = errors.New("response missing choices")
)

// StatusError is a non-200, non-429 reply. It is never retried.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.Code, e.Body)
}

// TransportError reports that no usable reply was obtained. Last is the final
// observed failure.
type TransportError struct {
	Attempts int
	Last     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to get response after %d attempts, last error: %v", e.Attempts, e.Last)
}

func (e *TransportError) Unwrap() error {
	return e.Last
}

// Config controls the HTTP transport. Zero values take the defaults.
type Config struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	MaxTokens   int
	Temperature float64
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option customises a Client.
type Option func(*Client)

// WithSleep replaces the backoff sleeper, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client implements llm.Client against a chat-completions style endpoint.
// Without an API key it answers with a fixed offline reply and never touches
// the network.
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
	sleep      SleepFunc
}

// NewClient constructs a Client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	c := &Client{
		cfg:        cfg,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		httpClient: &http.Client{Timeout: cfg.Timeout},
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Offline reports whether the client serves the offline substitute.
func (c *Client) Offline() bool {
	return c.cfg.APIKey == ""
}

type completionRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends payload and returns the reply text. 429 replies back off
// exponentially from RetryDelay; timeouts and connection failures retry after
// a flat RetryDelay; any other status fails at once. Sleeps happen only
// between attempts, so three 429s wait 1s then 2s and no 4s sleep follows the
// last attempt.
func (c *Client) Complete(ctx context.Context, payload string) (string, error) {
	if c.Offline() {
		metrics.IncInferenceAttempt("offline")
		return OfflineReply(payload)
	}

	body, err := json.Marshal(completionRequest{
		Prompt:      payload,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	var last error
	attempts := 0
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		attempts = attempt + 1
		start := time.Now()
		content, err := c.send(ctx, body)
		if err == nil {
			metrics.IncInferenceAttempt("ok")
			telemetry.Info("inference.attempt", map[string]any{
				"attempt":     attempts,
				"result":      "ok",
				"duration_ms": time.Since(start).Milliseconds(),
			})
			return content, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		last = err
		result, delay, retry := c.classify(err, attempt)
		metrics.IncInferenceAttempt(result)
		telemetry.Warn("inference.attempt", map[string]any{
			"attempt":     attempts,
			"result":      result,
			"duration_ms": time.Since(start).Milliseconds(),
			"error":       err.Error(),
		})
		if !retry || attempt == c.cfg.MaxAttempts-1 {
			break
		}
		telemetry.Info("inference.retry", map[string]any{
			"attempt":  attempts,
			"delay_ms": delay.Milliseconds(),
		})
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", &TransportError{Attempts: attempts, Last: last}
}

func (c *Client) classify(err error, attempt int) (string, time.Duration, bool) {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited", c.cfg.RetryDelay * time.Duration(1<<attempt), true
	case errors.Is(err, ErrTimeout):
		return "timeout", c.cfg.RetryDelay, true
	case errors.Is(err, ErrConnection):
		return "connection", c.cfg.RetryDelay, true
	default:
		var se *StatusError
		if errors.As(err, &se) {
			return "status", 0, false
		}
		return "error", 0, false
	}
}

func (c *Client) send(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return "", &StatusError{Code: resp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("inference response parse: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return parsed.Choices[0].Message.Content, nil
}

// OfflineReply renders the fixed demo reply for payload, addressed to the area
// named on the payload's last "Area:" line.
func OfflineReply(payload string) (string, error) {
	area := defaultOfflineArea
	for _, line := range strings.Split(payload, "\n") {
		if rest, ok := strings.CutPrefix(line, "Area:"); ok {
			if trimmed := strings.TrimSpace(rest); trimmed != "" {
				area = trimmed
			}
		}
	}
	out, err := json.MarshalIndent(schema.OfflineSet(area), "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var _ llm.Client = (*Client)(nil)
