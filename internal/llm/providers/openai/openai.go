package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/adamking/ai-changelog/internal/clierr"
	"github.com/adamking/ai-changelog/internal/llm"
	"github.com/adamking/ai-changelog/internal/observability"
	"github.com/adamking/ai-changelog/internal/version"
)

const (
	DefaultBaseURL = "https://api.openai.com"
	// APIKeyEnv names the environment variable holding the credential.
	APIKeyEnv = "OPENAI_API_KEY"

	DefaultTimeout        = 30 * time.Second
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 2 * time.Second

	completionsPath = "/v1/chat/completions"
)

// Client sends chat completions to an OpenAI-compatible endpoint, retrying
// rate limits and transport failures with exponential backoff.
type Client struct {
	client         *http.Client
	baseURL        string
	apiKey         string
	timeout        time.Duration
	maxAttempts    int
	initialBackoff time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithMetrics records every attempt in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Attempt is the outcome of a single network try. Err is set only when no
// HTTP response was received.
type Attempt struct {
	Number   int
	Status   int
	Body     []byte
	Err      error
	Duration time.Duration
}

func (a Attempt) retryable() bool {
	return a.Err != nil || a.Status == http.StatusTooManyRequests
}

// NewClient constructs a Client with sane defaults.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		client:         &http.Client{Timeout: DefaultTimeout},
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		timeout:        DefaultTimeout,
		maxAttempts:    DefaultMaxAttempts,
		initialBackoff: DefaultInitialBackoff,
		sleep:          sleepContext,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MissingCredentials is returned when no API key is available.
func MissingCredentials() error {
	return clierr.Environment(nil, "missing credentials: "+APIKeyEnv+" is not set",
		"export "+APIKeyEnv+"=<your API key>")
}

// Endpoint returns the completions URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.baseURL + completionsPath
}

// Send posts req and returns the body of the first 200 response.
func (c *Client) Send(ctx context.Context, req llm.ChatRequest) ([]byte, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, MissingCredentials()
	}

	payload, err := MarshalRequest(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	schedule := c.newBackOff()
	var last Attempt
	for n := 1; n <= c.maxAttempts; n++ {
		if n > 1 {
			wait := schedule.NextBackOff()
			c.logger.Debug("retrying completion request",
				zap.Int("attempt", n),
				zap.Duration("backoff", wait))
			if err := c.sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("request interrupted: %w", err)
			}
		}

		last, err = c.attempt(ctx, n, payload)
		if err != nil {
			return nil, err
		}
		c.metrics.RecordAttempt(last.Status, last.Duration)

		fields := []zap.Field{
			zap.Int("attempt", n),
			zap.Int("max_attempts", c.maxAttempts),
			zap.Duration("duration", last.Duration),
		}
		if last.Err != nil {
			c.logger.Debug("completion attempt failed", append(fields, zap.Error(last.Err))...)
		} else {
			c.logger.Debug("completion attempt finished", append(fields, zap.Int("status", last.Status))...)
		}

		switch {
		case last.Err != nil && ctx.Err() != nil:
			return nil, fmt.Errorf("request interrupted: %w", ctx.Err())
		case last.retryable():
			continue
		case last.Status == http.StatusOK:
			return last.Body, nil
		default:
			return nil, clierr.Protocol(nil,
				fmt.Sprintf("API returned status %d: %s", last.Status, strings.TrimSpace(string(last.Body))))
		}
	}

	if last.Err != nil {
		return nil, clierr.Transport(last.Err,
			fmt.Sprintf("request failed after %d attempts, retries exhausted", c.maxAttempts),
			"check your network connection and base_url")
	}
	return nil, clierr.Transport(nil,
		fmt.Sprintf("rate limited (HTTP 429) after %d attempts, retries exhausted: %s",
			c.maxAttempts, strings.TrimSpace(string(last.Body))),
		"wait a moment and try again, or check your API quota")
}

// attempt performs one bounded HTTP round trip. The returned error is
// non-nil only for problems no retry can fix.
func (c *Client) attempt(ctx context.Context, n int, payload []byte) (Attempt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return Attempt{}, clierr.Config(err, fmt.Sprintf("invalid API endpoint %q", c.Endpoint()))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	res, err := c.client.Do(httpReq)
	if err != nil {
		return Attempt{Number: n, Err: fmt.Errorf("send request: %w", err), Duration: time.Since(start)}, nil
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Attempt{Number: n, Err: fmt.Errorf("read response: %w", err), Duration: time.Since(start)}, nil
	}

	return Attempt{Number: n, Status: res.StatusCode, Body: body, Duration: time.Since(start)}, nil
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []llm.ChatMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

// MarshalRequest encodes req as a chat-completions body. Message content is
// escaped by encoding/json, so any diff text survives the round trip.
func MarshalRequest(req llm.ChatRequest) ([]byte, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
