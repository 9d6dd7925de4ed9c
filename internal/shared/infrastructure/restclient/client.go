// Package restclient is the HTTP transport shared by the reservation and
// schedule-block clients. Every call runs through a circuit breaker and
// fails with *RemoteError.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/careslot/pkg/observability"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	headerCorrelationID = "X-Correlation-ID"
	headerRequestID     = "X-Request-ID"
	maxErrorBody        = 64 << 10
)

// BreakerConfig configures the circuit breaker around remote calls.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig trips after five consecutive failures and probes again
// after thirty seconds.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Config holds client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// Token is a static bearer token. Ignored when OAuth is set.
	Token string
	// OAuth enables the client-credentials flow against a token endpoint.
	OAuth *clientcredentials.Config

	Breaker   BreakerConfig
	Transport http.RoundTripper
	Logger    *slog.Logger
	Metrics   observability.Metrics
}

// Client performs JSON requests against the remote API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
	metrics observability.Metrics
}

// New creates a client. ctx scopes token fetches of the client-credentials flow.
func New(ctx context.Context, cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	if source := tokenSource(ctx, cfg); source != nil {
		transport = &oauthTransport{base: transport, source: source}
	}

	breakerCfg := cfg.Breaker
	if breakerCfg.Name == "" {
		breakerCfg = DefaultBreakerConfig(base.Host)
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout, Transport: transport},
		logger:  logger,
		metrics: metrics,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerCfg.Name,
		MaxRequests: breakerCfg.MaxRequests,
		Interval:    breakerCfg.Interval,
		Timeout:     breakerCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			threshold := breakerCfg.FailureThreshold
			if threshold == 0 {
				threshold = 5
			}
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Client errors are answers, not outages.
			var remote *RemoteError
			if errors.As(err, &remote) {
				return remote.StatusCode > 0 && remote.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.Gauge(observability.MetricBreakerState, float64(to), observability.T("breaker", name))
		},
	})
	return c, nil
}

func tokenSource(ctx context.Context, cfg Config) oauth2.TokenSource {
	if cfg.OAuth != nil && cfg.OAuth.ClientID != "" && cfg.OAuth.TokenURL != "" {
		return cfg.OAuth.TokenSource(ctx)
	}
	if cfg.Token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	}
	return nil
}

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Do sends a JSON request and decodes a 2xx JSON response into out when out
// is non-nil. Any failure is a *RemoteError tagged with op.
func (c *Client) Do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			defer resp.Body.Close()
			return nil, responseError(op, resp)
		}
		return resp, nil
	})
	c.metrics.Timing(observability.MetricHTTPDuration, time.Since(start),
		observability.T("client", c.breaker.Name()), observability.T("op", op))

	if err != nil {
		var remote *RemoteError
		if !errors.As(err, &remote) {
			remote = &RemoteError{Op: op, Err: err}
		}
		c.logger.DebugContext(ctx, "remote call failed",
			"op", op,
			"method", method,
			"path", path,
			"status", remote.StatusCode,
			"error", err,
		)
		return remote
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := observability.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(headerCorrelationID, id)
	}
	if id := observability.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(headerRequestID, id)
	}
	return req, nil
}

func responseError(op string, resp *http.Response) *RemoteError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	remote := &RemoteError{Op: op, StatusCode: resp.StatusCode}

	var body errorBody
	if json.Unmarshal(raw, &body) == nil && (body.Error != "" || body.Message != "") {
		remote.Code = body.Error
		remote.Message = body.Message
		if remote.Message == "" {
			remote.Message = body.Error
		}
	} else {
		remote.Message = strings.TrimSpace(string(raw))
	}
	return remote
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return t.base.RoundTrip(clone)
}
