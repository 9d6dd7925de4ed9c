package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	reservationApp "github.com/felixgeelhaar/careslot/internal/reservation/application"
	reservationRest "github.com/felixgeelhaar/careslot/internal/reservation/infrastructure/rest"
	schedulingRest "github.com/felixgeelhaar/careslot/internal/scheduling/infrastructure/rest"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/restclient"
	"github.com/felixgeelhaar/careslot/pkg/config"
	"github.com/felixgeelhaar/careslot/pkg/observability"
	"golang.org/x/oauth2/clientcredentials"
)

// Client holds the client-side dependencies: the REST gateway and the
// reservation coordinator of one session.
type Client struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics

	HTTP        *restclient.Client
	Slots       *reservationRest.Client
	Blocks      *schedulingRest.Client
	Coordinator *reservationApp.Coordinator
}

// NewClient wires a client against cfg.APIBaseURL.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, clk clock.Clock) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.System{}
	}
	policy, err := reservationApp.ParseReleasePolicy(cfg.ReleasePolicy)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewInMemoryMetrics()
	restCfg := restclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPClientTimeout,
		Token:   cfg.APIToken,
		Breaker: restclient.BreakerConfig{
			Name:             "careslot-api",
			MaxRequests:      convert.IntToUint32Clamped(cfg.BreakerMaxRequests),
			Interval:         cfg.BreakerInterval,
			Timeout:          cfg.BreakerTimeout,
			FailureThreshold: convert.IntToUint32Clamped(cfg.BreakerFailureThreshold),
		},
		Logger:  logger,
		Metrics: metrics,
	}
	if cfg.OAuthEnabled() {
		restCfg.OAuth = &clientcredentials.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			TokenURL:     cfg.OAuthTokenURL,
			Scopes:       cfg.Scopes(),
		}
	}

	httpClient, err := restclient.New(ctx, restCfg)
	if err != nil {
		return nil, err
	}

	slots := reservationRest.NewClient(httpClient)
	coordinator := reservationApp.NewCoordinator(slots,
		reservationApp.WithClock(clk),
		reservationApp.WithReleasePolicy(policy),
		reservationApp.WithMetrics(metrics),
		reservationApp.WithLogger(logger),
	)

	return &Client{
		Config:      cfg,
		Logger:      logger,
		Metrics:     metrics,
		HTTP:        httpClient,
		Slots:       slots,
		Blocks:      schedulingRest.NewClient(httpClient),
		Coordinator: coordinator,
	}, nil
}

// Health fetches the server's /health document.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.HTTP.Do(ctx, "health", http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close cancels the coordinator's pending expiry.
func (c *Client) Close() {
	c.Coordinator.Close()
}
