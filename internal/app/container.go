package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	reservationApp "github.com/felixgeelhaar/careslot/internal/reservation/application"
	reservationDomain "github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/felixgeelhaar/careslot/internal/reservation/infrastructure/memory"
	redisHolds "github.com/felixgeelhaar/careslot/internal/reservation/infrastructure/redis"
	"github.com/felixgeelhaar/careslot/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/careslot/internal/scheduling/application/queries"
	schedulingDomain "github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/careslot/internal/scheduling/infrastructure/caldav"
	sharedApplication "github.com/felixgeelhaar/careslot/internal/shared/application"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/database/postgres"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/careslot/pkg/config"
	"github.com/felixgeelhaar/careslot/pkg/observability"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Container holds the server-side dependencies shared by the API and the
// worker.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Database connections; exactly one is set.
	DB       *pgxpool.Pool
	DBConn   *sql.DB
	DBDriver database.Driver

	// Redis (optional; holds fall back to memory)
	RedisClient *redis.Client

	// Repositories
	BlockRepo  schedulingDomain.Repository
	HoldRepo   reservationDomain.HoldRepository
	OutboxRepo outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork

	// Event publishing
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus
	OutboxProcessor   *outbox.Processor

	// Reservations
	HoldService *reservationApp.HoldService

	// Schedule block command handlers
	RequestBlockHandler *commands.RequestBlockHandler
	UpdateBlockHandler  *commands.UpdateBlockHandler
	ApproveBlockHandler *commands.ApproveBlockHandler
	RejectBlockHandler  *commands.RejectBlockHandler
	DeleteBlockHandler  *commands.DeleteBlockHandler
	ExpireBlocksHandler *commands.ExpireBlocksHandler

	// Schedule block query handlers
	CheckConflictHandler *queries.CheckConflictHandler
	ListBlocksHandler    *queries.ListBlocksHandler
	GetBlockHandler      *queries.GetBlockHandler

	// CalDAV mirror (nil unless configured)
	CalDAVPublisher *caldav.Publisher
}

// Option tweaks container construction.
type Option func(*Container)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(ct *Container) { ct.Clock = c }
}

// NewContainer wires the server side. With no DATABASE_URL it runs in local
// mode on SQLite with an in-process event bus.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Clock:   clock.System{},
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	factory, err := c.openDatabase(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.buildRepositories(factory); err != nil {
		c.Close()
		return nil, err
	}

	c.connectRedis(ctx)
	if err := c.connectPublisher(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.connectCalDAV(); err != nil {
		c.Close()
		return nil, err
	}

	c.buildHandlers()
	c.registerHealth()

	logger.Info("container initialized",
		"driver", c.DBDriver.String(),
		"redis", c.RedisClient != nil,
		"caldav", c.CalDAVPublisher != nil,
	)
	return c, nil
}

func (c *Container) openDatabase(ctx context.Context) (*RepositoryFactory, error) {
	cfg := c.Config
	driver := database.DriverSQLite
	if !cfg.LocalMode {
		resolved, err := database.Resolve(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		driver = resolved
	}
	c.DBDriver = driver

	switch driver {
	case database.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.DatabaseURL, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = pool
		c.Logger.Info("connected to database", "driver", "postgres")
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return NewPostgresRepositoryFactory(pool), nil

	default:
		path, err := security.ValidateDatabasePath(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("invalid SQLite path: %w", err)
		}
		db, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		c.DBConn = db
		c.Logger.Info("running SQLite migrations", "path", path)
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return NewSQLiteRepositoryFactory(db), nil
	}
}

func (c *Container) buildRepositories(factory *RepositoryFactory) error {
	var err error
	if c.BlockRepo, err = factory.BlockRepository(); err != nil {
		return fmt.Errorf("failed to create block repository: %w", err)
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		return fmt.Errorf("failed to create outbox repository: %w", err)
	}
	if c.UnitOfWork, err = factory.UnitOfWork(); err != nil {
		return fmt.Errorf("failed to create unit of work: %w", err)
	}
	return nil
}

// connectRedis keeps holds in Redis when it answers and in memory otherwise.
// Outside development an unreachable Redis is logged loudly, since holds
// then live in one process only.
func (c *Container) connectRedis(ctx context.Context) {
	c.HoldRepo = memory.NewHoldRepository(c.Clock)
	if c.Config.RedisURL == "" {
		return
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		c.Logger.Warn("invalid Redis URL, holds will use in-memory fallback", "error", err)
		return
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		level := slog.LevelWarn
		if c.Config.IsProduction() {
			level = slog.LevelError
		}
		c.Logger.Log(ctx, level, "Redis not available, holds will use in-memory fallback", "error", err)
		return
	}

	c.RedisClient = client
	c.HoldRepo = redisHolds.NewHoldRepository(client)
	c.Logger.Info("connected to Redis")
}

func (c *Container) connectPublisher() error {
	if c.Config.LocalMode {
		c.InProcessEventBus = eventbus.NewInProcessEventBus(c.Logger)
		c.EventPublisher = c.InProcessEventBus
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}
	c.EventPublisher = publisher
	return nil
}

func (c *Container) connectCalDAV() error {
	if !c.Config.CalDAVEnabled() {
		return nil
	}
	publisher, err := caldav.NewPublisher(caldav.Config{
		BaseURL:      c.Config.CalDAVURL,
		Username:     c.Config.CalDAVUsername,
		Password:     c.Config.CalDAVPassword,
		CalendarPath: c.Config.CalDAVCalendarPath,
		Timeout:      c.Config.HTTPClientTimeout,
	}, c.Logger)
	if err != nil {
		return err
	}
	c.CalDAVPublisher = publisher
	if c.InProcessEventBus != nil {
		c.InProcessEventBus.RegisterConsumer(publisher)
	}
	return nil
}

func (c *Container) buildHandlers() {
	c.HoldService = reservationApp.NewHoldService(c.HoldRepo, c.BlockRepo, c.Config.HoldTTL,
		reservationApp.WithClock(c.Clock),
		reservationApp.WithPublisher(c.EventPublisher),
		reservationApp.WithMetrics(c.Metrics),
		reservationApp.WithLogger(c.Logger),
	)

	c.RequestBlockHandler = commands.NewRequestBlockHandler(c.BlockRepo, c.OutboxRepo, c.UnitOfWork, c.Clock)
	c.UpdateBlockHandler = commands.NewUpdateBlockHandler(c.BlockRepo, c.OutboxRepo, c.UnitOfWork, c.Clock)
	c.ApproveBlockHandler = commands.NewApproveBlockHandler(c.BlockRepo, c.OutboxRepo, c.UnitOfWork, c.Clock)
	c.RejectBlockHandler = commands.NewRejectBlockHandler(c.BlockRepo, c.OutboxRepo, c.UnitOfWork, c.Clock)
	c.DeleteBlockHandler = commands.NewDeleteBlockHandler(c.BlockRepo, c.OutboxRepo, c.UnitOfWork, c.Clock)
	c.ExpireBlocksHandler = commands.NewExpireBlocksHandler(c.BlockRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics, c.Logger)

	c.CheckConflictHandler = queries.NewCheckConflictHandler(c.BlockRepo)
	c.ListBlocksHandler = queries.NewListBlocksHandler(c.BlockRepo)
	c.GetBlockHandler = queries.NewGetBlockHandler(c.BlockRepo)

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     c.Config.OutboxPollInterval,
		BatchSize:        c.Config.OutboxBatchSize,
		MaxRetries:       c.Config.OutboxMaxRetries,
		RetryBackoffBase: outbox.DefaultProcessorConfig().RetryBackoffBase,
		RetryBackoffMax:  outbox.DefaultProcessorConfig().RetryBackoffMax,
		RetentionDays:    c.Config.OutboxRetentionDays,
		CleanupInterval:  c.Config.OutboxCleanupInterval,
	}, c.Logger, outbox.WithMetrics(c.Metrics), outbox.WithClock(c.Clock))
}

func (c *Container) registerHealth() {
	switch {
	case c.DB != nil:
		c.Health.Register("database", observability.DatabaseHealthChecker(c.DB.Ping))
	case c.DBConn != nil:
		c.Health.Register("database", observability.DatabaseHealthChecker(c.DBConn.PingContext))
	}
	if c.RedisClient != nil {
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}
	if rabbit, ok := c.EventPublisher.(*eventbus.RabbitMQPublisher); ok {
		c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(rabbit.Ping))
	}
	c.Health.Register("metrics", observability.MetricsHealthChecker(c.Metrics))
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("PostgreSQL connection closed")
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing SQLite connection", "error", err)
		} else {
			c.Logger.Info("SQLite connection closed")
		}
	}
}
