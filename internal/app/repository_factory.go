package app

import (
	"database/sql"
	"fmt"

	schedulingDomain "github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	schedulingPersistence "github.com/felixgeelhaar/careslot/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/careslot/internal/shared/application"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/careslot/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	driver database.Driver
	sqlDB  *sql.DB
	pool   *pgxpool.Pool
}

// NewSQLiteRepositoryFactory creates a factory over a SQLite database.
func NewSQLiteRepositoryFactory(db *sql.DB) *RepositoryFactory {
	return &RepositoryFactory{driver: database.DriverSQLite, sqlDB: db}
}

// NewPostgresRepositoryFactory creates a factory over a PostgreSQL pool.
func NewPostgresRepositoryFactory(pool *pgxpool.Pool) *RepositoryFactory {
	return &RepositoryFactory{driver: database.DriverPostgres, pool: pool}
}

// Driver returns the backing driver.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// BlockRepository creates a schedule block repository for the configured driver.
func (f *RepositoryFactory) BlockRepository() (schedulingDomain.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		if f.pool == nil {
			return nil, fmt.Errorf("postgres pool not configured")
		}
		return schedulingPersistence.NewPostgresScheduleBlockRepository(f.pool), nil
	case database.DriverSQLite:
		if f.sqlDB == nil {
			return nil, fmt.Errorf("sqlite database not configured")
		}
		return schedulingPersistence.NewSQLiteScheduleBlockRepository(f.sqlDB), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		if f.pool == nil {
			return nil, fmt.Errorf("postgres pool not configured")
		}
		return outbox.NewPostgresRepository(f.pool), nil
	case database.DriverSQLite:
		if f.sqlDB == nil {
			return nil, fmt.Errorf("sqlite database not configured")
		}
		return outbox.NewSQLiteRepository(f.sqlDB), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// UnitOfWork creates the transaction boundary for the configured driver.
func (f *RepositoryFactory) UnitOfWork() (sharedApplication.UnitOfWork, error) {
	switch f.driver {
	case database.DriverPostgres:
		if f.pool == nil {
			return nil, fmt.Errorf("postgres pool not configured")
		}
		return sharedPersistence.NewPostgresUnitOfWork(f.pool), nil
	case database.DriverSQLite:
		if f.sqlDB == nil {
			return nil, fmt.Errorf("sqlite database not configured")
		}
		return sharedPersistence.NewSQLiteUnitOfWork(f.sqlDB), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}
