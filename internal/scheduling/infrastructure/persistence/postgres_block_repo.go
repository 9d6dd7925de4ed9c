package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/careslot/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSelectBlocks = `
	SELECT id, professional_id, kind, start_date, end_date, reason, status,
	       approver_id, approver_name, approved_at, rejected_at, rejection_reason,
	       expired_at, version, created_at, updated_at
	FROM schedule_blocks
`

// PostgresScheduleBlockRepository persists schedule blocks in PostgreSQL.
type PostgresScheduleBlockRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresScheduleBlockRepository creates a new PostgreSQL schedule block repository.
func NewPostgresScheduleBlockRepository(pool *pgxpool.Pool) *PostgresScheduleBlockRepository {
	return &PostgresScheduleBlockRepository{pool: pool}
}

// Save inserts a new block or updates an existing one guarded by version.
func (r *PostgresScheduleBlockRepository) Save(ctx context.Context, block *domain.ScheduleBlock) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	if block.Version() == 0 {
		_, err := exec.Exec(ctx, `
			INSERT INTO schedule_blocks (
				id, professional_id, kind, start_date, end_date, reason, status,
				approver_id, approver_name, approved_at, rejected_at, rejection_reason,
				expired_at, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1, $14, $15)`,
			block.ID(),
			block.ProfessionalID(),
			string(block.Period().Kind()),
			block.Period().Start(),
			block.Period().End(),
			block.Reason(),
			block.Status().String(),
			optionalString(block.ApproverID()),
			optionalString(block.ApproverName()),
			block.ApprovedAt(),
			block.RejectedAt(),
			optionalString(block.RejectionReason()),
			block.ExpiredAt(),
			block.CreatedAt(),
			block.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("insert schedule block: %w", err)
		}
		block.IncrementVersion()
		return nil
	}

	tag, err := exec.Exec(ctx, `
		UPDATE schedule_blocks SET
			kind = $1, start_date = $2, end_date = $3, reason = $4, status = $5,
			approver_id = $6, approver_name = $7, approved_at = $8, rejected_at = $9,
			rejection_reason = $10, expired_at = $11, version = version + 1, updated_at = $12
		WHERE id = $13 AND version = $14`,
		string(block.Period().Kind()),
		block.Period().Start(),
		block.Period().End(),
		block.Reason(),
		block.Status().String(),
		optionalString(block.ApproverID()),
		optionalString(block.ApproverName()),
		block.ApprovedAt(),
		block.RejectedAt(),
		optionalString(block.RejectionReason()),
		block.ExpiredAt(),
		block.UpdatedAt(),
		block.ID(),
		block.Version(),
	)
	if err != nil {
		return fmt.Errorf("update schedule block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleBlock
	}
	block.IncrementVersion()
	return nil
}

// FindByID returns a block or ErrBlockNotFound.
func (r *PostgresScheduleBlockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleBlock, error) {
	row := sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, pgSelectBlocks+` WHERE id = $1`, id)
	block, err := scanPostgresBlock(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBlockNotFound
	}
	return block, err
}

// FindByProfessional lists a professional's blocks matching filter.
func (r *PostgresScheduleBlockRepository) FindByProfessional(ctx context.Context, professionalID string, filter domain.BlockFilter) ([]*domain.ScheduleBlock, error) {
	where := []string{"professional_id = $1"}
	args := []any{professionalID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status.String()))
	}
	if filter.ActiveOnly {
		where = append(where, "status IN ('pending', 'approved')")
	}
	if !filter.From.IsZero() {
		where = append(where, "end_date >= "+arg(domain.DateOf(filter.From)))
	}
	if !filter.To.IsZero() {
		where = append(where, "start_date <= "+arg(domain.DateOf(filter.To)))
	}

	query := pgSelectBlocks + " WHERE " + strings.Join(where, " AND ") + " ORDER BY start_date, created_at"
	return r.query(ctx, query, args...)
}

// FindPendingEndingBefore lists pending blocks whose last day precedes date.
func (r *PostgresScheduleBlockRepository) FindPendingEndingBefore(ctx context.Context, date time.Time) ([]*domain.ScheduleBlock, error) {
	return r.query(ctx,
		pgSelectBlocks+` WHERE status = 'pending' AND end_date < $1 ORDER BY end_date`,
		domain.DateOf(date),
	)
}

// Delete removes a block.
func (r *PostgresScheduleBlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, `DELETE FROM schedule_blocks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBlockNotFound
	}
	return nil
}

func (r *PostgresScheduleBlockRepository) query(ctx context.Context, query string, args ...any) ([]*domain.ScheduleBlock, error) {
	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]*domain.ScheduleBlock, 0)
	for rows.Next() {
		block, err := scanPostgresBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

func scanPostgresBlock(row pgx.Row) (*domain.ScheduleBlock, error) {
	var (
		id                                        uuid.UUID
		professionalID, kind, reason, status      string
		start, end                                time.Time
		approverID, approverName, rejectionReason *string
		approvedAt, rejectedAt, expiredAt         *time.Time
		version                                   int
		createdAt, updatedAt                      time.Time
	)
	if err := row.Scan(
		&id, &professionalID, &kind, &start, &end, &reason, &status,
		&approverID, &approverName, &approvedAt, &rejectedAt, &rejectionReason,
		&expiredAt, &version, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	periodKind, err := domain.ParsePeriodKind(kind)
	if err != nil {
		return nil, err
	}
	period, err := domain.RehydratePeriod(periodKind, start, end)
	if err != nil {
		return nil, err
	}
	blockStatus, err := domain.ParseBlockStatus(status)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateScheduleBlock(
		id, professionalID, period, reason, blockStatus,
		deref(approverID), deref(approverName),
		approvedAt, rejectedAt,
		deref(rejectionReason), expiredAt,
		version, createdAt.UTC(), updatedAt.UTC(),
	), nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
