package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/careslot/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteSelectBlocks = `
	SELECT id, professional_id, kind, start_date, end_date, reason, status,
	       approver_id, approver_name, approved_at, rejected_at, rejection_reason,
	       expired_at, version, created_at, updated_at
	FROM schedule_blocks
`

// SQLiteScheduleBlockRepository persists schedule blocks in SQLite. Dates are
// stored as YYYY-MM-DD text so range predicates compare lexically.
type SQLiteScheduleBlockRepository struct {
	db *sql.DB
}

// NewSQLiteScheduleBlockRepository creates a new SQLite schedule block repository.
func NewSQLiteScheduleBlockRepository(db *sql.DB) *SQLiteScheduleBlockRepository {
	return &SQLiteScheduleBlockRepository{db: db}
}

// Save inserts a new block or updates an existing one guarded by version.
func (r *SQLiteScheduleBlockRepository) Save(ctx context.Context, block *domain.ScheduleBlock) error {
	exec := sharedPersistence.SQLiteExecutorFor(ctx, r.db)

	if block.Version() == 0 {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO schedule_blocks (
				id, professional_id, kind, start_date, end_date, reason, status,
				approver_id, approver_name, approved_at, rejected_at, rejection_reason,
				expired_at, version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			block.ID().String(),
			block.ProfessionalID(),
			string(block.Period().Kind()),
			domain.FormatDate(block.Period().Start()),
			domain.FormatDate(block.Period().End()),
			block.Reason(),
			block.Status().String(),
			nullString(block.ApproverID()),
			nullString(block.ApproverName()),
			formatTimePtr(block.ApprovedAt()),
			formatTimePtr(block.RejectedAt()),
			nullString(block.RejectionReason()),
			formatTimePtr(block.ExpiredAt()),
			block.CreatedAt().UTC().Format(sqliteTimeLayout),
			block.UpdatedAt().UTC().Format(sqliteTimeLayout),
		)
		if err != nil {
			return fmt.Errorf("insert schedule block: %w", err)
		}
		block.IncrementVersion()
		return nil
	}

	result, err := exec.ExecContext(ctx, `
		UPDATE schedule_blocks SET
			kind = ?, start_date = ?, end_date = ?, reason = ?, status = ?,
			approver_id = ?, approver_name = ?, approved_at = ?, rejected_at = ?,
			rejection_reason = ?, expired_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(block.Period().Kind()),
		domain.FormatDate(block.Period().Start()),
		domain.FormatDate(block.Period().End()),
		block.Reason(),
		block.Status().String(),
		nullString(block.ApproverID()),
		nullString(block.ApproverName()),
		formatTimePtr(block.ApprovedAt()),
		formatTimePtr(block.RejectedAt()),
		nullString(block.RejectionReason()),
		formatTimePtr(block.ExpiredAt()),
		block.UpdatedAt().UTC().Format(sqliteTimeLayout),
		block.ID().String(),
		block.Version(),
	)
	if err != nil {
		return fmt.Errorf("update schedule block: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrStaleBlock
	}
	block.IncrementVersion()
	return nil
}

// FindByID returns a block or ErrBlockNotFound.
func (r *SQLiteScheduleBlockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleBlock, error) {
	row := sharedPersistence.SQLiteExecutorFor(ctx, r.db).
		QueryRowContext(ctx, sqliteSelectBlocks+` WHERE id = ?`, id.String())
	block, err := scanSQLiteBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBlockNotFound
	}
	return block, err
}

// FindByProfessional lists a professional's blocks matching filter.
func (r *SQLiteScheduleBlockRepository) FindByProfessional(ctx context.Context, professionalID string, filter domain.BlockFilter) ([]*domain.ScheduleBlock, error) {
	where := []string{"professional_id = ?"}
	args := []any{professionalID}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status.String())
	}
	if filter.ActiveOnly {
		where = append(where, "status IN ('pending', 'approved')")
	}
	if !filter.From.IsZero() {
		where = append(where, "end_date >= ?")
		args = append(args, domain.FormatDate(domain.DateOf(filter.From)))
	}
	if !filter.To.IsZero() {
		where = append(where, "start_date <= ?")
		args = append(args, domain.FormatDate(domain.DateOf(filter.To)))
	}

	query := sqliteSelectBlocks + " WHERE " + strings.Join(where, " AND ") + " ORDER BY start_date, created_at"
	return r.query(ctx, query, args...)
}

// FindPendingEndingBefore lists pending blocks whose last day precedes date.
func (r *SQLiteScheduleBlockRepository) FindPendingEndingBefore(ctx context.Context, date time.Time) ([]*domain.ScheduleBlock, error) {
	return r.query(ctx,
		sqliteSelectBlocks+` WHERE status = 'pending' AND end_date < ? ORDER BY end_date`,
		domain.FormatDate(domain.DateOf(date)),
	)
}

// Delete removes a block.
func (r *SQLiteScheduleBlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := sharedPersistence.SQLiteExecutorFor(ctx, r.db).
		ExecContext(ctx, `DELETE FROM schedule_blocks WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrBlockNotFound
	}
	return nil
}

func (r *SQLiteScheduleBlockRepository) query(ctx context.Context, query string, args ...any) ([]*domain.ScheduleBlock, error) {
	rows, err := sharedPersistence.SQLiteExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]*domain.ScheduleBlock, 0)
	for rows.Next() {
		block, err := scanSQLiteBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBlock(row rowScanner) (*domain.ScheduleBlock, error) {
	var (
		idStr, professionalID, kind, startStr, endStr, reason, status string
		approverID, approverName, rejectionReason                     sql.NullString
		approvedAt, rejectedAt, expiredAt                             sql.NullString
		version                                                       int
		createdAtStr, updatedAtStr                                    string
	)
	if err := row.Scan(
		&idStr, &professionalID, &kind, &startStr, &endStr, &reason, &status,
		&approverID, &approverName, &approvedAt, &rejectedAt, &rejectionReason,
		&expiredAt, &version, &createdAtStr, &updatedAtStr,
	); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse block id: %w", err)
	}
	period, err := rehydratePeriod(kind, startStr, endStr)
	if err != nil {
		return nil, err
	}
	blockStatus, err := domain.ParseBlockStatus(status)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(sqliteTimeLayout, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(sqliteTimeLayout, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return domain.RehydrateScheduleBlock(
		id, professionalID, period, reason, blockStatus,
		approverID.String, approverName.String,
		parseTimePtr(approvedAt), parseTimePtr(rejectedAt),
		rejectionReason.String, parseTimePtr(expiredAt),
		version, createdAt, updatedAt,
	), nil
}

func rehydratePeriod(kind, startStr, endStr string) (domain.Period, error) {
	periodKind, err := domain.ParsePeriodKind(kind)
	if err != nil {
		return domain.Period{}, err
	}
	start, err := domain.ParseDate(startStr)
	if err != nil {
		return domain.Period{}, err
	}
	end, err := domain.ParseDate(endStr)
	if err != nil {
		return domain.Period{}, err
	}
	return domain.RehydratePeriod(periodKind, start, end)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(sqliteTimeLayout), Valid: true}
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(sqliteTimeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
