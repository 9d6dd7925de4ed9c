package domain

import (
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/careslot/internal/shared/domain"
	"github.com/google/uuid"
)

// MaxReasonLength bounds the free-text reason.
const MaxReasonLength = 500

// ScheduleBlock is a professional's request to mark a date or date range
// unavailable, subject to approval.
type ScheduleBlock struct {
	sharedDomain.BaseAggregateRoot
	professionalID  string
	period          Period
	reason          string
	status          BlockStatus
	approverID      string
	approverName    string
	approvedAt      *time.Time
	rejectedAt      *time.Time
	rejectionReason string
	expiredAt       *time.Time
	deleted         bool
}

// NewScheduleBlock creates a pending block.
func NewScheduleBlock(professionalID string, period Period, reason string, at time.Time) (*ScheduleBlock, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, ErrProfessionalRequired
	}
	if err := validatePeriodAndReason(period, reason); err != nil {
		return nil, err
	}

	b := &ScheduleBlock{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(at),
		professionalID:    professionalID,
		period:            period,
		reason:            strings.TrimSpace(reason),
		status:            StatusPending,
	}
	b.AddDomainEvent(newBlockRequested(b, at))
	return b, nil
}

func validatePeriodAndReason(period Period, reason string) error {
	if period.IsZero() {
		return ErrInvalidPeriod
	}
	if len(strings.TrimSpace(reason)) > MaxReasonLength {
		return fmt.Errorf("%w: max %d characters", ErrReasonTooLong, MaxReasonLength)
	}
	return nil
}

// Getters
func (b *ScheduleBlock) ProfessionalID() string   { return b.professionalID }
func (b *ScheduleBlock) Period() Period           { return b.period }
func (b *ScheduleBlock) Reason() string           { return b.reason }
func (b *ScheduleBlock) Status() BlockStatus      { return b.status }
func (b *ScheduleBlock) ApproverID() string       { return b.approverID }
func (b *ScheduleBlock) ApproverName() string     { return b.approverName }
func (b *ScheduleBlock) ApprovedAt() *time.Time   { return b.approvedAt }
func (b *ScheduleBlock) RejectedAt() *time.Time   { return b.rejectedAt }
func (b *ScheduleBlock) RejectionReason() string  { return b.rejectionReason }
func (b *ScheduleBlock) ExpiredAt() *time.Time    { return b.expiredAt }
func (b *ScheduleBlock) IsDeleted() bool          { return b.deleted }
func (b *ScheduleBlock) IsPending() bool          { return b.status == StatusPending }
func (b *ScheduleBlock) BlocksAvailability() bool { return b.status.BlocksAvailability() }
func (b *ScheduleBlock) Interval() DateInterval   { return b.period.Interval() }

func (b *ScheduleBlock) OwnedBy(professionalID string) bool {
	return b.professionalID == professionalID
}

// Reschedule replaces period and reason. Only pending blocks can change.
func (b *ScheduleBlock) Reschedule(period Period, reason string, at time.Time) error {
	if !b.IsPending() {
		return ErrBlockNotPending
	}
	if err := validatePeriodAndReason(period, reason); err != nil {
		return err
	}

	previous := b.period
	b.period = period
	b.reason = strings.TrimSpace(reason)
	b.Touch(at)
	b.AddDomainEvent(newBlockUpdated(b, previous, at))
	return nil
}

// Approve accepts a pending block.
func (b *ScheduleBlock) Approve(approverID, approverName string, at time.Time) error {
	if err := b.transition(StatusApproved, approverID); err != nil {
		return err
	}
	ts := at.UTC()
	b.approverID = approverID
	b.approverName = approverName
	b.approvedAt = &ts
	b.Touch(at)
	b.AddDomainEvent(newBlockApproved(b, at))
	return nil
}

// Reject declines a pending block with an optional reason.
func (b *ScheduleBlock) Reject(approverID, approverName, reason string, at time.Time) error {
	if len(strings.TrimSpace(reason)) > MaxReasonLength {
		return fmt.Errorf("%w: max %d characters", ErrReasonTooLong, MaxReasonLength)
	}
	if err := b.transition(StatusRejected, approverID); err != nil {
		return err
	}
	ts := at.UTC()
	b.approverID = approverID
	b.approverName = approverName
	b.rejectionReason = strings.TrimSpace(reason)
	b.rejectedAt = &ts
	b.Touch(at)
	b.AddDomainEvent(newBlockRejected(b, at))
	return nil
}

// Expire lapses a pending block that nobody decided on in time.
func (b *ScheduleBlock) Expire(at time.Time) error {
	if err := b.transition(StatusExpired, "system"); err != nil {
		return err
	}
	ts := at.UTC()
	b.expiredAt = &ts
	b.Touch(at)
	b.AddDomainEvent(newBlockExpired(b, at))
	return nil
}

func (b *ScheduleBlock) transition(next BlockStatus, actor string) error {
	if strings.TrimSpace(actor) == "" {
		return ErrApproverRequired
	}
	if !b.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, b.status, next)
	}
	b.status = next
	return nil
}

// CanDelete reports whether the block may be removed: pending blocks by
// anyone allowed to see them, decided blocks only by an administrator.
func (b *ScheduleBlock) CanDelete(admin bool) bool {
	return b.IsPending() || admin
}

// MarkDeleted records the deletion. The repository removes the row.
func (b *ScheduleBlock) MarkDeleted(deletedBy string, admin bool, at time.Time) error {
	if !b.CanDelete(admin) {
		return ErrBlockNotDeletable
	}
	b.deleted = true
	b.Touch(at)
	b.AddDomainEvent(newBlockDeleted(b, deletedBy, at))
	return nil
}

// RehydrateScheduleBlock recreates a block from persisted state.
func RehydrateScheduleBlock(
	id uuid.UUID,
	professionalID string,
	period Period,
	reason string,
	status BlockStatus,
	approverID, approverName string,
	approvedAt, rejectedAt *time.Time,
	rejectionReason string,
	expiredAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *ScheduleBlock {
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &ScheduleBlock{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity, version),
		professionalID:    professionalID,
		period:            period,
		reason:            reason,
		status:            status,
		approverID:        approverID,
		approverName:      approverName,
		approvedAt:        approvedAt,
		rejectedAt:        rejectedAt,
		rejectionReason:   rejectionReason,
		expiredAt:         expiredAt,
	}
}
