package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/careslot/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "ScheduleBlock"

	RoutingKeyBlockRequested = "scheduling.block.requested"
	RoutingKeyBlockUpdated   = "scheduling.block.updated"
	RoutingKeyBlockApproved  = "scheduling.block.approved"
	RoutingKeyBlockRejected  = "scheduling.block.rejected"
	RoutingKeyBlockExpired   = "scheduling.block.expired"
	RoutingKeyBlockDeleted   = "scheduling.block.deleted"

	// RoutingKeyBlocksChanged matches every block event.
	RoutingKeyBlocksChanged = "scheduling.block.*"
)

// BlockSnapshot is the state carried by every block event so consumers
// never have to read the block back.
type BlockSnapshot struct {
	BlockID        uuid.UUID   `json:"blockId"`
	ProfessionalID string      `json:"professionalId"`
	Period         Period      `json:"period"`
	Reason         string      `json:"reason,omitempty"`
	Status         BlockStatus `json:"status"`
}

func snapshot(b *ScheduleBlock) BlockSnapshot {
	return BlockSnapshot{
		BlockID:        b.ID(),
		ProfessionalID: b.professionalID,
		Period:         b.period,
		Reason:         b.reason,
		Status:         b.status,
	}
}

// BlockRequested is emitted when a professional asks for a block.
type BlockRequested struct {
	sharedDomain.BaseEvent
	BlockSnapshot
}

func newBlockRequested(b *ScheduleBlock, at time.Time) *BlockRequested {
	return &BlockRequested{
		BaseEvent:     sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockRequested, at),
		BlockSnapshot: snapshot(b),
	}
}

// BlockUpdated is emitted when a pending block is rescheduled.
type BlockUpdated struct {
	sharedDomain.BaseEvent
	BlockSnapshot
	PreviousPeriod Period `json:"previousPeriod"`
}

func newBlockUpdated(b *ScheduleBlock, previous Period, at time.Time) *BlockUpdated {
	return &BlockUpdated{
		BaseEvent:      sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockUpdated, at),
		BlockSnapshot:  snapshot(b),
		PreviousPeriod: previous,
	}
}

// BlockApproved is emitted when an approver accepts a block.
type BlockApproved struct {
	sharedDomain.BaseEvent
	BlockSnapshot
	ApproverID   string    `json:"approverId"`
	ApproverName string    `json:"approverName,omitempty"`
	ApprovedAt   time.Time `json:"approvedAt"`
}

func newBlockApproved(b *ScheduleBlock, at time.Time) *BlockApproved {
	return &BlockApproved{
		BaseEvent:     sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockApproved, at),
		BlockSnapshot: snapshot(b),
		ApproverID:    b.approverID,
		ApproverName:  b.approverName,
		ApprovedAt:    at.UTC(),
	}
}

// BlockRejected is emitted when an approver declines a block.
type BlockRejected struct {
	sharedDomain.BaseEvent
	BlockSnapshot
	ApproverID      string    `json:"approverId"`
	ApproverName    string    `json:"approverName,omitempty"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	RejectedAt      time.Time `json:"rejectedAt"`
}

func newBlockRejected(b *ScheduleBlock, at time.Time) *BlockRejected {
	return &BlockRejected{
		BaseEvent:       sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockRejected, at),
		BlockSnapshot:   snapshot(b),
		ApproverID:      b.approverID,
		ApproverName:    b.approverName,
		RejectionReason: b.rejectionReason,
		RejectedAt:      at.UTC(),
	}
}

// BlockExpired is emitted when a pending block lapses without a decision.
type BlockExpired struct {
	sharedDomain.BaseEvent
	BlockSnapshot
	ExpiredAt time.Time `json:"expiredAt"`
}

func newBlockExpired(b *ScheduleBlock, at time.Time) *BlockExpired {
	return &BlockExpired{
		BaseEvent:     sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockExpired, at),
		BlockSnapshot: snapshot(b),
		ExpiredAt:     at.UTC(),
	}
}

// BlockDeleted is emitted when a block is removed.
type BlockDeleted struct {
	sharedDomain.BaseEvent
	BlockSnapshot
	DeletedBy string `json:"deletedBy"`
}

func newBlockDeleted(b *ScheduleBlock, deletedBy string, at time.Time) *BlockDeleted {
	return &BlockDeleted{
		BaseEvent:     sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockDeleted, at),
		BlockSnapshot: snapshot(b),
		DeletedBy:     deletedBy,
	}
}
