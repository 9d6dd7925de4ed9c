package queries

import (
	"time"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/google/uuid"
)

// BlockDTO is the wire form of a schedule block. A single-day block carries
// Date; a range carries StartDate and EndDate.
type BlockDTO struct {
	ID              uuid.UUID  `json:"id"`
	ProfessionalID  string     `json:"professionalId"`
	Kind            string     `json:"kind"`
	Date            string     `json:"date,omitempty"`
	StartDate       string     `json:"startDate,omitempty"`
	EndDate         string     `json:"endDate,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	Status          string     `json:"status"`
	ApproverID      string     `json:"approverId,omitempty"`
	ApproverName    string     `json:"approverName,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	ExpiredAt       *time.Time `json:"expiredAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ToBlockDTO converts a block for transport.
func ToBlockDTO(b *domain.ScheduleBlock) BlockDTO {
	dto := BlockDTO{
		ID:              b.ID(),
		ProfessionalID:  b.ProfessionalID(),
		Kind:            string(b.Period().Kind()),
		Reason:          b.Reason(),
		Status:          b.Status().String(),
		ApproverID:      b.ApproverID(),
		ApproverName:    b.ApproverName(),
		ApprovedAt:      b.ApprovedAt(),
		RejectedAt:      b.RejectedAt(),
		RejectionReason: b.RejectionReason(),
		ExpiredAt:       b.ExpiredAt(),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}
	if d, ok := b.Period().Date(); ok {
		dto.Date = domain.FormatDate(d)
	} else {
		dto.StartDate = domain.FormatDate(b.Period().Start())
		dto.EndDate = domain.FormatDate(b.Period().End())
	}
	return dto
}

// ToBlockDTOs converts a list, never returning nil.
func ToBlockDTOs(blocks []*domain.ScheduleBlock) []BlockDTO {
	out := make([]BlockDTO, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, ToBlockDTO(b))
	}
	return out
}

// Period rebuilds the tagged period from the wire fields.
func (d BlockDTO) Period() (domain.Period, error) {
	return domain.ParsePeriod(d.Date, d.StartDate, d.EndDate)
}

// ToDomain rebuilds a block from its wire form.
func (d BlockDTO) ToDomain() (*domain.ScheduleBlock, error) {
	period, err := d.Period()
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseBlockStatus(d.Status)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateScheduleBlock(
		d.ID, d.ProfessionalID, period, d.Reason, status,
		d.ApproverID, d.ApproverName, d.ApprovedAt, d.RejectedAt,
		d.RejectionReason, d.ExpiredAt, 0, d.CreatedAt, d.UpdatedAt,
	), nil
}
