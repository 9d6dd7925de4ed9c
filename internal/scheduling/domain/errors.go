package domain

import "errors"

var (
	ErrInvalidDate             = errors.New("invalid date")
	ErrInvalidInterval         = errors.New("start date must not be after end date")
	ErrInvalidPeriod           = errors.New("invalid block period")
	ErrInvalidStatus           = errors.New("invalid block status")
	ErrProfessionalRequired    = errors.New("professional id is required")
	ErrApproverRequired        = errors.New("approver id is required")
	ErrReasonTooLong           = errors.New("reason is too long")
	ErrBlockNotFound           = errors.New("schedule block not found")
	ErrBlockNotPending         = errors.New("schedule block is no longer pending")
	ErrInvalidStatusTransition = errors.New("invalid schedule block status transition")
	ErrBlockNotDeletable       = errors.New("only pending schedule blocks can be deleted")
	ErrBlockConflict           = errors.New("schedule block conflicts with an existing block")
	ErrStaleBlock              = errors.New("schedule block was modified concurrently")
	ErrNotBlockOwner           = errors.New("schedule block belongs to another professional")
)
