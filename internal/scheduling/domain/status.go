package domain

import "fmt"

// BlockStatus is the approval state of a schedule block.
type BlockStatus string

const (
	StatusPending  BlockStatus = "pending"
	StatusApproved BlockStatus = "approved"
	StatusRejected BlockStatus = "rejected"
	StatusExpired  BlockStatus = "expired"
)

// ParseBlockStatus validates a status string.
func ParseBlockStatus(s string) (BlockStatus, error) {
	status := BlockStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// IsValid reports whether s is a known status.
func (s BlockStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s BlockStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// BlocksAvailability reports whether a block in this status makes its
// period unavailable. Only pending and approved blocks do.
func (s BlockStatus) BlocksAvailability() bool {
	return s == StatusPending || s == StatusApproved
}

// CanTransitionTo encodes pending -> {approved, rejected, expired}.
func (s BlockStatus) CanTransitionTo(next BlockStatus) bool {
	return s == StatusPending && next.IsTerminal()
}

func (s BlockStatus) String() string { return string(s) }
