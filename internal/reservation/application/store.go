package application

import "github.com/felixgeelhaar/careslot/internal/reservation/domain"

// ReservationStore holds at most one reservation. Implementations need not
// be safe for concurrent use; the Coordinator serialises access.
type ReservationStore interface {
	Set(r domain.Reservation)
	Get() (domain.Reservation, bool)
	Clear()
}

// MemoryStore is a single-slot in-process store.
type MemoryStore struct {
	current *domain.Reservation
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Set(r domain.Reservation) {
	s.current = &r
}

func (s *MemoryStore) Get() (domain.Reservation, bool) {
	if s.current == nil {
		return domain.Reservation{}, false
	}
	return *s.current, true
}

func (s *MemoryStore) Clear() {
	s.current = nil
}
