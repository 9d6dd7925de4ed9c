package caldav

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	puts    map[string]*ical.Calendar
	removed []string
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{puts: make(map[string]*ical.Calendar)}
}

func (f *fakeStore) PutCalendarObject(_ context.Context, path string, cal *ical.Calendar) (*caldav.CalendarObject, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts[path] = cal
	return &caldav.CalendarObject{Path: path, Data: cal}, nil
}

func (f *fakeStore) RemoveAll(_ context.Context, name string) error {
	f.removed = append(f.removed, name)
	return nil
}

func blockEvent(t *testing.T, routingKey string, status domain.BlockStatus) (*eventbus.ConsumedEvent, uuid.UUID) {
	t.Helper()
	start, _ := domain.ParseDate("2024-06-10")
	end, _ := domain.ParseDate("2024-06-12")
	period, err := domain.DateRange(start, end)
	require.NoError(t, err)

	id := uuid.New()
	payload, err := json.Marshal(blockPayload{
		BlockID:        id,
		ProfessionalID: "pro-1",
		Period:         period,
		Reason:         "conference",
		Status:         status,
		ApproverName:   "Dr. Admin",
	})
	require.NoError(t, err)
	return &eventbus.ConsumedEvent{RoutingKey: routingKey, AggregateID: id, Payload: payload}, id
}

func encode(t *testing.T, cal *ical.Calendar) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, ical.NewEncoder(&buf).Encode(cal))
	return buf.String()
}

func TestPublisher_ApprovedBlockBecomesAllDayEvent(t *testing.T) {
	store := newFakeStore()
	p := newPublisher(store, "/calendars/pro/blocks", nil)
	p.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

	event, id := blockEvent(t, domain.RoutingKeyBlockApproved, domain.StatusApproved)
	require.NoError(t, p.Handle(context.Background(), event))

	path := "/calendars/pro/blocks/" + id.String() + ".ics"
	require.Contains(t, store.puts, path)

	text := encode(t, store.puts[path])
	assert.Contains(t, text, "DTSTART;VALUE=DATE:20240610")
	assert.Contains(t, text, "DTEND;VALUE=DATE:20240613")
	assert.Contains(t, text, "UID:"+id.String())
	assert.Contains(t, text, PropXCareslot+":1")
	assert.Contains(t, text, "Reason: conference")
}

func TestPublisher_DeletingApprovedBlockRemovesMirror(t *testing.T) {
	store := newFakeStore()
	p := newPublisher(store, "/cal/", nil)

	event, id := blockEvent(t, domain.RoutingKeyBlockDeleted, domain.StatusApproved)
	require.NoError(t, p.Handle(context.Background(), event))

	assert.Equal(t, []string{"/cal/" + id.String() + ".ics"}, store.removed)
}

func TestPublisher_DeletingPendingBlockIsIgnored(t *testing.T) {
	store := newFakeStore()
	p := newPublisher(store, "/cal/", nil)

	event, _ := blockEvent(t, domain.RoutingKeyBlockDeleted, domain.StatusPending)
	require.NoError(t, p.Handle(context.Background(), event))
	assert.Empty(t, store.removed)
}

func TestPublisher_DiscoversCalendarOnce(t *testing.T) {
	store := newFakeStore()
	p := newPublisher(store, "", nil)
	calls := 0
	p.discover = func(context.Context) (string, error) {
		calls++
		return "/discovered", nil
	}

	for i := 0; i < 2; i++ {
		event, _ := blockEvent(t, domain.RoutingKeyBlockApproved, domain.StatusApproved)
		require.NoError(t, p.Handle(context.Background(), event))
	}
	assert.Equal(t, 1, calls)
	assert.Len(t, store.puts, 2)
}

func TestPublisher_Errors(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("507 insufficient storage")
	p := newPublisher(store, "/cal/", nil)

	event, _ := blockEvent(t, domain.RoutingKeyBlockApproved, domain.StatusApproved)
	assert.ErrorContains(t, p.Handle(context.Background(), event), "insufficient storage")

	bad := &eventbus.ConsumedEvent{RoutingKey: domain.RoutingKeyBlockApproved, Payload: []byte(`{`)}
	assert.Error(t, p.Handle(context.Background(), bad))

	noPath := newPublisher(newFakeStore(), "", nil)
	event, _ = blockEvent(t, domain.RoutingKeyBlockApproved, domain.StatusApproved)
	assert.ErrorContains(t, noPath.Handle(context.Background(), event), "no calendar path")
}

func TestPublisher_EventTypes(t *testing.T) {
	p := newPublisher(newFakeStore(), "/cal/", nil)
	assert.ElementsMatch(t, []string{domain.RoutingKeyBlockApproved, domain.RoutingKeyBlockDeleted}, p.EventTypes())
}

func TestNewPublisher_RequiresURL(t *testing.T) {
	_, err := NewPublisher(Config{}, nil)
	assert.Error(t, err)

	p, err := NewPublisher(Config{BaseURL: "https://caldav.example.com", CalendarPath: "/cal"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/cal/", p.calPath)
}
