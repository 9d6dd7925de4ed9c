package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/careslot/internal/reservation/application"
	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// fakeSlots is a gateway handing out holds that last ttl on clk.
type fakeSlots struct {
	mu          sync.Mutex
	clk         clock.Clock
	ttl         time.Duration
	held        []domain.Reservation
	released    []string
	releaseAlls int
	err         error
}

func (f *fakeSlots) Reserve(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Reservation{}, f.err
	}
	now := f.clk.Now()
	r, err := domain.NewReservation("res-1", "patient-1", req, now.Add(f.ttl), now)
	if err != nil {
		return domain.Reservation{}, err
	}
	f.held = append(f.held, r)
	return r, nil
}

func (f *fakeSlots) Release(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, id)
	return f.err
}

func (f *fakeSlots) ReleaseAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseAlls++
	return f.err
}

func (f *fakeSlots) List(ctx context.Context) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Reservation(nil), f.held...), f.err
}

func (f *fakeSlots) releasedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

var testRequest = domain.ReservationRequest{
	ProfessionalID: "pro-1",
	SpecialtyID:    "cardio",
	Date:           "2024-06-10",
	Time:           "09:00",
}

func newSession(t *testing.T) (*application.Coordinator, *fakeSlots, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(t0)
	slots := &fakeSlots{clk: clk, ttl: 90 * time.Second}
	return application.NewCoordinator(slots, application.WithClock(clk)), slots, clk
}

// syncBuffer is written by the hold loop and read by the test goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestReserveAndHold_Expires(t *testing.T) {
	session, _, clk := newSession(t)
	out := &syncBuffer{}
	tick := make(chan time.Time)

	done := make(chan error, 1)
	go func() {
		done <- reserveAndHold(context.Background(), out, session, testRequest, tick)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Holding.")
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, out.String(), "(1:30 left)")

	tick <- t0
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "1:30 remaining")
	}, time.Second, 5*time.Millisecond)

	clk.Advance(90 * time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("hold did not end on expiry")
	}
	assert.Contains(t, out.String(), "Reservation res-1 expired")
	_, held := session.Current()
	assert.False(t, held)
}

func TestReserveAndHold_ReleasesOnCancel(t *testing.T) {
	session, slots, _ := newSession(t)
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- reserveAndHold(ctx, out, session, testRequest, nil)
	}()

	require.Eventually(t, func() bool {
		_, ok := session.Current()
		return ok
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("hold did not end on cancel")
	}
	assert.Equal(t, []string{"res-1"}, slots.releasedIDs())
	assert.Contains(t, out.String(), "Released reservation res-1")
	_, held := session.Current()
	assert.False(t, held)
}

func TestReserveAndHold_ReserveFails(t *testing.T) {
	session, slots, _ := newSession(t)
	slots.err = domain.ErrSlotUnavailable

	err := reserveAndHold(context.Background(), &bytes.Buffer{}, session, testRequest, nil)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "0:00", formatRemaining(-4))
	assert.Equal(t, "0:59", formatRemaining(59))
	assert.Equal(t, "10:00", formatRemaining(600))
}

func runRoot(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	prev := GetApp()
	SetApp(a)
	releaseAll = false
	t.Cleanup(func() {
		SetApp(prev)
		releaseAll = false
		rootCmd.SetArgs(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReleaseCommand(t *testing.T) {
	slots := &fakeSlots{clk: clock.NewManual(t0), ttl: time.Minute}

	out, err := runRoot(t, &App{Slots: slots}, "release", "res-9")
	require.NoError(t, err)
	assert.Contains(t, out, "Released reservation res-9")
	assert.Equal(t, []string{"res-9"}, slots.releasedIDs())

	out, err = runRoot(t, &App{Slots: slots}, "release", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Released all reservations")
	assert.Equal(t, 1, slots.releaseAlls)

	_, err = runRoot(t, &App{Slots: slots}, "release")
	assert.Error(t, err)
}

func TestReleaseCommand_RemoteError(t *testing.T) {
	slots := &fakeSlots{clk: clock.NewManual(t0), err: errors.New("boom")}

	_, err := runRoot(t, &App{Slots: slots}, "release", "res-1")
	assert.ErrorContains(t, err, "boom")
}

func TestHoldsCommand(t *testing.T) {
	slots := &fakeSlots{clk: clock.System{}, ttl: time.Hour}
	_, err := slots.Reserve(context.Background(), testRequest)
	require.NoError(t, err)

	out, err := runRoot(t, &App{Slots: slots}, "holds")
	require.NoError(t, err)
	assert.Contains(t, out, "Held slots (1)")
	assert.Contains(t, out, "2024-06-10 09:00")
}

func TestCommands_RequireApp(t *testing.T) {
	_, err := runRoot(t, nil, "holds")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	t.Cleanup(func() { versionJSON = false })

	out, err := runRoot(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "careslot ")
	assert.Contains(t, out, "commit:")

	out, err = runRoot(t, nil, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"goVersion": "go`)
}

func TestCurrentBuild_PrefersStampedValues(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "1.4.0"

	b := CurrentBuild()
	assert.Equal(t, "1.4.0", b.Version)
	assert.NotEmpty(t, b.GoVersion)
}
