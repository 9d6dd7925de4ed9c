package caldav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// PropXCareslot marks events written by the publisher.
const PropXCareslot = "X-CARESLOT-BLOCK"

// Config holds the CalDAV account the publisher writes to.
type Config struct {
	BaseURL      string
	Username     string
	Password     string
	CalendarPath string
	Timeout      time.Duration
}

type calendarStore interface {
	PutCalendarObject(ctx context.Context, path string, cal *ical.Calendar) (*caldav.CalendarObject, error)
	RemoveAll(ctx context.Context, name string) error
}

// Publisher mirrors approved schedule blocks into a CalDAV calendar as
// all-day unavailability events and removes the mirror when an approved
// block is deleted. Pending, rejected and expired blocks never have one.
type Publisher struct {
	store    calendarStore
	discover func(ctx context.Context) (string, error)
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	calPath string
}

// NewPublisher creates a publisher against a CalDAV server. The calendar is
// discovered on first use when no path is configured.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("caldav: base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{Timeout: timeout}, cfg.Username, cfg.Password)
	client, err := caldav.NewClient(httpClient, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	p := newPublisher(client, cfg.CalendarPath, logger)
	p.discover = func(ctx context.Context) (string, error) {
		return findCalendarPath(ctx, client)
	}
	return p, nil
}

func newPublisher(store calendarStore, calendarPath string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		store:   store,
		calPath: normalizeCollection(calendarPath),
		logger:  logger,
		now:     time.Now,
	}
}

// EventTypes implements eventbus.EventConsumer.
func (p *Publisher) EventTypes() []string {
	return []string{domain.RoutingKeyBlockApproved, domain.RoutingKeyBlockDeleted}
}

type blockPayload struct {
	BlockID        uuid.UUID          `json:"blockId"`
	ProfessionalID string             `json:"professionalId"`
	Period         domain.Period      `json:"period"`
	Reason         string             `json:"reason"`
	Status         domain.BlockStatus `json:"status"`
	ApproverName   string             `json:"approverName"`
}

// Handle implements eventbus.EventConsumer.
func (p *Publisher) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var block blockPayload
	if err := event.DecodePayload(&block); err != nil {
		return fmt.Errorf("decode block event: %w", err)
	}

	switch event.RoutingKey {
	case domain.RoutingKeyBlockApproved:
		return p.put(ctx, block)
	case domain.RoutingKeyBlockDeleted:
		if block.Status != domain.StatusApproved {
			return nil
		}
		return p.remove(ctx, block.BlockID)
	}
	return nil
}

func (p *Publisher) put(ctx context.Context, block blockPayload) error {
	path, err := p.eventPath(ctx, block.BlockID)
	if err != nil {
		return err
	}
	if _, err := p.store.PutCalendarObject(ctx, path, toICalendar(block, p.now())); err != nil {
		return fmt.Errorf("put caldav event: %w", err)
	}
	p.logger.InfoContext(ctx, "mirrored schedule block to caldav",
		"block_id", block.BlockID,
		"professional_id", block.ProfessionalID,
		"period", block.Period.String(),
	)
	return nil
}

func (p *Publisher) remove(ctx context.Context, blockID uuid.UUID) error {
	path, err := p.eventPath(ctx, blockID)
	if err != nil {
		return err
	}
	if err := p.store.RemoveAll(ctx, path); err != nil {
		return fmt.Errorf("remove caldav event: %w", err)
	}
	p.logger.InfoContext(ctx, "removed schedule block from caldav", "block_id", blockID)
	return nil
}

func (p *Publisher) eventPath(ctx context.Context, blockID uuid.UUID) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.calPath == "" {
		if p.discover == nil {
			return "", errors.New("caldav: no calendar path configured")
		}
		path, err := p.discover(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to find calendar: %w", err)
		}
		p.calPath = normalizeCollection(path)
	}
	return p.calPath + blockID.String() + ".ics", nil
}

func findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}
	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", errors.New("no calendars found")
	}
	return cals[0].Path, nil
}

func normalizeCollection(path string) string {
	if path == "" || strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

// toICalendar renders a block as an all-day event. DTEND is exclusive, so a
// block ending on the 12th ends on the 13th in iCalendar terms.
func toICalendar(block blockPayload, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//careslot//Schedule Blocks//EN")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, block.BlockID.String())
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDate(ical.PropDateTimeStart, block.Period.Start())
	event.Props.SetDate(ical.PropDateTimeEnd, block.Period.End().AddDate(0, 0, 1))
	event.Props.SetText(ical.PropSummary, "Unavailable")
	event.Props.SetText("TRANSP", "OPAQUE")

	description := "Schedule block for " + block.ProfessionalID
	if block.Reason != "" {
		description += "\nReason: " + block.Reason
	}
	if block.ApproverName != "" {
		description += "\nApproved by " + block.ApproverName
	}
	event.Props.SetText(ical.PropDescription, description)

	marker := ical.NewProp(PropXCareslot)
	marker.Value = "1"
	event.Props[PropXCareslot] = []ical.Prop{*marker}

	cal.Children = append(cal.Children, event.Component)
	return cal
}
