package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/felixgeelhaar/careslot/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/restclient"
	"github.com/google/uuid"
)

const blocksPath = "/scheduleblocks"

// Client calls the schedule block endpoints. Periods are validated when the
// caller builds them, so an inverted range never reaches the wire.
type Client struct {
	http *restclient.Client
}

// NewClient wraps a configured REST client.
func NewClient(http *restclient.Client) *Client {
	return &Client{http: http}
}

type periodFields struct {
	Date      string `json:"date,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

func fieldsOf(p domain.Period) periodFields {
	if d, ok := p.Date(); ok {
		return periodFields{Date: domain.FormatDate(d)}
	}
	return periodFields{
		StartDate: domain.FormatDate(p.Start()),
		EndDate:   domain.FormatDate(p.End()),
	}
}

type blockBody struct {
	ProfessionalID string `json:"professionalId,omitempty"`
	periodFields
	Reason string `json:"reason,omitempty"`
}

type decisionBody struct {
	ApproverName string `json:"approverName,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// CheckConflict asks the server whether the period collides with an active block.
func (c *Client) CheckConflict(ctx context.Context, professionalID string, period domain.Period, exclude uuid.UUID) (bool, error) {
	if period.IsZero() {
		return false, domain.ErrInvalidPeriod
	}
	q := url.Values{}
	q.Set("professionalId", professionalID)
	f := fieldsOf(period)
	if f.Date != "" {
		q.Set("date", f.Date)
	} else {
		q.Set("startDate", f.StartDate)
		q.Set("endDate", f.EndDate)
	}
	if exclude != uuid.Nil {
		q.Set("excludeBlockId", exclude.String())
	}

	var out queries.CheckConflictResult
	if err := c.http.Do(ctx, "scheduleblocks.check_conflict", http.MethodGet, blocksPath+"/check-conflict", q, nil, &out); err != nil {
		return false, err
	}
	return out.HasConflict, nil
}

// List returns a professional's blocks, optionally by status.
func (c *Client) List(ctx context.Context, professionalID string, status domain.BlockStatus) ([]queries.BlockDTO, error) {
	q := url.Values{}
	q.Set("professionalId", professionalID)
	if status != "" {
		q.Set("status", status.String())
	}
	out := make([]queries.BlockDTO, 0)
	if err := c.http.Do(ctx, "scheduleblocks.list", http.MethodGet, blocksPath, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one block.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (*queries.BlockDTO, error) {
	var out queries.BlockDTO
	if err := c.http.Do(ctx, "scheduleblocks.get", http.MethodGet, blockPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Request submits a new block.
func (c *Client) Request(ctx context.Context, professionalID string, period domain.Period, reason string) (*queries.BlockDTO, error) {
	if period.IsZero() {
		return nil, domain.ErrInvalidPeriod
	}
	body := blockBody{ProfessionalID: professionalID, periodFields: fieldsOf(period), Reason: reason}
	var out queries.BlockDTO
	if err := c.http.Do(ctx, "scheduleblocks.request", http.MethodPost, blocksPath, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update reschedules a pending block.
func (c *Client) Update(ctx context.Context, id uuid.UUID, period domain.Period, reason string) (*queries.BlockDTO, error) {
	if period.IsZero() {
		return nil, domain.ErrInvalidPeriod
	}
	body := blockBody{periodFields: fieldsOf(period), Reason: reason}
	var out queries.BlockDTO
	if err := c.http.Do(ctx, "scheduleblocks.update", http.MethodPatch, blockPath(id), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Approve accepts a pending block.
func (c *Client) Approve(ctx context.Context, id uuid.UUID, approverName string) (*queries.BlockDTO, error) {
	var out queries.BlockDTO
	err := c.http.Do(ctx, "scheduleblocks.approve", http.MethodPatch, blockPath(id)+"/approve", nil,
		decisionBody{ApproverName: approverName}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Reject declines a pending block.
func (c *Client) Reject(ctx context.Context, id uuid.UUID, approverName, reason string) (*queries.BlockDTO, error) {
	var out queries.BlockDTO
	err := c.http.Do(ctx, "scheduleblocks.reject", http.MethodPatch, blockPath(id)+"/reject", nil,
		decisionBody{ApproverName: approverName, Reason: reason}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a block.
func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.http.Do(ctx, "scheduleblocks.delete", http.MethodDelete, blockPath(id), nil, nil, nil)
}

func blockPath(id uuid.UUID) string {
	return blocksPath + "/" + id.String()
}
