package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/restclient"
)

const reservationsPath = "/slot-reservations"

// Client is the coordinator's Gateway over the slot-reservation endpoints.
type Client struct {
	http *restclient.Client
}

// NewClient wraps a configured REST client.
func NewClient(http *restclient.Client) *Client {
	return &Client{http: http}
}

// Reserve posts the request and returns the server's hold.
func (c *Client) Reserve(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	var out domain.Reservation
	if err := c.http.Do(ctx, "slot_reservations.reserve", http.MethodPost, reservationsPath, nil, req, &out); err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

// Release deletes one hold.
func (c *Client) Release(ctx context.Context, id string) error {
	return c.http.Do(ctx, "slot_reservations.release", http.MethodDelete, reservationsPath+"/"+url.PathEscape(id), nil, nil, nil)
}

// ReleaseAll deletes every hold of the authenticated user.
func (c *Client) ReleaseAll(ctx context.Context) error {
	return c.http.Do(ctx, "slot_reservations.release_all", http.MethodDelete, reservationsPath+"/user/current", nil, nil, nil)
}

// List returns the authenticated user's live holds.
func (c *Client) List(ctx context.Context) ([]domain.Reservation, error) {
	var out []domain.Reservation
	if err := c.http.Do(ctx, "slot_reservations.list", http.MethodGet, reservationsPath+"/user/current", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
