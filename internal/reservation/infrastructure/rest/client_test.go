package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixgeelhaar/careslot/internal/reservation/application"
	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/restclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ application.Gateway = (*Client)(nil)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	hc, err := restclient.New(context.Background(), restclient.Config{BaseURL: srv.URL, Token: "tok"})
	require.NoError(t, err)
	return NewClient(hc)
}

func TestClient_Reserve(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/slot-reservations", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{
			"professionalId": "pro-1", "specialtyId": "cardio", "date": "2024-06-10", "time": "09:30",
		}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"res-1","userId":"u1","professionalId":"pro-1","specialtyId":"cardio",
			"date":"2024-06-10","time":"09:30","expiresAt":"2024-06-01T09:10:00Z","createdAt":"2024-06-01T09:00:00Z"}`))
	})

	r, err := c.Reserve(context.Background(), domain.ReservationRequest{
		ProfessionalID: "pro-1", SpecialtyID: "cardio", Date: "2024-06-10", Time: "09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "res-1", r.ID)
	assert.Equal(t, "2024-06-01T09:10:00Z", r.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
}

func TestClient_ReserveConflict(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"slot_unavailable","message":"slot is already held by another user"}`))
	})

	_, err := c.Reserve(context.Background(), domain.ReservationRequest{
		ProfessionalID: "pro-1", SpecialtyID: "cardio", Date: "2024-06-10", Time: "09:30",
	})
	var remote *restclient.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.True(t, remote.Conflict())
	assert.Equal(t, "slot_unavailable", remote.Code)
}

func TestClient_Release(t *testing.T) {
	var paths []string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Release(context.Background(), "res-1"))
	require.NoError(t, c.ReleaseAll(context.Background()))
	assert.Equal(t, []string{"/slot-reservations/res-1", "/slot-reservations/user/current"}, paths)
}

func TestClient_ReleaseNotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"reservation not found"}`))
	})

	err := c.Release(context.Background(), "res-404")
	assert.Equal(t, http.StatusNotFound, restclient.StatusCode(err))
}

func TestClient_List(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`[{"id":"res-1"},{"id":"res-2"}]`))
	})

	holds, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, holds, 2)
	assert.Equal(t, "res-2", holds[1].ID)
}
