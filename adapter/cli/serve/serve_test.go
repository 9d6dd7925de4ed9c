package serve

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/careslot/internal/app"
	"github.com/felixgeelhaar/careslot/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContainer(t *testing.T, tokens string) *app.Container {
	t.Helper()
	cfg := &config.Config{
		AppEnv:              "test",
		LocalMode:           true,
		DatabaseDriver:      "sqlite",
		SQLitePath:          filepath.Join(t.TempDir(), "careslot.db"),
		APITokens:           tokens,
		HTTPAddr:            "127.0.0.1:0",
		HoldTTL:             10 * time.Minute,
		ReleasePolicy:       config.ReleasePolicyOptimistic,
		OutboxPollInterval:  10 * time.Millisecond,
		OutboxBatchSize:     10,
		OutboxMaxRetries:    3,
		BlockExpiryInterval: time.Hour,
	}
	c, err := app.NewContainer(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewServer(t *testing.T) {
	c := newContainer(t, "tok-pat:patient-1:patient,tok-admin:admin-1:admin")

	server, err := NewServer(c)
	require.NoError(t, err)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, health["checks"], "database")

	body := `{"professionalId":"pro-1","specialtyId":"cardio","date":"2030-06-10","time":"09:00"}`
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/slot-reservations", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok-pat")
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/scheduleblocks?professionalId=pro-1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNewServer_BadTokens(t *testing.T) {
	c := newContainer(t, "")
	c.Config.APITokens = "tok-x:user-1:superuser"

	_, err := NewServer(c)
	assert.ErrorContains(t, err, "invalid role")
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := newContainer(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, c) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
