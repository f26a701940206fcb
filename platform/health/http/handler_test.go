package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	ok := Check{Name: "postgres", Probe: func(context.Context) error { return nil }}
	down := Check{Name: "redis", Probe: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("no checks", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Handler(time.Second)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("all checks pass", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Handler(time.Second, ok)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failing dependency", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Handler(time.Second, ok, down)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "not ready", body.Status)
		require.Equal(t, "ok", body.Checks["postgres"])
		require.Equal(t, "connection refused", body.Checks["redis"])
	})
}
