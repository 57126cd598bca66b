package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func ok(context.Context) error { return nil }

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) ServiceHealthResponse {
	t.Helper()
	var status ServiceHealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	return status
}

func TestHealthHandler_Liveness(t *testing.T) {
	handler := NewHealthHandler(nil)
	// 存储不可用时存活探针依然返回 200
	handler.RegisterCheck(NewPingCheck("storage", func(context.Context) error { return errors.New("down") }))

	for _, path := range []string{"/health", "/healthz"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, path, nil)
		if path == "/health" {
			handler.HandleHealth(w, r)
		} else {
			handler.HandleHealthz(w, r)
		}

		assert.Equal(t, http.StatusOK, w.Code, path)
		status := decodeHealth(t, w)
		assert.Equal(t, "healthy", status.Status)
		assert.Empty(t, status.Checks)
		assert.False(t, status.Timestamp.IsZero())
	}
}

func TestHealthHandler_HandleReady(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]func(context.Context) error
		wantCode   int
		wantStatus string
		wantFailed string
	}{
		{
			name:       "memory backend only",
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
		},
		{
			name: "storage and redis healthy",
			checks: map[string]func(context.Context) error{
				"storage": ok,
				"redis":   ok,
			},
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
		},
		{
			name: "database unreachable",
			checks: map[string]func(context.Context) error{
				"storage":  ok,
				"database": func(context.Context) error { return errors.New("pool is closed") },
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantFailed: "database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			h := NewHealthHandler(zap.New(core))
			for name, fn := range tt.checks {
				h.RegisterCheck(NewPingCheck(name, fn))
			}

			w := httptest.NewRecorder()
			h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			status := decodeHealth(t, w)
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Len(t, status.Checks, len(tt.checks))
			for name, result := range status.Checks {
				if name == tt.wantFailed {
					assert.Equal(t, "fail", result.Status)
					assert.Equal(t, "pool is closed", result.Message)
					continue
				}
				assert.Equal(t, "pass", result.Status, name)
				assert.NotEmpty(t, result.Latency)
			}

			if tt.wantFailed != "" {
				require.Equal(t, 1, logs.Len())
				assert.Equal(t, tt.wantFailed, logs.All()[0].ContextMap()["check"])
			} else {
				assert.Zero(t, logs.Len())
			}
		})
	}
}

func TestHealthHandler_ReadyRunsUnderTimeout(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())
	var calls atomic.Int32
	handler.RegisterCheck(NewPingCheck("storage", func(ctx context.Context) error {
		calls.Add(1)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "ready checks run under a timeout")
		return nil
	}))

	w := httptest.NewRecorder()
	handler.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	status := handler.Check(context.Background())
	assert.Equal(t, "pass", status.Checks["storage"].Status)
	assert.EqualValues(t, 2, calls.Load())
}

func TestHealthHandler_HandleVersion(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleVersion("0.3.0", "2026-01-01T00:00:00Z", "abc123")(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]string{
		"version":    "0.3.0",
		"build_time": "2026-01-01T00:00:00Z",
		"git_commit": "abc123",
	}, resp.Data)
}

func TestHealthHandler_ConcurrentReady(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())
	for _, name := range []string{"storage", "redis", "database"} {
		handler.RegisterCheck(NewPingCheck(name, ok))
	}

	done := make(chan int, 10)
	for i := 0; i < 10; i++ {
		go func() {
			w := httptest.NewRecorder()
			handler.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			done <- w.Code
		}()
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, <-done)
	}
}
