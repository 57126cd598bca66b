package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/types"
)

// =============================================================================
// 🧪 Common 函数测试
// =============================================================================

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusAccepted, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.JSONEq(t, `{"message":"hello"}`, w.Body.String())
}

func TestWriteSuccess_CarriesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(types.WithRequestID(r.Context(), "req-42"))

	WriteSuccess(w, r, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "req-42", resp.RequestID)
	assert.Nil(t, resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantKind   string
	}{
		{"validation", types.NewValidationError("Workflow must have an ID"), http.StatusBadRequest, "VALIDATION", "validation"},
		{"not found", types.NewNotFoundError("workflow", "wf-1"), http.StatusNotFound, "NOT_FOUND", "not-found"},
		{"already executing", types.NewError(types.ErrAlreadyExecuting, "busy"), http.StatusConflict, "ALREADY_EXECUTING", "executor"},
		{"invalid json", types.NewError(types.ErrInvalidJSON, "AI returned invalid JSON"), http.StatusUnprocessableEntity, "INVALID_JSON", "generation"},
		{"storage", types.NewStorageError("Failed to save workflow", errors.New("disk full")), http.StatusInternalServerError, "STORAGE", "storage"},
		{"upstream", types.NewError(types.ErrUpstreamError, "bad gateway"), http.StatusBadGateway, "UPSTREAM_ERROR", "generation"},
		{"explicit status wins", types.NewError(types.ErrInvalidRequest, "too big").WithHTTPStatus(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge, "INVALID_REQUEST", "validation"},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			WriteError(w, r, tt.err, zap.NewNop())

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantKind, resp.Error.Kind)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestWriteError_DetailsAndRaw(t *testing.T) {
	w := httptest.NewRecorder()
	err := types.NewValidationError("Workflow must have an ID", "Workflow must have a name")
	WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), err, nil)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"Workflow must have an ID", "Workflow must have a name"}, resp.Error.Details)

	w = httptest.NewRecorder()
	WriteError(w, nil, types.NewError(types.ErrInvalidJSON, "AI returned invalid JSON").WithRaw("not json"), nil)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "not json", resp.Error.Raw)
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"test","value":123}`, false},
		{"malformed", `{"name":"test",}`, true},
		{"unknown field", `{"name":"test","unknown":"field"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tt.body))

			var got payload
			err := DecodeJSONBody(w, r, &got)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, payload{Name: "test", Value: 123}, got)
		})
	}
}

func TestDecodeJSONBody_Limits(t *testing.T) {
	var dst map[string]any

	r := httptest.NewRequest(http.MethodPost, "/test", http.NoBody)
	err := DecodeJSONBody(httptest.NewRecorder(), r, &dst)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))

	oversized := `{"name":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	r = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(oversized))
	err = DecodeJSONBody(httptest.NewRecorder(), r, &dst)
	require.Error(t, err)
	te, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, te.HTTPStatus)
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	assert.Equal(t, http.StatusOK, rw.StatusCode)
	assert.False(t, rw.Written)

	rw.WriteHeader(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, rw.StatusCode)
	assert.True(t, rw.Written)

	// 再次写入应该被忽略
	rw.WriteHeader(http.StatusBadRequest)
	assert.Equal(t, http.StatusCreated, rw.StatusCode)

	n, err := rw.Write([]byte("test"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.EqualValues(t, 4, rw.BytesWritten)

	rw.Flush()
	assert.True(t, w.Flushed)
	assert.Same(t, w, rw.Unwrap())

	_, _, err = rw.Hijack()
	assert.Error(t, err, "httptest recorder cannot be hijacked")
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code       types.ErrorCode
		wantStatus int
	}{
		{types.ErrPromptTooLong, http.StatusBadRequest},
		{types.ErrInvalidRequest, http.StatusBadRequest},
		{types.ErrGenerationUnavailable, http.StatusInternalServerError},
		{types.ErrExecutorFailed, http.StatusInternalServerError},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, mapErrorCodeToHTTPStatus(tt.code))
		})
	}
}
