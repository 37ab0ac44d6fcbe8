package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	dErrors "trapper/pkg/domain-errors"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"id":"abc"}`, rec.Body.String())
}

func TestWriteErrorMapsCodes(t *testing.T) {
	tests := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeBadRequest, http.StatusBadRequest},
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeConflict, http.StatusConflict},
		{dErrors.CodeUnauthorized, http.StatusUnauthorized},
		{dErrors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteError(rec, dErrors.New(tt.code, "because"))
		require.Equal(t, tt.status, rec.Code, "code=%s", tt.code)
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: relation people does not exist"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "relation")
	require.Contains(t, rec.Body.String(), string(dErrors.CodeInternal))
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Jane"}`))
	rec := httptest.NewRecorder()
	got, ok := Decode[payload](rec, req)
	require.True(t, ok)
	require.Equal(t, "Jane", got.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	rec = httptest.NewRecorder()
	_, ok = Decode[payload](rec, req)
	require.False(t, ok)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
