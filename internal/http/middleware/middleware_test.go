package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("GeneratesID", func(t *testing.T) {
		buf.Reset()
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/students", nil))

		assert.Equal(t, http.StatusTeapot, rr.Code)
		_, err := uuid.Parse(rr.Header().Get(RequestIDHeader))
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "status=418")
		assert.Contains(t, buf.String(), "path=/students")
	})

	t.Run("KeepsCallerID", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/students", nil)
		req.Header.Set(RequestIDHeader, "abc")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, "abc", rr.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), "request_id=abc")
	})
}
