package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheck(t *testing.T) {
	for name, test := range map[string]struct {
		ping   error
		status int
		body   string
	}{
		"Healthy":   {status: http.StatusOK, body: "ok"},
		"Unhealthy": {ping: errors.New("connection refused"), status: http.StatusServiceUnavailable, body: "error"},
	} {
		t.Run(name, func(t *testing.T) {
			handler := Check(pingFunc(func(context.Context) error { return test.ping }))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, test.status, rr.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, test.body, body["status"])
		})
	}
}
