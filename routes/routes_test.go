package routes_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelf/app"
	"shelf/config"
	"shelf/routes"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg, err := config.NewConfigBuilder().
		WithStoreDir(t.TempDir()).
		WithDatabase("routes-test").
		Build()
	require.NoError(t, err)

	container, err := app.NewContainerWithConfig(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	return routes.Setup(container.HandlerContainer(), nil)
}

func TestRoutesRegistered(t *testing.T) {
	router := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/contacts", "", http.StatusOK},
		{http.MethodGet, "/api/contacts/count", "", http.StatusOK},
		{http.MethodGet, "/api/contacts/missing", "", http.StatusNotFound},
		{http.MethodPost, "/api/contacts", `{"name":"Ada","email":"ada@example.com"}`, http.StatusCreated},
		{http.MethodPost, "/api/contacts/clear", "", http.StatusNoContent},
		{http.MethodGet, "/api/databases", "", http.StatusOK},
		{http.MethodDelete, "/api/contacts", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestOversizedBodyRejected(t *testing.T) {
	router := newTestServer(t)

	big := bytes.Repeat([]byte("x"), 2<<20)
	req := httptest.NewRequest(http.MethodPost, "/api/contacts", bytes.NewReader(big))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// The JSON decoder hits the MaxBytesReader limit and the handler reports
	// the body as invalid.
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaticFallbackAbsent(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nothing-here", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
