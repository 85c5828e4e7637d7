package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"medtrack-api/internal/api"
)

func TestHealthz(t *testing.T) {
	s := NewServer(http.NotFoundHandler(), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRelaysServiceCalls(t *testing.T) {
	var relayed *http.Request
	bridge := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayed = r
		w.WriteHeader(http.StatusTeapot)
	})
	s := NewServer(bridge, []string{"http://localhost:3000"}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, api.FullMethod("Login"), strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-IP", "1.2.3.4")
	req.RemoteAddr = "198.51.100.9:5555"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	if assert.NotNil(t, relayed) {
		assert.Equal(t, api.FullMethod("Login"), relayed.URL.Path)
		assert.Equal(t, "198.51.100.9", relayed.Header.Get("X-Real-IP"), "client supplied address is replaced")
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/other.Service/Login", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(http.NotFoundHandler(), []string{"http://localhost:3000"}, zap.NewNop())

	req := httptest.NewRequest(http.MethodOptions, api.FullMethod("Login"), nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
