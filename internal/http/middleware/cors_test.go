package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveCORS(allowed []string, req *http.Request) (*httptest.ResponseRecorder, bool) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	CORS(allowed)(handler).ServeHTTP(rec, req)
	return rec, called
}

func TestCORS_AllowsListedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/leads", nil)
	req.Header.Set("Origin", "https://Landing.example.com")

	rec, called := serveCORS([]string{"https://landing.example.com/"}, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://Landing.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, corsAllowedMethods, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, corsAllowedHeaders, rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORS_IgnoresUnknownOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/leads", nil)
	req.Header.Set("Origin", "https://unknown.example")

	rec, called := serveCORS([]string{"https://landing.example.com"}, req)

	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Wildcard(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://random.example")

	rec, _ := serveCORS([]string{"*"}, req)

	assert.Equal(t, "https://random.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/leads", nil)
	req.Header.Set("Origin", "https://landing.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec, called := serveCORS([]string{"https://landing.example.com"}, req)
	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req.Header.Set("Origin", "https://evil.example")
	rec, called = serveCORS([]string{"https://landing.example.com"}, req)
	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	check := OriginChecker([]string{"https://landing.example.com"})

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/ws/form", nil)
	assert.True(t, check(req), "no origin header")

	req.Header.Set("Origin", "https://landing.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://api.example.com")
	assert.True(t, check(req), "same origin")

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
