package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eduscan-api/config"
	"eduscan-api/pkg/logging"
	"eduscan-api/pkg/metrics"
	"eduscan-api/services"
	"eduscan-api/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuth() *services.AuthService {
	return services.NewAuthService(config.JWTConfig{Secret: "test-secret", ExpiryHours: 1})
}

func TestRequireAuthAndRole(t *testing.T) {
	auth := newAuth()
	r := gin.New()
	r.GET("/admin", RequireAuth(auth), RequireRole("teacher"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetClaims(c).Username})
	})

	teacher, err := auth.GenerateToken(1, "admin", "teacher")
	require.NoError(t, err)
	parent, err := auth.GenerateToken(3, "parent1", "parent")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + parent, http.StatusForbidden},
		{"teacher", "Bearer " + teacher, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSessionsPersistAcrossRequests(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	r := gin.New()
	r.Use(Sessions(store, func(context.Context) string { return "Somali" }, logging.Nop()))
	r.POST("/reset", func(c *gin.Context) {
		s := GetSession(c)
		s.ResetForm()
		c.JSON(http.StatusOK, gin.H{"counter": s.FormResetCounter, "language": s.Language})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reset", nil))
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(SessionHeader)
	require.NotEmpty(t, id)
	assert.Contains(t, w.Body.String(), `"language":"Somali"`)

	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(SessionHeader))
	assert.Contains(t, w.Body.String(), `"counter":2`)

	stored, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.FormResetCounter)
}

func TestSessionsUnknownIDStartsFresh(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	r := gin.New()
	r.Use(Sessions(store, func(context.Context) string { return "English" }, logging.Nop()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetSession(c).ID) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "stale-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "stale-id", w.Body.String())
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(logging.Nop(), metrics.NewCollector("test", prometheus.NewRegistry())))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "given")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "given", w.Header().Get(RequestIDHeader))
}

func TestSetupCORSWildcard(t *testing.T) {
	r := gin.New()
	r.Use(SetupCORS(config.CORSConfig{AllowedOrigins: "*"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
