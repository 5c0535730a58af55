package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskDatabaseURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "empty", url: "", want: "(not set)"},
		{name: "short", url: "postgres://x", want: "postgres://x"},
		{name: "test database", url: "postgresql://postgres@localhost/custom_orders_test", want: "postgresql://postgre... [contains 'test']"},
		{name: "other database", url: "postgresql://postgres@prod-host/custom_orders", want: "postgresql://postgre... [WARNING: may not be test DB]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskDatabaseURL(tt.url))
		})
	}
}

func TestLoadTestConfig(t *testing.T) {
	cfg := LoadTestConfig(t)
	assert.True(t, cfg.IsTest())
	assert.Equal(t, "test.auth0.com", cfg.Auth0Domain)
	RequireTestEnvironment(t)
}

func TestNewMultipartRequest(t *testing.T) {
	req := NewMultipartRequest(t, "/upload", map[string]string{"description": "hello"}, PNG("source_image", "a.png"))
	require.NoError(t, req.ParseMultipartForm(1<<20))

	assert.Equal(t, "hello", req.FormValue("description"))
	require.Len(t, req.MultipartForm.File["source_image"], 1)
	assert.Equal(t, "image/png", req.MultipartForm.File["source_image"][0].Header.Get("Content-Type"))
}

func TestMockAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := &SwitchableAuth{}

	router := gin.New()
	router.GET("/me", auth.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Empty(t, w.Body.String())

	auth.UserID = "auth0|abc"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, "auth0|abc", w.Body.String())
}
