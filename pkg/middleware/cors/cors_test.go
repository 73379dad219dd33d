package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewAllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Origin", "https://admin.example.edu")

	New([]string{"https://admin.example.edu/"})(c)

	assert.Equal(t, "https://admin.example.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
	assert.NotContains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestNewPreflightShortCircuits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodOptions, "/", nil)

	New(nil)(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, c.IsAborted())
}
