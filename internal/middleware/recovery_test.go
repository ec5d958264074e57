package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func panicRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) {
		panic("storage exploded")
	})
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "fine")
	})
	return r
}

// TestRecoveryJSON API请求的恐慌变成JSON诊断，不是空白500
func TestRecoveryJSON(t *testing.T) {
	r := panicRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/boom", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_PANIC")
	assert.Contains(t, w.Body.String(), "storage exploded")
	assert.Contains(t, w.Body.String(), "request_id")
}

// TestRecoveryHTML 页面请求的恐慌渲染成诊断页并带请求ID
func TestRecoveryHTML(t *testing.T) {
	r := panicRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set(HeaderRequestID, "diag-req-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "storage exploded")
	assert.Contains(t, w.Body.String(), "diag-req-1")
}

// TestRecoveryPassthrough 正常请求不受影响
func TestRecoveryPassthrough(t *testing.T) {
	r := panicRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ok", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fine", w.Body.String())
}
