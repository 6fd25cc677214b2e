package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestID_ContextValueMatchesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())

	var inContext string
	r.GET("/", func(c *gin.Context) {
		v, _ := c.Get(RequestIDKey)
		inContext, _ = v.(string)
		c.String(200, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	header := w.Header().Get("X-Request-ID")
	if header == "" || inContext == "" {
		t.Fatalf("request id missing: header=%q context=%q", header, inContext)
	}
	if header != inContext {
		t.Fatalf("header %q != context %q", header, inContext)
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(200, "ok") })

	ids := make(map[string]struct{})
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		ids[w.Header().Get("X-Request-ID")] = struct{}{}
	}
	if len(ids) != 5 {
		t.Fatalf("expected 5 unique ids, got %d", len(ids))
	}
}
