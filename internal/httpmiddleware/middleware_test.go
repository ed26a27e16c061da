package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenBucketRefill(t *testing.T) {
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	l := NewSimpleTokenBucket(2, 2)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("other clients have their own bucket")
	}
	now = now.Add(30 * time.Second)
	if !l.Allow("a") {
		t.Fatal("bucket should refill one token after 30s at 2/min")
	}
	if l.Allow("a") {
		t.Fatal("only one token refilled")
	}
}

func TestTokenBucketSweep(t *testing.T) {
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	l := NewSimpleTokenBucket(1, 1)
	l.now = func() time.Time { return now }
	l.Allow("a")
	now = now.Add(10 * time.Minute)
	l.Allow("b")
	if _, ok := l.state["a"]; ok {
		t.Fatal("idle bucket should be swept")
	}
}

func TestGinMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(NewSimpleTokenBucket(1, 1).GinMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	if first.Code != http.StatusNoContent || second.Code != http.StatusTooManyRequests {
		t.Fatalf("codes = %d, %d", first.Code, second.Code)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Fatalf("retry-after = %q", second.Header().Get("Retry-After"))
	}
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://tayoga.cz"}), SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://tayoga.cz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("missing security headers")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://tayoga.cz" {
		t.Fatalf("allow-origin = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
