package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/rate-changes", strings.NewReader(`{"sales_code":" SA001 "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("sales_code")(c)
	if key != "sa001|1.2.3.4" {
		t.Fatalf("key want sa001|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "SA001") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestDecide(t *testing.T) {
	rule := RateLimitRule{WindowSeconds: 60, MaxRequests: 2}
	cases := []struct {
		name       string
		count      int64
		ttl        int64
		limited    bool
		remaining  int64
		retryAfter int
	}{
		{name: "first", count: 1, ttl: 60, remaining: 1},
		{name: "at limit", count: 2, ttl: 30, remaining: 0},
		{name: "over limit", count: 3, ttl: 25, limited: true, retryAfter: 25},
		{name: "expired ttl falls back to window", count: 5, ttl: -1, limited: true, retryAfter: 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := decide(rule, tc.count, tc.ttl)
			if got.Limited != tc.limited || got.Remaining != tc.remaining || got.RetryAfter != tc.retryAfter {
				t.Fatalf("decision want limited=%v remaining=%d retry=%d got %+v", tc.limited, tc.remaining, tc.retryAfter, got)
			}
		})
	}
}

func TestKeyByIPAndJSONFieldFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"sales_code":42}`))
	c.Request.RemoteAddr = "5.6.7.8:1234"

	if key := KeyByIPAndJSONField("sales_code")(c); key != "5.6.7.8" {
		t.Fatalf("non-string field should fall back to ip, got %s", key)
	}
}
