package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/authgate/server/middleware"
)

func newEngine(mw gin.HandlerFunc, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(mw)
	engine.GET("/test", handler)
	engine.POST("/test", handler)
	return engine
}

func okHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	return rr
}

// ---------------------------------------------------------------------------
// Recovery
// ---------------------------------------------------------------------------

func TestRecovery_NoPanic(t *testing.T) {
	engine := newEngine(middleware.Recovery(), okHandler)
	rr := serve(engine, httptest.NewRequest("GET", "/test", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRecovery_Panic(t *testing.T) {
	engine := newEngine(middleware.Recovery(), func(*gin.Context) {
		panic("test panic")
	})
	rr := serve(engine, httptest.NewRequest("GET", "/test", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected error code: %s", body.Error.Code)
	}
}

// ---------------------------------------------------------------------------
// RequestID
// ---------------------------------------------------------------------------

func TestRequestID_GeneratesID(t *testing.T) {
	engine := newEngine(middleware.RequestID(), func(c *gin.Context) {
		if _, ok := c.Get(middleware.RequestIDKey); !ok {
			t.Error("expected request ID in context")
		}
		c.Status(http.StatusOK)
	})
	rr := serve(engine, httptest.NewRequest("GET", "/test", http.NoBody))

	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id in response headers")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	engine := newEngine(middleware.RequestID(), okHandler)
	req := httptest.NewRequest("GET", "/test", http.NoBody)
	req.Header.Set("X-Request-Id", "custom-id-123")
	rr := serve(engine, req)

	if got := rr.Header().Get("X-Request-Id"); got != "custom-id-123" {
		t.Fatalf("expected custom-id-123, got %s", got)
	}
}

// ---------------------------------------------------------------------------
// CORS
// ---------------------------------------------------------------------------

func TestGinCORS_AllowedOrigin(t *testing.T) {
	cfg := middleware.CORSConfig{
		AllowedOrigins:   []string{"https://app.example.com"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowCredentials: true,
	}
	engine := newEngine(middleware.GinCORS(cfg), okHandler)

	req := httptest.NewRequest("GET", "/test", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	rr := serve(engine, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow-origin: got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("allow-credentials: got %q", got)
	}
	if got := rr.Header().Get("Vary"); got != "Origin" {
		t.Errorf("vary: got %q", got)
	}
}

func TestGinCORS_DisallowedOrigin(t *testing.T) {
	cfg := middleware.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}
	engine := newEngine(middleware.GinCORS(cfg), okHandler)

	req := httptest.NewRequest("GET", "/test", http.NoBody)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := serve(engine, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin must not be echoed, got %q", got)
	}
}

func TestGinCORS_Preflight(t *testing.T) {
	cfg := middleware.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}
	engine := newEngine(middleware.GinCORS(cfg), okHandler)

	req := httptest.NewRequest("OPTIONS", "/test", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	rr := serve(engine, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// Body size limit
// ---------------------------------------------------------------------------

func TestGinBodySizeLimit(t *testing.T) {
	engine := newEngine(middleware.GinBodySizeLimit("1KB"), func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.Status(http.StatusOK)
	})

	small := httptest.NewRequest("POST", "/test", strings.NewReader("tiny"))
	if rr := serve(engine, small); rr.Code != http.StatusOK {
		t.Fatalf("small body: expected 200, got %d", rr.Code)
	}

	big := httptest.NewRequest("POST", "/test", strings.NewReader(strings.Repeat("x", 2048)))
	if rr := serve(engine, big); rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("big body: expected 413, got %d", rr.Code)
	}
}
