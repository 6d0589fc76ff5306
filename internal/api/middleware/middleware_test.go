package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"minishop/internal/pkg/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()
}

func signToken(t *testing.T, claims customClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	r := gin.New()
	r.GET("/p", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"EC": 0})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddleware_SetsIdentity(t *testing.T) {
	token := signToken(t, customClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "an@example.com",
		Name:  "An",
		Role:  "Admin",
	})

	var gotUserID *uint
	var gotRole any
	r := gin.New()
	r.GET("/p", AuthMiddleware(testSecret), func(c *gin.Context) {
		gotUserID = UserID(c)
		gotRole, _ = c.Get("role")
		c.JSON(http.StatusOK, gin.H{"EC": 0})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotUserID == nil || *gotUserID != 42 {
		t.Fatalf("expected userID 42, got %v", gotUserID)
	}
	if gotRole != "admin" {
		t.Fatalf("expected normalized role admin, got %v", gotRole)
	}
}

func TestAuthMiddleware_RejectsExpiredToken(t *testing.T) {
	token := signToken(t, customClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	r := gin.New()
	r.GET("/p", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"EC": 0})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestOptionalAuthMiddleware_AnonymousPassesThrough(t *testing.T) {
	var gotUserID *uint
	r := gin.New()
	r.GET("/p", OptionalAuthMiddleware(testSecret), func(c *gin.Context) {
		gotUserID = UserID(c)
		c.JSON(http.StatusOK, gin.H{"EC": 0})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotUserID != nil {
		t.Fatalf("expected anonymous, got userID %v", *gotUserID)
	}
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/p", func(c *gin.Context) { c.Set("role", "user") }, RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"EC": 0})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestSessionID_HeaderBeatsQueryBeatsCookie(t *testing.T) {
	r := gin.New()
	var got string
	r.GET("/p", func(c *gin.Context) {
		got = SessionID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/p?sessionId=from-query", nil)
	req.Header.Set("x-session-id", "from-header")
	req.AddCookie(&http.Cookie{Name: "sessionId", Value: "from-cookie"})
	r.ServeHTTP(httptest.NewRecorder(), req)
	if got != "from-header" {
		t.Fatalf("expected header to win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/p?sessionId=from-query", nil)
	req.AddCookie(&http.Cookie{Name: "sessionId", Value: "from-cookie"})
	r.ServeHTTP(httptest.NewRecorder(), req)
	if got != "from-query" {
		t.Fatalf("expected query to win over cookie, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.AddCookie(&http.Cookie{Name: "sessionId", Value: "from-cookie"})
	r.ServeHTTP(httptest.NewRecorder(), req)
	if got != "from-cookie" {
		t.Fatalf("expected cookie fallback, got %q", got)
	}
}

func TestSessionActivityMiddleware_MarksAnonymousSessions(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := gin.New()
	r.GET("/p", SessionActivityMiddleware(rdb, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("x-session-id", "sess-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if !mr.Exists(sessionActiveKeyPrefix + "sess-1") {
		t.Fatal("expected session activity key in redis")
	}
}

func TestSessionActivityMiddleware_SkipsAuthenticated(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := gin.New()
	r.GET("/p", func(c *gin.Context) { c.Set("userID", uint(1)) }, SessionActivityMiddleware(rdb, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("x-session-id", "sess-2")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if mr.Exists(sessionActiveKeyPrefix + "sess-2") {
		t.Fatal("authenticated request should not mark session activity")
	}
}

func TestRequestLogger_EmitsAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/products/1", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/products/1", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{"request completed", "method=GET", "path=/products/1", "status=200"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected log to contain %q, got %q", want, line)
		}
	}
}
