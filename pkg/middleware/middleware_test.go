package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/consts"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator struct {
	user  *models.User
	token string
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token != s.token {
		return nil, customerrors.ErrInvalidToken
	}
	return s.user, nil
}

func newAuthEngine(user *models.User) *gin.Engine {
	engine := gin.New()
	engine.Use(RecoveryMiddleware(), AuthMiddleware(&stubAuthenticator{user: user, token: "good"}))
	engine.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c).String())
	})
	return engine
}

func TestAuthMiddleware(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "ada"}
	engine := newAuthEngine(user)

	cases := []struct {
		name   string
		cookie string
		header string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "bad bearer", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "bearer", header: "Bearer good", status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusOK},
		{name: "cookie", cookie: "good", status: http.StatusOK},
		{name: "cookie wins", cookie: "good", header: "Bearer nope", status: http.StatusOK},
		{name: "basic scheme", header: "Basic good", status: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: consts.AccessTokenCookie, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if tc.status == http.StatusOK && w.Body.String() != user.ID.String() {
				t.Fatalf("expected user id in body, got %s", w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareStripsCredentials(t *testing.T) {
	refresh := "refresh-hash"
	user := &models.User{ID: uuid.New(), Username: "ada", PasswordHash: "argon-hash", RefreshTokenHash: &refresh}

	var seen *models.User
	engine := gin.New()
	engine.Use(AuthMiddleware(&stubAuthenticator{user: user, token: "good"}))
	engine.GET("/me", func(c *gin.Context) {
		seen = CurrentUser(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if seen == nil || seen.ID != user.ID || seen.Username != "ada" {
		t.Fatalf("expected the identity on the context, got %+v", seen)
	}
	if seen.PasswordHash != "" || seen.RefreshTokenHash != nil {
		t.Fatalf("expected credentials to be cleared, got %q %v", seen.PasswordHash, seen.RefreshTokenHash)
	}
	if user.PasswordHash != "argon-hash" {
		t.Fatal("expected the authenticator's user to be left untouched")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RecoveryMiddleware())
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRequestLoggerSetsID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestLogger())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(consts.RequestIDKey))
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(consts.RequestIDHeader)
	if generated == "" || generated != w.Body.String() {
		t.Fatalf("expected generated request id, got header %q body %q", generated, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(consts.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Header().Get(consts.RequestIDHeader) != "abc-123" {
		t.Fatalf("expected client request id to be kept, got %q", w.Header().Get(consts.RequestIDHeader))
	}
}

func TestCORSMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(CORSMiddleware([]string{"https://app.example.com"}))
	engine.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("expected origin to be echoed, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected no allow origin for unknown origin, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, context.DeadlineExceeded
}

func TestRateLimitMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimitMiddleware(ratelimit.NewMemoryLimiter(2, time.Minute)))
	engine.POST("/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := range 2 {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	failOpen := gin.New()
	failOpen.Use(RateLimitMiddleware(failingLimiter{}))
	failOpen.POST("/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w = httptest.NewRecorder()
	failOpen.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected limiter failure to let the request through, got %d", w.Code)
	}
}
