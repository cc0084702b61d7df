/*
Copyright © 2026 masteryyh <yyh991013@163.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masteryyh/vidtube/pkg/auth"
	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/masteryyh/vidtube/pkg/conn"
	"github.com/masteryyh/vidtube/pkg/consts"
	"github.com/masteryyh/vidtube/pkg/media"
	"github.com/masteryyh/vidtube/pkg/middleware"
	"github.com/masteryyh/vidtube/pkg/ratelimit"
	"github.com/masteryyh/vidtube/pkg/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryStore struct {
	mu    sync.Mutex
	count int
}

func (s *memoryStore) Upload(ctx context.Context, src *media.Source) (*media.Asset, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	id := fmt.Sprintf("asset-%d", s.count)
	return &media.Asset{URL: "https://cdn.test/" + id, ID: id, Duration: 3}, nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	return nil
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := conn.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := &memoryStore{}
	issuer := auth.NewTokenIssuer(&config.AuthConfig{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	})
	hasher := auth.NewPasswordHasher(&auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	routes := NewV1Routes(&Dependencies{
		Health:        services.NewHealthService(db, nil),
		Users:         services.NewUserService(db, store, issuer, hasher),
		Videos:        services.NewVideoService(db, store),
		Comments:      services.NewCommentService(db),
		Tweets:        services.NewTweetService(db),
		Likes:         services.NewLikeService(db),
		Playlists:     services.NewPlaylistService(db),
		Subscriptions: services.NewSubscriptionService(db),
		Limiter:       ratelimit.New(&config.RateLimitConfig{Enabled: true, Requests: 100, Window: time.Minute}, nil),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})

	engine := gin.New()
	engine.ContextWithFallback = true
	engine.Use(middleware.RecoveryMiddleware(), middleware.RequestLogger())
	if err := routes.RegisterRoutes(engine.Group("/api/v1")); err != nil {
		t.Fatalf("failed to register routes: %v", err)
	}
	return engine
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, engine *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var body envelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode %s %s response %q: %v", req.Method, req.URL.Path, w.Body.String(), err)
	}
	if body.Status != w.Code {
		t.Fatalf("expected envelope status %d to equal http status %d", body.Status, w.Code)
	}
	return w, body
}

func multipartRequest(t *testing.T, method, url string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	for field, name := range files {
		part, err := writer.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		_, _ = part.Write([]byte("content of " + name))
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(method, url string, body any) *http.Request {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withToken(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

type session struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func signUp(t *testing.T, engine *gin.Engine, username string) session {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"fullName": "User " + username,
		"email":    username + "@example.com",
		"username": username,
		"password": "password-" + username,
	}, map[string]string{"avatar": "avatar.png"})
	w, _ := do(t, engine, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on register, got %d: %s", w.Code, w.Body.String())
	}

	w, body := do(t, engine, jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": username,
		"password": "password-" + username,
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d: %s", w.Code, w.Body.String())
	}
	var s session
	if err := json.Unmarshal(body.Data, &s); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	return s
}

func TestHealthcheck(t *testing.T) {
	engine := newTestEngine(t)
	w, _ := do(t, engine, httptest.NewRequest(http.MethodGet, "/api/v1/healthcheck", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	engine := newTestEngine(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"fullName": "Bad",
		"email":    "bad@example.com",
		"username": "no spaces allowed",
		"password": "password-bad",
	}, map[string]string{"avatar": "a.png"})
	w, _ := do(t, engine, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid username, got %d", w.Code)
	}

	req = multipartRequest(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"fullName": "No Avatar",
		"email":    "noavatar@example.com",
		"username": "noavatar",
		"password": "password-x",
	}, nil)
	w, body := do(t, engine, req)
	if w.Code != http.StatusBadRequest || body.Message != "avatar file is required" {
		t.Fatalf("expected missing avatar error, got %d %q", w.Code, body.Message)
	}

	signUp(t, engine, "taken")
	req = multipartRequest(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"fullName": "Again",
		"email":    "taken@example.com",
		"username": "another",
		"password": "password-x",
	}, map[string]string{"avatar": "a.png"})
	w, _ = do(t, engine, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", w.Code)
	}
}

func TestAuthCookiesAndRefresh(t *testing.T) {
	engine := newTestEngine(t)
	signUp(t, engine, "cookie")

	w, _ := do(t, engine, jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    "cookie@example.com",
		"password": "password-cookie",
	}))
	cookies := w.Result().Cookies()
	var access, refresh *http.Cookie
	for _, c := range cookies {
		switch c.Name {
		case consts.AccessTokenCookie:
			access = c
		case consts.RefreshTokenCookie:
			refresh = c
		}
	}
	if access == nil || refresh == nil || !access.HttpOnly {
		t.Fatalf("expected http-only token cookies, got %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.AddCookie(access)
	w, body := do(t, engine, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with cookie, got %d", w.Code)
	}
	if bytes.Contains(body.Data, []byte("password")) || bytes.Contains(body.Data, []byte("refresh")) {
		t.Fatalf("credential fields leaked: %s", body.Data)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(refresh)
	w, _ = do(t, engine, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on refresh, got %d", w.Code)
	}

	w, _ = do(t, engine, jsonRequest(http.MethodPost, "/api/v1/users/refresh-token", map[string]string{"refreshToken": refresh.Value}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected rotated token to be rejected, got %d", w.Code)
	}

	w, _ = do(t, engine, httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestVideoEndpoints(t *testing.T) {
	engine := newTestEngine(t)
	owner := signUp(t, engine, "owner")
	other := signUp(t, engine, "other")

	req := withToken(multipartRequest(t, http.MethodPost, "/api/v1/videos", map[string]string{
		"title":       "First",
		"description": "a video",
	}, map[string]string{"videoFile": "v.mp4", "thumbnail": "t.jpg"}), owner.AccessToken)
	w, body := do(t, engine, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on publish, got %d: %s", w.Code, w.Body.String())
	}
	var video struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body.Data, &video); err != nil {
		t.Fatalf("failed to decode video: %v", err)
	}

	w, _ = do(t, engine, withToken(httptest.NewRequest(http.MethodGet, "/api/v1/videos/not-a-uuid", nil), owner.AccessToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}

	update := map[string]string{"title": "Hijacked", "description": "x"}
	w, _ = do(t, engine, withToken(jsonRequest(http.MethodPatch, "/api/v1/videos/"+video.ID, update), other.AccessToken))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign video, got %d", w.Code)
	}

	w, _ = do(t, engine, withToken(httptest.NewRequest(http.MethodGet, "/api/v1/videos?query=first&limit=500", nil), other.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d", w.Code)
	}
	var page struct {
		Limit      int   `json:"limit"`
		TotalCount int64 `json:"totalCount"`
	}
	_, body = do(t, engine, withToken(httptest.NewRequest(http.MethodGet, "/api/v1/videos?query=first&limit=500", nil), other.AccessToken))
	if err := json.Unmarshal(body.Data, &page); err != nil {
		t.Fatalf("failed to decode page: %v", err)
	}
	if page.Limit != 50 || page.TotalCount != 1 {
		t.Fatalf("expected clamped limit and one match, got %+v", page)
	}

	w, body = do(t, engine, withToken(httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/v/"+video.ID, nil), other.AccessToken))
	if w.Code != http.StatusOK || !bytes.Contains(body.Data, []byte(`"liked":true`)) {
		t.Fatalf("expected like to switch on, got %d %s", w.Code, body.Data)
	}

	w, _ = do(t, engine, withToken(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/c/"+owner.User.ID, nil), owner.AccessToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self subscription, got %d", w.Code)
	}

	w, _ = do(t, engine, withToken(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+video.ID, nil), owner.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", w.Code)
	}
	w, _ = do(t, engine, withToken(httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+video.ID, nil), owner.AccessToken))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestPlaylistEndpoints(t *testing.T) {
	engine := newTestEngine(t)
	owner := signUp(t, engine, "lister")

	w, body := do(t, engine, withToken(jsonRequest(http.MethodPost, "/api/v1/playlists", map[string]string{"name": "mix"}), owner.AccessToken))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var playlist struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body.Data, &playlist)

	w, _ = do(t, engine, withToken(httptest.NewRequest(http.MethodPatch, "/api/v1/playlists/remove/00000000-0000-7000-8000-000000000001/"+playlist.ID, nil), owner.AccessToken))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing membership, got %d", w.Code)
	}

	w, _ = do(t, engine, withToken(httptest.NewRequest(http.MethodGet, "/api/v1/playlists/user/"+owner.User.ID, nil), owner.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on listing, got %d", w.Code)
	}
}
