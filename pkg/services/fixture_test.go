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

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/auth"
	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/masteryyh/vidtube/pkg/conn"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/media"
	"github.com/masteryyh/vidtube/pkg/models"
	"gorm.io/gorm"
)

// fakeStore keeps assets in memory. failOn makes the n-th upload fail.
type fakeStore struct {
	mu      sync.Mutex
	assets  map[string]bool
	uploads int
	failOn  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{assets: map[string]bool{}}
}

func (f *fakeStore) Upload(ctx context.Context, src *media.Source) (*media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.failOn == f.uploads {
		return nil, customerrors.ErrUploadFailed
	}
	id := fmt.Sprintf("asset-%d-%s", f.uploads, src.Name)
	f.assets[id] = true
	return &media.Asset{URL: "https://cdn.test/" + id, ID: id, Duration: 12.5}, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assets, id)
	return nil
}

func (f *fakeStore) live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.assets)
}

func (f *fakeStore) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assets[id]
}

type fixture struct {
	ctx           context.Context
	db            *gorm.DB
	store         *fakeStore
	users         *UserService
	videos        *VideoService
	comments      *CommentService
	tweets        *TweetService
	likes         *LikeService
	playlists     *PlaylistService
	subscriptions *SubscriptionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := conn.OpenMemory(ctx)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	return newFixtureOn(t, db)
}

// openSharedFile opens a sqlite file as a separate pool, so two handles on the same
// path race like two server processes.
func openSharedFile(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := conn.Open(&config.DatabaseConfig{Driver: config.DBDriverSQLite, Path: path}, false)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	ctx := context.Background()
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := newFakeStore()
	issuer := auth.NewTokenIssuer(&config.AuthConfig{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	})
	hasher := auth.NewPasswordHasher(&auth.Argon2Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})

	return &fixture{
		ctx:           ctx,
		db:            db,
		store:         store,
		users:         NewUserService(db, store, issuer, hasher),
		videos:        NewVideoService(db, store),
		comments:      NewCommentService(db),
		tweets:        NewTweetService(db),
		likes:         NewLikeService(db),
		playlists:     NewPlaylistService(db),
		subscriptions: NewSubscriptionService(db),
	}
}

func (f *fixture) register(t *testing.T, username string) *models.UserDto {
	t.Helper()
	user, err := f.users.Register(f.ctx, &models.RegisterDto{
		FullName: "User " + username,
		Email:    username + "@example.com",
		Username: username,
		Password: "password-" + username,
	}, media.FromBytes("avatar.png", []byte("png")), nil)
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	return user
}

func (f *fixture) publish(t *testing.T, ownerID uuid.UUID, title string) *models.VideoDto {
	t.Helper()
	video, err := f.videos.PublishVideo(f.ctx, ownerID, &models.PublishVideoDto{
		Title:       title,
		Description: "about " + title,
	}, media.FromBytes("clip.mp4", []byte("mp4")), media.FromBytes("thumb.jpg", []byte("jpg")))
	if err != nil {
		t.Fatalf("failed to publish %s: %v", title, err)
	}
	return video
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func expectKind(t *testing.T, err error, kind customerrors.Kind) {
	t.Helper()
	bizErr := customerrors.GetBusinessError(err)
	if bizErr == nil || bizErr.Kind != kind {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}
