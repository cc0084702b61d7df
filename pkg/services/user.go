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
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/auth"
	"github.com/masteryyh/vidtube/pkg/conn"
	"github.com/masteryyh/vidtube/pkg/consts"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/media"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/query"
	"github.com/masteryyh/vidtube/pkg/utils/pagination"
	"gorm.io/gorm"
)

type UserService struct {
	db     *gorm.DB
	store  media.Store
	tokens *auth.TokenIssuer
	hasher *auth.PasswordHasher
}

var (
	userService *UserService
	userOnce    sync.Once
)

func NewUserService(db *gorm.DB, store media.Store, tokens *auth.TokenIssuer, hasher *auth.PasswordHasher) *UserService {
	return &UserService{
		db:     db,
		store:  store,
		tokens: tokens,
		hasher: hasher,
	}
}

func GetUserService() *UserService {
	userOnce.Do(func() {
		userService = NewUserService(conn.GetDB(), media.GetStore(), auth.GetTokenIssuer(), auth.NewPasswordHasher(nil))
	})
	return userService
}

// Register creates an account. Avatar and cover are uploaded before the user row
// is written and removed again if anything after the uploads fails.
func (s *UserService) Register(ctx context.Context, dto *models.RegisterDto, avatar, cover *media.Source) (*models.UserDto, error) {
	fullName := strings.TrimSpace(dto.FullName)
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	username := strings.ToLower(strings.TrimSpace(dto.Username))
	if fullName == "" || email == "" || username == "" || dto.Password == "" {
		return nil, customerrors.InvalidInput("all fields are required")
	}
	if avatar == nil {
		return nil, customerrors.ErrAvatarRequired
	}

	taken, err := gorm.G[models.User](s.db).
		Where("username = ? OR email = ?", username, email).
		Count(ctx, "id")
	if err != nil {
		slog.ErrorContext(ctx, "failed to check user existence", "error", err)
		return nil, customerrors.FromStore(err)
	}
	if taken > 0 {
		return nil, customerrors.ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, err
	}

	batch := media.NewBatch(s.store)
	avatarAsset, err := batch.Upload(ctx, avatar)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Avatar:        avatarAsset.URL,
		AvatarAssetID: avatarAsset.ID,
		PasswordHash:  hash,
	}
	if cover != nil {
		coverAsset, err := batch.Upload(ctx, cover)
		if err != nil {
			batch.Rollback(ctx)
			return nil, err
		}
		user.CoverImage = coverAsset.URL
		user.CoverImageAssetID = coverAsset.ID
	}

	if err := gorm.G[models.User](s.db).Create(ctx, user); err != nil {
		batch.Rollback(ctx)
		if customerrors.IsDuplicate(err) {
			return nil, customerrors.ErrUserAlreadyExists
		}
		slog.ErrorContext(ctx, "failed to create user", "error", err)
		return nil, customerrors.FromStore(err)
	}

	created, err := s.findUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return created.ToDto(), nil
}

// Login accepts either email or username. Unknown users and wrong passwords fail
// the same way.
func (s *UserService) Login(ctx context.Context, dto *models.LoginDto) (*models.AuthDto, error) {
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	username := strings.ToLower(strings.TrimSpace(dto.Username))
	if email == "" && username == "" {
		return nil, customerrors.InvalidInput("username or email is required")
	}

	lookup := query.Eq("username", username)
	if email != "" {
		lookup = query.Eq("email", email)
	}
	user, err := gorm.G[models.User](s.db).Where(lookup.SQL, lookup.Args...).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrInvalidCredentials
		}
		slog.ErrorContext(ctx, "failed to find user", "error", err)
		return nil, customerrors.FromStore(err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, dto.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify password", "error", err, "userId", user.ID)
		return nil, err
	}
	if !ok {
		return nil, customerrors.ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, &user)
	if err != nil {
		return nil, err
	}
	if _, err := gorm.G[models.User](s.db).
		Where("id = ?", user.ID).
		Update(ctx, "refresh_token_hash", pair.RefreshHash); err != nil {
		slog.ErrorContext(ctx, "failed to store refresh token", "error", err, "userId", user.ID)
		return nil, customerrors.FromStore(err)
	}

	return &models.AuthDto{
		User:         user.ToDto(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout revokes the stored refresh token. Access tokens stay valid until they expire.
func (s *UserService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token_hash", gorm.Expr("NULL")).Error; err != nil {
		slog.ErrorContext(ctx, "failed to revoke refresh token", "error", err, "userId", userID)
		return customerrors.FromStore(err)
	}
	return nil
}

// RefreshTokens rotates the token pair. The stored hash is swapped conditionally so
// that of two concurrent refreshes with the same token only one succeeds.
func (s *UserService) RefreshTokens(ctx context.Context, refreshToken string) (*models.AuthDto, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := gorm.G[models.User](s.db).Where("id = ?", userID).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrInvalidToken
		}
		slog.ErrorContext(ctx, "failed to find user", "error", err, "userId", userID)
		return nil, customerrors.FromStore(err)
	}
	if !auth.MatchesHash(refreshToken, user.RefreshTokenHash) {
		return nil, customerrors.ErrInvalidToken
	}

	pair, err := s.issue(ctx, &user)
	if err != nil {
		return nil, err
	}
	rotated, err := gorm.G[models.User](s.db).
		Where("id = ? AND refresh_token_hash = ?", user.ID, *user.RefreshTokenHash).
		Update(ctx, "refresh_token_hash", pair.RefreshHash)
	if err != nil {
		slog.ErrorContext(ctx, "failed to rotate refresh token", "error", err, "userId", user.ID)
		return nil, customerrors.FromStore(err)
	}
	if rotated == 0 {
		return nil, customerrors.ErrInvalidToken
	}

	return &models.AuthDto{
		User:         user.ToDto(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Authenticate resolves an access token to its user.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	userID, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		if errors.Is(err, customerrors.ErrUserNotFound) {
			return nil, customerrors.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, dto *models.ChangePasswordDto) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(user.PasswordHash, dto.OldPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify password", "error", err, "userId", userID)
		return err
	}
	if !ok {
		return customerrors.ErrOldPasswordIncorrect
	}

	hash, err := s.hasher.Hash(dto.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return err
	}
	if _, err := gorm.G[models.User](s.db).
		Where("id = ?", userID).
		Update(ctx, "password_hash", hash); err != nil {
		slog.ErrorContext(ctx, "failed to update password", "error", err, "userId", userID)
		return customerrors.FromStore(err)
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*models.UserDto, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.ToDto(), nil
}

func (s *UserService) UpdateAccount(ctx context.Context, userID uuid.UUID, dto *models.UpdateAccountDto) (*models.UserDto, error) {
	fullName := strings.TrimSpace(dto.FullName)
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if fullName == "" || email == "" {
		return nil, customerrors.InvalidInput("full name and email are required")
	}

	taken, err := gorm.G[models.User](s.db).
		Where("email = ? AND id <> ?", email, userID).
		Count(ctx, "id")
	if err != nil {
		slog.ErrorContext(ctx, "failed to check email usage", "error", err)
		return nil, customerrors.FromStore(err)
	}
	if taken > 0 {
		return nil, customerrors.ErrUserAlreadyExists
	}

	if _, err := gorm.G[models.User](s.db).
		Where("id = ?", userID).
		Updates(ctx, models.User{FullName: fullName, Email: email}); err != nil {
		if customerrors.IsDuplicate(err) {
			return nil, customerrors.ErrUserAlreadyExists
		}
		slog.ErrorContext(ctx, "failed to update account", "error", err, "userId", userID)
		return nil, customerrors.FromStore(err)
	}
	return s.GetUser(ctx, userID)
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, src *media.Source) (*models.UserDto, error) {
	if src == nil {
		return nil, customerrors.ErrAvatarRequired
	}
	return s.replaceImage(ctx, userID, src, "avatar", "avatar_asset_id", func(u *models.User) string {
		return u.AvatarAssetID
	})
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, src *media.Source) (*models.UserDto, error) {
	if src == nil {
		return nil, customerrors.ErrCoverRequired
	}
	return s.replaceImage(ctx, userID, src, "cover_image", "cover_image_asset_id", func(u *models.User) string {
		return u.CoverImageAssetID
	})
}

// replaceImage uploads the new image first and only drops the previous asset once
// the user row points at the new one.
func (s *UserService) replaceImage(ctx context.Context, userID uuid.UUID, src *media.Source, urlColumn, idColumn string, previous func(*models.User) string) (*models.UserDto, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	asset, err := s.store.Upload(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{urlColumn: asset.URL, idColumn: asset.ID}).Error; err != nil {
		media.DeleteQuietly(ctx, s.store, asset.ID)
		slog.ErrorContext(ctx, "failed to update user image", "error", err, "userId", userID, "column", urlColumn)
		return nil, customerrors.FromStore(err)
	}
	media.DeleteQuietly(ctx, s.store, previous(user))

	return s.GetUser(ctx, userID)
}

// GetChannelProfile returns a channel with its subscription counters and whether
// the viewer is subscribed to it.
func (s *UserService) GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*models.ChannelProfileDto, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, customerrors.InvalidInput("username is required")
	}

	p := query.From("users").
		Project("users.id", "users.username", "users.email", "users.full_name", "users.avatar", "users.cover_image").
		Compute("(SELECT COUNT(*) FROM subscriptions WHERE subscriptions.channel_id = users.id) AS subscribers_count").
		Compute("(SELECT COUNT(*) FROM subscriptions WHERE subscriptions.subscriber_id = users.id) AS channels_subscribed_to_count").
		Compute("EXISTS (SELECT 1 FROM subscriptions WHERE subscriptions.channel_id = users.id AND subscriptions.subscriber_id = ?) AS is_subscribed", viewerID).
		Match(query.Eq("users.username", username))

	row, found, err := query.First[models.ChannelProfileRow](ctx, s.db, p)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load channel profile", "error", err, "username", username)
		return nil, err
	}
	if !found {
		return nil, customerrors.ErrChannelNotFound
	}
	return row.ToDto(), nil
}

// GetWatchHistory lists the videos the user opened, most recent first. Videos
// deleted since, or unpublished by someone else, drop out.
func (s *UserService) GetWatchHistory(ctx context.Context, userID uuid.UUID, rawPage, rawLimit string) (*pagination.PagedResponse[*models.WatchHistoryDto], error) {
	page := pagination.Resolve(rawPage, rawLimit, consts.DefaultWatchHistoryLimit, pagination.MaxLimit)

	p := videoRows(query.From("watch_histories").
		Join("JOIN videos ON videos.id = watch_histories.video_id")).
		Project("watch_histories.watched_at").
		Match(
			query.Eq("watch_histories.user_id", userID),
			visibleTo(userID),
		).
		Sort(
			query.Sort{Column: "watch_histories.watched_at", Order: pagination.OrderTypeDescending},
			query.Sort{Column: "watch_histories.id", Order: pagination.OrderTypeDescending},
		)

	rows, err := query.Paginate[models.WatchHistoryRow](ctx, s.db, p, page)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list watch history", "error", err, "userId", userID)
		return nil, err
	}
	return pagination.MapItems(rows, func(r models.WatchHistoryRow) *models.WatchHistoryDto {
		return r.ToDto()
	}), nil
}

func (s *UserService) findUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := gorm.G[models.User](s.db).Where("id = ?", userID).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrUserNotFound
		}
		slog.ErrorContext(ctx, "failed to find user", "error", err, "userId", userID)
		return nil, customerrors.FromStore(err)
	}
	return &user, nil
}

func (s *UserService) issue(ctx context.Context, user *models.User) (*auth.TokenPair, error) {
	pair, err := s.tokens.Issue(auth.Subject{ID: user.ID, Username: user.Username, Email: user.Email})
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue tokens", "error", err, "userId", user.ID)
		return nil, err
	}
	return pair, nil
}
