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
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/conn"
	"github.com/masteryyh/vidtube/pkg/consts"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/query"
	"github.com/masteryyh/vidtube/pkg/utils/pagination"
	"gorm.io/gorm"
)

type PlaylistService struct {
	db *gorm.DB
}

var (
	playlistService *PlaylistService
	playlistOnce    sync.Once
)

func NewPlaylistService(db *gorm.DB) *PlaylistService {
	return &PlaylistService{db: db}
}

func GetPlaylistService() *PlaylistService {
	playlistOnce.Do(func() {
		playlistService = NewPlaylistService(conn.GetDB())
	})
	return playlistService
}

// playlistRows counts only the entries viewerID would see when opening the playlist.
func playlistRows(viewerID uuid.UUID) query.Pipeline {
	visible := visibleTo(viewerID)
	return query.From("playlists").
		Project("playlists.id", "playlists.name", "playlists.description", "playlists.created_at", "playlists.updated_at").
		WithOwner("playlists.owner_id").
		Compute("(SELECT COUNT(*) FROM playlist_videos JOIN videos ON videos.id = playlist_videos.video_id"+
			" WHERE playlist_videos.playlist_id = playlists.id AND videos.deleted_at IS NULL AND ("+visible.SQL+")) AS video_count", visible.Args...).
		Match(query.Where("playlists.deleted_at IS NULL"))
}

func (s *PlaylistService) CreatePlaylist(ctx context.Context, userID uuid.UUID, dto *models.CreatePlaylistDto) (*models.PlaylistDto, error) {
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, customerrors.InvalidInput("playlist name is required")
	}

	playlist := &models.Playlist{
		OwnerID:     userID,
		Name:        name,
		Description: strings.TrimSpace(dto.Description),
	}
	if err := gorm.G[models.Playlist](s.db).Create(ctx, playlist); err != nil {
		slog.ErrorContext(ctx, "failed to create playlist", "error", err, "userId", userID)
		return nil, customerrors.FromStore(err)
	}
	return s.getPlaylist(ctx, playlist.ID, userID)
}

func (s *PlaylistService) ListUserPlaylists(ctx context.Context, ownerID, viewerID uuid.UUID, rawPage, rawLimit string) (*pagination.PagedResponse[*models.PlaylistDto], error) {
	page := pagination.Resolve(rawPage, rawLimit, consts.DefaultPlaylistLimit, pagination.MaxLimit)
	if err := requireUser(ctx, s.db, ownerID, customerrors.ErrUserNotFound); err != nil {
		return nil, err
	}

	p := playlistRows(viewerID).
		Match(query.Eq("playlists.owner_id", ownerID)).
		Sort(
			query.Sort{Column: "playlists.updated_at", Order: pagination.OrderTypeDescending},
			query.Sort{Column: "playlists.id", Order: pagination.OrderTypeDescending},
		)
	rows, err := query.Paginate[models.PlaylistRow](ctx, s.db, p, page)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list playlists", "error", err, "userId", ownerID)
		return nil, err
	}
	return pagination.MapItems(rows, func(r models.PlaylistRow) *models.PlaylistDto {
		return r.ToDto()
	}), nil
}

// GetPlaylist returns a playlist with one page of its videos in insertion order.
// Drafts of other users are skipped.
func (s *PlaylistService) GetPlaylist(ctx context.Context, playlistID, viewerID uuid.UUID, rawPage, rawLimit string) (*models.PlaylistDetailDto, error) {
	playlist, err := s.getPlaylist(ctx, playlistID, viewerID)
	if err != nil {
		return nil, err
	}

	page := pagination.Resolve(rawPage, rawLimit, consts.DefaultVideoLimit, pagination.MaxLimit)
	p := videoRows(query.From("playlist_videos").
		Join("JOIN videos ON videos.id = playlist_videos.video_id")).
		Match(
			query.Eq("playlist_videos.playlist_id", playlistID),
			visibleTo(viewerID),
		).
		Sort(
			query.Sort{Column: "playlist_videos.created_at", Order: pagination.OrderTypeAscending},
			query.Sort{Column: "playlist_videos.id", Order: pagination.OrderTypeAscending},
		)
	rows, err := query.Paginate[models.VideoRow](ctx, s.db, p, page)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list playlist videos", "error", err, "playlistId", playlistID)
		return nil, err
	}

	return &models.PlaylistDetailDto{
		PlaylistDto: playlist,
		Videos: pagination.MapItems(rows, func(r models.VideoRow) *models.VideoDto {
			return r.ToDto()
		}),
	}, nil
}

func (s *PlaylistService) UpdatePlaylist(ctx context.Context, userID, playlistID uuid.UUID, dto *models.UpdatePlaylistDto) (*models.PlaylistDto, error) {
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, customerrors.InvalidInput("playlist name is required")
	}
	if _, err := s.findOwnedPlaylist(ctx, userID, playlistID); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Playlist{}).
		Where("id = ?", playlistID).
		Updates(map[string]any{"name": name, "description": strings.TrimSpace(dto.Description)}).Error; err != nil {
		slog.ErrorContext(ctx, "failed to update playlist", "error", err, "playlistId", playlistID)
		return nil, customerrors.FromStore(err)
	}
	return s.getPlaylist(ctx, playlistID, userID)
}

func (s *PlaylistService) DeletePlaylist(ctx context.Context, userID, playlistID uuid.UUID) error {
	if _, err := s.findOwnedPlaylist(ctx, userID, playlistID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := softDelete[models.Playlist](ctx, tx, playlistID); err != nil {
			return err
		}
		return tx.Where("playlist_id = ?", playlistID).Delete(&models.PlaylistVideo{}).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete playlist", "error", err, "playlistId", playlistID)
		return customerrors.FromStore(err)
	}
	return nil
}

// AddVideo appends a video to a playlist. Any video the user can see may be added,
// not only their own.
func (s *PlaylistService) AddVideo(ctx context.Context, userID, playlistID, videoID uuid.UUID) (*models.PlaylistDto, error) {
	if _, err := s.findOwnedPlaylist(ctx, userID, playlistID); err != nil {
		return nil, err
	}
	if _, err := findVisibleVideo(ctx, s.db, videoID, userID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := gorm.G[models.PlaylistVideo](tx).Create(ctx, &models.PlaylistVideo{PlaylistID: playlistID, VideoID: videoID}); err != nil {
			return err
		}
		return s.touch(ctx, tx, playlistID)
	})
	if err != nil {
		if customerrors.IsDuplicate(err) {
			return nil, customerrors.ErrVideoAlreadyInList
		}
		slog.ErrorContext(ctx, "failed to add video to playlist", "error", err, "playlistId", playlistID, "videoId", videoID)
		return nil, customerrors.FromStore(err)
	}
	return s.getPlaylist(ctx, playlistID, userID)
}

func (s *PlaylistService) RemoveVideo(ctx context.Context, userID, playlistID, videoID uuid.UUID) (*models.PlaylistDto, error) {
	if _, err := s.findOwnedPlaylist(ctx, userID, playlistID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := gorm.G[models.PlaylistVideo](tx).
			Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
			Delete(ctx)
		if err != nil {
			return err
		}
		if removed == 0 {
			return customerrors.ErrVideoNotInList
		}
		return s.touch(ctx, tx, playlistID)
	})
	if err != nil {
		if customerrors.GetBusinessError(err) == nil {
			slog.ErrorContext(ctx, "failed to remove video from playlist", "error", err, "playlistId", playlistID, "videoId", videoID)
		}
		return nil, customerrors.FromStore(err)
	}
	return s.getPlaylist(ctx, playlistID, userID)
}

func (s *PlaylistService) touch(ctx context.Context, tx *gorm.DB, playlistID uuid.UUID) error {
	_, err := gorm.G[models.Playlist](tx).Where("id = ?", playlistID).Update(ctx, "updated_at", time.Now())
	return err
}

func (s *PlaylistService) findOwnedPlaylist(ctx context.Context, userID, playlistID uuid.UUID) (*models.Playlist, error) {
	return findOwned[models.Playlist](ctx, s.db, playlistID, userID, customerrors.ErrPlaylistNotFound, customerrors.ErrNotPlaylistOwner)
}

func (s *PlaylistService) getPlaylist(ctx context.Context, playlistID, viewerID uuid.UUID) (*models.PlaylistDto, error) {
	row, found, err := query.First[models.PlaylistRow](ctx, s.db, playlistRows(viewerID).Match(query.Eq("playlists.id", playlistID)))
	if err != nil {
		slog.ErrorContext(ctx, "failed to find playlist", "error", err, "playlistId", playlistID)
		return nil, err
	}
	if !found {
		return nil, customerrors.ErrPlaylistNotFound
	}
	return row.ToDto(), nil
}
