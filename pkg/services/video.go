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
	"github.com/masteryyh/vidtube/pkg/media"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/query"
	"github.com/masteryyh/vidtube/pkg/utils/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var videoColumns = []string{
	"videos.id",
	"videos.title",
	"videos.description",
	"videos.video_file",
	"videos.thumbnail",
	"videos.duration",
	"videos.views",
	"videos.is_published",
	"videos.created_at",
	"videos.updated_at",
}

// videoSortFields maps the accepted sortBy values onto columns.
var videoSortFields = map[string]string{
	"createdAt": "videos.created_at",
	"updatedAt": "videos.updated_at",
	"views":     "videos.views",
	"duration":  "videos.duration",
	"title":     "videos.title",
}

// videoRows extends a pipeline that already reaches the videos table with the
// projection scanned into models.VideoRow.
func videoRows(p query.Pipeline) query.Pipeline {
	return p.
		Project(videoColumns...).
		WithOwner("videos.owner_id").
		Compute("(SELECT COUNT(*) FROM likes WHERE likes.video_id = videos.id) AS likes_count").
		Match(query.Where("videos.deleted_at IS NULL"))
}

// visibleTo keeps published videos plus the viewer's own drafts.
func visibleTo(viewerID uuid.UUID) query.Cond {
	return query.Where("videos.is_published = ? OR videos.owner_id = ?", true, viewerID)
}

type VideoService struct {
	db    *gorm.DB
	store media.Store
}

var (
	videoService *VideoService
	videoOnce    sync.Once
)

func NewVideoService(db *gorm.DB, store media.Store) *VideoService {
	return &VideoService{
		db:    db,
		store: store,
	}
}

func GetVideoService() *VideoService {
	videoOnce.Do(func() {
		videoService = NewVideoService(conn.GetDB(), media.GetStore())
	})
	return videoService
}

// ListVideos searches title and description, optionally restricted to one owner.
// Drafts only show up when owners list their own videos.
func (s *VideoService) ListVideos(ctx context.Context, q *models.VideoListQuery, viewerID uuid.UUID) (*pagination.PagedResponse[*models.VideoDto], error) {
	page := pagination.Resolve(q.Page, q.Limit, consts.DefaultVideoLimit, pagination.MaxLimit)
	ownerID, err := query.ParseOptionalID(q.UserID, "userId")
	if err != nil {
		return nil, err
	}

	filter := query.Filter{
		Search:       q.Query,
		SearchFields: []string{"videos.title", "videos.description"},
	}
	if ownerID != nil {
		filter.Equals = append(filter.Equals, query.Eq("videos.owner_id", *ownerID))
	}
	if ownerID == nil || *ownerID != viewerID {
		filter.Equals = append(filter.Equals, query.Eq("videos.is_published", true))
	}

	sort := query.ResolveSort(q.SortBy, q.SortType, videoSortFields, "createdAt")
	p := videoRows(query.From("videos")).
		Match(filter.Conds()...).
		Sort(sort, query.Sort{Column: "videos.id", Order: sort.Order})

	rows, err := query.Paginate[models.VideoRow](ctx, s.db, p, page)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list videos", "error", err)
		return nil, err
	}
	return pagination.MapItems(rows, func(r models.VideoRow) *models.VideoDto {
		return r.ToDto()
	}), nil
}

// PublishVideo uploads the video and its thumbnail, then stores the record. Both
// assets are removed again when a later step fails.
func (s *VideoService) PublishVideo(ctx context.Context, userID uuid.UUID, dto *models.PublishVideoDto, videoFile, thumbnail *media.Source) (*models.VideoDto, error) {
	title := strings.TrimSpace(dto.Title)
	description := strings.TrimSpace(dto.Description)
	if title == "" || description == "" {
		return nil, customerrors.InvalidInput("title and description are required")
	}
	if videoFile == nil {
		return nil, customerrors.ErrVideoFileRequired
	}
	if thumbnail == nil {
		return nil, customerrors.ErrThumbnailRequired
	}

	batch := media.NewBatch(s.store)
	videoAsset, err := batch.Upload(ctx, videoFile)
	if err != nil {
		return nil, err
	}
	thumbnailAsset, err := batch.Upload(ctx, thumbnail)
	if err != nil {
		batch.Rollback(ctx)
		return nil, err
	}

	video := &models.Video{
		OwnerID:          userID,
		Title:            title,
		Description:      description,
		VideoFile:        videoAsset.URL,
		VideoAssetID:     videoAsset.ID,
		Thumbnail:        thumbnailAsset.URL,
		ThumbnailAssetID: thumbnailAsset.ID,
		Duration:         videoAsset.Duration,
		IsPublished:      true,
	}
	if err := gorm.G[models.Video](s.db).Create(ctx, video); err != nil {
		batch.Rollback(ctx)
		slog.ErrorContext(ctx, "failed to create video", "error", err, "userId", userID)
		return nil, customerrors.FromStore(err)
	}
	return video.ToDto(), nil
}

// GetVideo returns a video with its owner. Drafts are only visible to their owner.
// Opening a video counts a view and records it in the viewer's watch history.
func (s *VideoService) GetVideo(ctx context.Context, videoID, viewerID uuid.UUID) (*models.VideoDto, error) {
	row, err := s.findVideoRow(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !row.IsPublished && row.OwnerID != viewerID {
		return nil, customerrors.ErrVideoNotFound
	}

	if err := s.recordView(ctx, videoID, viewerID); err != nil {
		slog.WarnContext(ctx, "failed to record video view", "error", err, "videoId", videoID, "userId", viewerID)
	} else {
		row.Views++
	}
	return row.ToDto(), nil
}

func (s *VideoService) recordView(ctx context.Context, videoID, viewerID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Video{}).
			Where("id = ?", videoID).
			UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
			return err
		}
		history := &models.WatchHistory{UserID: viewerID, VideoID: videoID, WatchedAt: time.Now()}
		return gorm.G[models.WatchHistory](tx, clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"watched_at"}),
		}).Create(ctx, history)
	})
}

func (s *VideoService) UpdateVideo(ctx context.Context, userID, videoID uuid.UUID, dto *models.UpdateVideoDto) (*models.VideoDto, error) {
	title := strings.TrimSpace(dto.Title)
	description := strings.TrimSpace(dto.Description)
	if title == "" || description == "" {
		return nil, customerrors.InvalidInput("title and description are required")
	}

	if _, err := s.findOwnedVideo(ctx, userID, videoID); err != nil {
		return nil, err
	}
	if _, err := gorm.G[models.Video](s.db).
		Where("id = ?", videoID).
		Updates(ctx, models.Video{Title: title, Description: description}); err != nil {
		slog.ErrorContext(ctx, "failed to update video", "error", err, "videoId", videoID)
		return nil, customerrors.FromStore(err)
	}
	return s.getVideoDto(ctx, videoID)
}

// UpdateThumbnail swaps the thumbnail. The previous asset is deleted only after
// the record points at the new one.
func (s *VideoService) UpdateThumbnail(ctx context.Context, userID, videoID uuid.UUID, thumbnail *media.Source) (*models.VideoDto, error) {
	if thumbnail == nil {
		return nil, customerrors.ErrThumbnailRequired
	}
	video, err := s.findOwnedVideo(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}

	asset, err := s.store.Upload(ctx, thumbnail)
	if err != nil {
		return nil, err
	}
	if _, err := gorm.G[models.Video](s.db).
		Where("id = ?", videoID).
		Updates(ctx, models.Video{Thumbnail: asset.URL, ThumbnailAssetID: asset.ID}); err != nil {
		media.DeleteQuietly(ctx, s.store, asset.ID)
		slog.ErrorContext(ctx, "failed to update thumbnail", "error", err, "videoId", videoID)
		return nil, customerrors.FromStore(err)
	}
	media.DeleteQuietly(ctx, s.store, video.ThumbnailAssetID)

	return s.getVideoDto(ctx, videoID)
}

// DeleteVideo soft deletes the video with its comments and drops every relation
// pointing at it. The media assets go last.
func (s *VideoService) DeleteVideo(ctx context.Context, userID, videoID uuid.UUID) error {
	video, err := s.findOwnedVideo(ctx, userID, videoID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := softDelete[models.Video](ctx, tx, videoID); err != nil {
			return err
		}
		if err := tx.Where("comment_id IN (?)", tx.Model(&models.Comment{}).Select("id").Where("video_id = ?", videoID)).
			Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).
			Where("video_id = ? AND deleted_at IS NULL", videoID).
			Update("deleted_at", time.Now()).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", videoID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", videoID).Delete(&models.PlaylistVideo{}).Error; err != nil {
			return err
		}
		return tx.Where("video_id = ?", videoID).Delete(&models.WatchHistory{}).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete video", "error", err, "videoId", videoID)
		return customerrors.FromStore(err)
	}

	media.DeleteQuietly(ctx, s.store, video.VideoAssetID)
	media.DeleteQuietly(ctx, s.store, video.ThumbnailAssetID)
	return nil
}

func (s *VideoService) TogglePublishStatus(ctx context.Context, userID, videoID uuid.UUID) (*models.VideoDto, error) {
	video, err := s.findOwnedVideo(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if _, err := gorm.G[models.Video](s.db).
		Where("id = ?", videoID).
		Update(ctx, "is_published", !video.IsPublished); err != nil {
		slog.ErrorContext(ctx, "failed to toggle publish status", "error", err, "videoId", videoID)
		return nil, customerrors.FromStore(err)
	}
	return s.getVideoDto(ctx, videoID)
}

func (s *VideoService) findOwnedVideo(ctx context.Context, userID, videoID uuid.UUID) (*models.Video, error) {
	return findOwned[models.Video](ctx, s.db, videoID, userID, customerrors.ErrVideoNotFound, customerrors.ErrNotVideoOwner)
}

func (s *VideoService) findVideoRow(ctx context.Context, videoID uuid.UUID) (*models.VideoRow, error) {
	row, found, err := query.First[models.VideoRow](ctx, s.db, videoRows(query.From("videos")).Match(query.Eq("videos.id", videoID)))
	if err != nil {
		slog.ErrorContext(ctx, "failed to find video", "error", err, "videoId", videoID)
		return nil, err
	}
	if !found {
		return nil, customerrors.ErrVideoNotFound
	}
	return &row, nil
}

func (s *VideoService) getVideoDto(ctx context.Context, videoID uuid.UUID) (*models.VideoDto, error) {
	row, err := s.findVideoRow(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return row.ToDto(), nil
}
