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
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/conn"
	"github.com/masteryyh/vidtube/pkg/consts"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/query"
	"github.com/masteryyh/vidtube/pkg/utils/pagination"
	"gorm.io/gorm"
)

type LikeService struct {
	db *gorm.DB
}

var (
	likeService *LikeService
	likeOnce    sync.Once
)

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

func GetLikeService() *LikeService {
	likeOnce.Do(func() {
		likeService = NewLikeService(conn.GetDB())
	})
	return likeService
}

// ToggleLike flips the user's like on a video, comment or tweet and reports the
// resulting state.
func (s *LikeService) ToggleLike(ctx context.Context, target models.LikeTarget, targetID, userID uuid.UUID) (*models.LikeStatusDto, error) {
	if err := s.requireTarget(ctx, target, targetID, userID); err != nil {
		return nil, err
	}

	key := query.And(query.Eq(target.Column(), targetID), query.Eq("liked_by", userID))
	liked, err := toggle(ctx, s.db, key, func() *models.Like {
		return models.NewLike(target, targetID, userID)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to toggle like", "error", err, "target", target, "targetId", targetID, "userId", userID)
		return nil, err
	}
	return &models.LikeStatusDto{Liked: liked}, nil
}

// requireTarget checks that the liked object exists and is visible to the user.
// Comments under another user's draft count as missing.
func (s *LikeService) requireTarget(ctx context.Context, target models.LikeTarget, targetID, userID uuid.UUID) error {
	var err error
	switch target {
	case models.LikeTargetVideo:
		_, err = findVisibleVideo(ctx, s.db, targetID, userID)
	case models.LikeTargetComment:
		var comment *models.Comment
		comment, err = findActive[models.Comment](ctx, s.db, targetID, customerrors.ErrCommentNotFound)
		if err == nil {
			_, err = findVisibleVideo(ctx, s.db, comment.VideoID, userID)
			if errors.Is(err, customerrors.ErrVideoNotFound) {
				err = customerrors.ErrCommentNotFound
			}
		}
	case models.LikeTargetTweet:
		_, err = findActive[models.Tweet](ctx, s.db, targetID, customerrors.ErrTweetNotFound)
	default:
		err = fmt.Errorf("unknown like target %q", target)
	}
	return err
}

// ListLikedVideos pages through the videos the user liked, most recent like first.
func (s *LikeService) ListLikedVideos(ctx context.Context, userID uuid.UUID, rawPage, rawLimit string) (*pagination.PagedResponse[*models.LikedVideoDto], error) {
	page := pagination.Resolve(rawPage, rawLimit, consts.DefaultLikedVideoLimit, pagination.MaxLimit)

	p := videoRows(query.From("likes").
		Join("JOIN videos ON videos.id = likes.video_id")).
		Project("likes.created_at AS liked_at").
		Match(
			query.Eq("likes.liked_by", userID),
			visibleTo(userID),
		).
		Sort(
			query.Sort{Column: "likes.created_at", Order: pagination.OrderTypeDescending},
			query.Sort{Column: "likes.id", Order: pagination.OrderTypeDescending},
		)

	rows, err := query.Paginate[models.LikedVideoRow](ctx, s.db, p, page)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list liked videos", "error", err, "userId", userID)
		return nil, err
	}
	return pagination.MapItems(rows, func(r models.LikedVideoRow) *models.LikedVideoDto {
		return r.ToDto()
	}), nil
}
