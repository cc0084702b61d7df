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

	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/conn"
	"github.com/masteryyh/vidtube/pkg/consts"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/query"
	"github.com/masteryyh/vidtube/pkg/utils/pagination"
	"gorm.io/gorm"
)

type CommentService struct {
	db *gorm.DB
}

var (
	commentService *CommentService
	commentOnce    sync.Once
)

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

func GetCommentService() *CommentService {
	commentOnce.Do(func() {
		commentService = NewCommentService(conn.GetDB())
	})
	return commentService
}

func commentRows() query.Pipeline {
	return query.From("comments").
		Project("comments.id", "comments.video_id", "comments.content", "comments.created_at", "comments.updated_at").
		WithOwner("comments.owner_id").
		Compute("(SELECT COUNT(*) FROM likes WHERE likes.comment_id = comments.id) AS likes_count").
		Match(query.Where("comments.deleted_at IS NULL"))
}

// ListComments pages through the comments of a video the viewer can see, newest first.
func (s *CommentService) ListComments(ctx context.Context, videoID, viewerID uuid.UUID, rawPage, rawLimit string) (*pagination.PagedResponse[*models.CommentDto], error) {
	page := pagination.Resolve(rawPage, rawLimit, consts.DefaultCommentLimit, pagination.MaxLimit)
	if _, err := findVisibleVideo(ctx, s.db, videoID, viewerID); err != nil {
		return nil, err
	}

	p := commentRows().
		Match(query.Eq("comments.video_id", videoID)).
		Sort(
			query.Sort{Column: "comments.created_at", Order: pagination.OrderTypeDescending},
			query.Sort{Column: "comments.id", Order: pagination.OrderTypeDescending},
		)
	rows, err := query.Paginate[models.CommentRow](ctx, s.db, p, page)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list comments", "error", err, "videoId", videoID)
		return nil, err
	}
	return pagination.MapItems(rows, func(r models.CommentRow) *models.CommentDto {
		return r.ToDto()
	}), nil
}

func (s *CommentService) AddComment(ctx context.Context, userID, videoID uuid.UUID, content string) (*models.CommentDto, error) {
	content, err := requireContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := findVisibleVideo(ctx, s.db, videoID, userID); err != nil {
		return nil, err
	}

	comment := &models.Comment{VideoID: videoID, OwnerID: userID, Content: content}
	if err := gorm.G[models.Comment](s.db).Create(ctx, comment); err != nil {
		slog.ErrorContext(ctx, "failed to create comment", "error", err, "videoId", videoID)
		return nil, customerrors.FromStore(err)
	}
	return s.getComment(ctx, comment.ID)
}

func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID uuid.UUID, content string) (*models.CommentDto, error) {
	content, err := requireContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := findOwned[models.Comment](ctx, s.db, commentID, userID, customerrors.ErrCommentNotFound, customerrors.ErrNotCommentOwner); err != nil {
		return nil, err
	}

	if _, err := gorm.G[models.Comment](s.db).
		Where("id = ?", commentID).
		Update(ctx, "content", content); err != nil {
		slog.ErrorContext(ctx, "failed to update comment", "error", err, "commentId", commentID)
		return nil, customerrors.FromStore(err)
	}
	return s.getComment(ctx, commentID)
}

func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	if _, err := findOwned[models.Comment](ctx, s.db, commentID, userID, customerrors.ErrCommentNotFound, customerrors.ErrNotCommentOwner); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := softDelete[models.Comment](ctx, tx, commentID); err != nil {
			return err
		}
		return tx.Where("comment_id = ?", commentID).Delete(&models.Like{}).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete comment", "error", err, "commentId", commentID)
		return customerrors.FromStore(err)
	}
	return nil
}

func (s *CommentService) getComment(ctx context.Context, commentID uuid.UUID) (*models.CommentDto, error) {
	row, found, err := query.First[models.CommentRow](ctx, s.db, commentRows().Match(query.Eq("comments.id", commentID)))
	if err != nil {
		slog.ErrorContext(ctx, "failed to find comment", "error", err, "commentId", commentID)
		return nil, err
	}
	if !found {
		return nil, customerrors.ErrCommentNotFound
	}
	return row.ToDto(), nil
}

// requireContent trims free text bodies of comments and tweets.
func requireContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", customerrors.InvalidInput("content is required")
	}
	return content, nil
}
