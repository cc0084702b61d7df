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

type TweetService struct {
	db *gorm.DB
}

var (
	tweetService *TweetService
	tweetOnce    sync.Once
)

func NewTweetService(db *gorm.DB) *TweetService {
	return &TweetService{db: db}
}

func GetTweetService() *TweetService {
	tweetOnce.Do(func() {
		tweetService = NewTweetService(conn.GetDB())
	})
	return tweetService
}

func tweetRows() query.Pipeline {
	return query.From("tweets").
		Project("tweets.id", "tweets.content", "tweets.created_at", "tweets.updated_at").
		WithOwner("tweets.owner_id").
		Compute("(SELECT COUNT(*) FROM likes WHERE likes.tweet_id = tweets.id) AS likes_count").
		Match(query.Where("tweets.deleted_at IS NULL"))
}

func (s *TweetService) CreateTweet(ctx context.Context, userID uuid.UUID, content string) (*models.TweetDto, error) {
	content, err := requireContent(content)
	if err != nil {
		return nil, err
	}

	tweet := &models.Tweet{OwnerID: userID, Content: content}
	if err := gorm.G[models.Tweet](s.db).Create(ctx, tweet); err != nil {
		slog.ErrorContext(ctx, "failed to create tweet", "error", err, "userId", userID)
		return nil, customerrors.FromStore(err)
	}
	return s.getTweet(ctx, tweet.ID)
}

func (s *TweetService) ListUserTweets(ctx context.Context, ownerID uuid.UUID, rawPage, rawLimit string) (*pagination.PagedResponse[*models.TweetDto], error) {
	page := pagination.Resolve(rawPage, rawLimit, consts.DefaultTweetLimit, pagination.MaxLimit)
	if err := requireUser(ctx, s.db, ownerID, customerrors.ErrUserNotFound); err != nil {
		return nil, err
	}

	p := tweetRows().
		Match(query.Eq("tweets.owner_id", ownerID)).
		Sort(
			query.Sort{Column: "tweets.created_at", Order: pagination.OrderTypeDescending},
			query.Sort{Column: "tweets.id", Order: pagination.OrderTypeDescending},
		)
	rows, err := query.Paginate[models.TweetRow](ctx, s.db, p, page)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list tweets", "error", err, "userId", ownerID)
		return nil, err
	}
	return pagination.MapItems(rows, func(r models.TweetRow) *models.TweetDto {
		return r.ToDto()
	}), nil
}

func (s *TweetService) UpdateTweet(ctx context.Context, userID, tweetID uuid.UUID, content string) (*models.TweetDto, error) {
	content, err := requireContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := findOwned[models.Tweet](ctx, s.db, tweetID, userID, customerrors.ErrTweetNotFound, customerrors.ErrNotTweetOwner); err != nil {
		return nil, err
	}

	if _, err := gorm.G[models.Tweet](s.db).
		Where("id = ?", tweetID).
		Update(ctx, "content", content); err != nil {
		slog.ErrorContext(ctx, "failed to update tweet", "error", err, "tweetId", tweetID)
		return nil, customerrors.FromStore(err)
	}
	return s.getTweet(ctx, tweetID)
}

func (s *TweetService) DeleteTweet(ctx context.Context, userID, tweetID uuid.UUID) error {
	if _, err := findOwned[models.Tweet](ctx, s.db, tweetID, userID, customerrors.ErrTweetNotFound, customerrors.ErrNotTweetOwner); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := softDelete[models.Tweet](ctx, tx, tweetID); err != nil {
			return err
		}
		return tx.Where("tweet_id = ?", tweetID).Delete(&models.Like{}).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete tweet", "error", err, "tweetId", tweetID)
		return customerrors.FromStore(err)
	}
	return nil
}

func (s *TweetService) getTweet(ctx context.Context, tweetID uuid.UUID) (*models.TweetDto, error) {
	row, found, err := query.First[models.TweetRow](ctx, s.db, tweetRows().Match(query.Eq("tweets.id", tweetID)))
	if err != nil {
		slog.ErrorContext(ctx, "failed to find tweet", "error", err, "tweetId", tweetID)
		return nil, err
	}
	if !found {
		return nil, customerrors.ErrTweetNotFound
	}
	return row.ToDto(), nil
}
