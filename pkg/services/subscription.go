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

type SubscriptionService struct {
	db *gorm.DB
}

var (
	subscriptionService *SubscriptionService
	subscriptionOnce    sync.Once
)

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

func GetSubscriptionService() *SubscriptionService {
	subscriptionOnce.Do(func() {
		subscriptionService = NewSubscriptionService(conn.GetDB())
	})
	return subscriptionService
}

var newestSubscriptionFirst = []query.Sort{
	{Column: "subscriptions.created_at", Order: pagination.OrderTypeDescending},
	{Column: "subscriptions.id", Order: pagination.OrderTypeDescending},
}

// ToggleSubscription subscribes to or unsubscribes from a channel. Subscribing to
// yourself is rejected before anything is looked up.
func (s *SubscriptionService) ToggleSubscription(ctx context.Context, subscriberID, channelID uuid.UUID) (*models.SubscriptionStatusDto, error) {
	if subscriberID == channelID {
		return nil, customerrors.ErrSelfSubscription
	}
	if err := requireUser(ctx, s.db, channelID, customerrors.ErrChannelNotFound); err != nil {
		return nil, err
	}

	key := query.And(query.Eq("subscriber_id", subscriberID), query.Eq("channel_id", channelID))
	subscribed, err := toggle(ctx, s.db, key, func() *models.Subscription {
		return &models.Subscription{SubscriberID: subscriberID, ChannelID: channelID}
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to toggle subscription", "error", err, "channelId", channelID, "userId", subscriberID)
		return nil, err
	}
	return &models.SubscriptionStatusDto{Subscribed: subscribed}, nil
}

func (s *SubscriptionService) ListSubscribers(ctx context.Context, channelID uuid.UUID, rawPage, rawLimit string) (*pagination.PagedResponse[*models.SubscriberDto], error) {
	page := pagination.Resolve(rawPage, rawLimit, consts.DefaultSubscriptionLimit, pagination.MaxLimit)
	if err := requireUser(ctx, s.db, channelID, customerrors.ErrChannelNotFound); err != nil {
		return nil, err
	}

	p := query.From("subscriptions").
		Project("subscriptions.id", "subscriptions.created_at AS subscribed_at").
		WithOwner("subscriptions.subscriber_id").
		Match(query.Eq("subscriptions.channel_id", channelID)).
		Sort(newestSubscriptionFirst...)
	rows, err := query.Paginate[models.SubscriptionRow](ctx, s.db, p, page)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list subscribers", "error", err, "channelId", channelID)
		return nil, err
	}
	return pagination.MapItems(rows, func(r models.SubscriptionRow) *models.SubscriberDto {
		return r.ToSubscriberDto()
	}), nil
}

func (s *SubscriptionService) ListSubscribedChannels(ctx context.Context, subscriberID uuid.UUID, rawPage, rawLimit string) (*pagination.PagedResponse[*models.SubscribedChannelDto], error) {
	page := pagination.Resolve(rawPage, rawLimit, consts.DefaultSubscriptionLimit, pagination.MaxLimit)
	if err := requireUser(ctx, s.db, subscriberID, customerrors.ErrUserNotFound); err != nil {
		return nil, err
	}

	p := query.From("subscriptions").
		Project("subscriptions.id", "subscriptions.created_at AS subscribed_at").
		WithOwner("subscriptions.channel_id").
		Compute("(SELECT COUNT(*) FROM subscriptions AS channel_subs WHERE channel_subs.channel_id = subscriptions.channel_id) AS subscribers_count").
		Match(query.Eq("subscriptions.subscriber_id", subscriberID)).
		Sort(newestSubscriptionFirst...)
	rows, err := query.Paginate[models.SubscriptionRow](ctx, s.db, p, page)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list subscribed channels", "error", err, "userId", subscriberID)
		return nil, err
	}
	return pagination.MapItems(rows, func(r models.SubscriptionRow) *models.SubscribedChannelDto {
		return r.ToChannelDto()
	}), nil
}
