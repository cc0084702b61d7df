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

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Subscription struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SubscriberID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscription_pair"`
	ChannelID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscription_pair;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	return assignID(&s.ID)
}

type SubscriptionStatusDto struct {
	Subscribed bool `json:"subscribed"`
}

// SubscriptionRow is one side of a subscription joined with that side's user.
type SubscriptionRow struct {
	ID               uuid.UUID
	SubscribersCount int64
	SubscribedAt     time.Time
	OwnerColumns
}

func (r *SubscriptionRow) ToSubscriberDto() *SubscriberDto {
	return &SubscriberDto{
		Subscriber:   r.Owner(),
		SubscribedAt: r.SubscribedAt,
	}
}

func (r *SubscriptionRow) ToChannelDto() *SubscribedChannelDto {
	return &SubscribedChannelDto{
		Channel:          r.Owner(),
		SubscribersCount: r.SubscribersCount,
		SubscribedAt:     r.SubscribedAt,
	}
}

type SubscriberDto struct {
	Subscriber   *OwnerDto `json:"subscriber"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

type SubscribedChannelDto struct {
	Channel          *OwnerDto `json:"channel"`
	SubscribersCount int64     `json:"subscribersCount"`
	SubscribedAt     time.Time `json:"subscribedAt"`
}
