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

type Tweet struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	DeletedAt *time.Time
}

func (Tweet) TableName() string {
	return "tweets"
}

func (t *Tweet) BeforeCreate(tx *gorm.DB) error {
	return assignID(&t.ID)
}

func (t *Tweet) GetOwnerID() uuid.UUID {
	return t.OwnerID
}

func (t *Tweet) ToDto() *TweetDto {
	return &TweetDto{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type TweetRow struct {
	ID         uuid.UUID
	Content    string
	LikesCount int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	OwnerColumns
}

func (r *TweetRow) ToDto() *TweetDto {
	return &TweetDto{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		Owner:      r.Owner(),
		Content:    r.Content,
		LikesCount: r.LikesCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type TweetDto struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"ownerId"`
	Owner      *OwnerDto `json:"owner,omitempty"`
	Content    string    `json:"content"`
	LikesCount int64     `json:"likesCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
