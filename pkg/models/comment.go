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

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	VideoID   uuid.UUID `gorm:"type:uuid;not null;index"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	DeletedAt *time.Time
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	return assignID(&c.ID)
}

func (c *Comment) GetOwnerID() uuid.UUID {
	return c.OwnerID
}

func (c *Comment) ToDto() *CommentDto {
	return &CommentDto{
		ID:        c.ID,
		VideoID:   c.VideoID,
		OwnerID:   c.OwnerID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type CommentRow struct {
	ID         uuid.UUID
	VideoID    uuid.UUID
	Content    string
	LikesCount int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	OwnerColumns
}

func (r *CommentRow) ToDto() *CommentDto {
	return &CommentDto{
		ID:         r.ID,
		VideoID:    r.VideoID,
		OwnerID:    r.OwnerID,
		Owner:      r.Owner(),
		Content:    r.Content,
		LikesCount: r.LikesCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type CommentDto struct {
	ID         uuid.UUID `json:"id"`
	VideoID    uuid.UUID `json:"videoId"`
	OwnerID    uuid.UUID `json:"ownerId"`
	Owner      *OwnerDto `json:"owner,omitempty"`
	Content    string    `json:"content"`
	LikesCount int64     `json:"likesCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ContentDto is the request body shared by comments and tweets.
type ContentDto struct {
	Content string `json:"content" binding:"required,max=5000"`
}
