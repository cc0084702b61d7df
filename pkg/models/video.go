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

type Video struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Title            string    `gorm:"type:varchar(255);not null"`
	Description      string    `gorm:"type:text;not null"`
	VideoFile        string    `gorm:"type:text;not null"`
	VideoAssetID     string    `gorm:"type:varchar(255);not null"`
	Thumbnail        string    `gorm:"type:text;not null"`
	ThumbnailAssetID string    `gorm:"type:varchar(255);not null"`
	Duration         float64   `gorm:"not null"`
	Views            int64     `gorm:"not null"`
	IsPublished      bool      `gorm:"not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
	DeletedAt        *time.Time
}

func (Video) TableName() string {
	return "videos"
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	return assignID(&v.ID)
}

func (v *Video) GetOwnerID() uuid.UUID {
	return v.OwnerID
}

func (v *Video) ToDto() *VideoDto {
	return &VideoDto{
		ID:          v.ID,
		OwnerID:     v.OwnerID,
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// VideoRow is a video joined with its owner and like count.
type VideoRow struct {
	ID          uuid.UUID
	Title       string
	Description string
	VideoFile   string
	Thumbnail   string
	Duration    float64
	Views       int64
	IsPublished bool
	LikesCount  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OwnerColumns
}

func (r *VideoRow) ToDto() *VideoDto {
	return &VideoDto{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Owner:       r.Owner(),
		Title:       r.Title,
		Description: r.Description,
		VideoFile:   r.VideoFile,
		Thumbnail:   r.Thumbnail,
		Duration:    r.Duration,
		Views:       r.Views,
		IsPublished: r.IsPublished,
		LikesCount:  r.LikesCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type VideoDto struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Owner       *OwnerDto `json:"owner,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	LikesCount  int64     `json:"likesCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PublishVideoDto struct {
	Title       string `form:"title" binding:"required,max=255"`
	Description string `form:"description" binding:"required"`
}

type UpdateVideoDto struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"required"`
}

// VideoListQuery carries the raw query string of the video listing.
type VideoListQuery struct {
	Query    string `form:"query"`
	UserID   string `form:"userId"`
	SortBy   string `form:"sortBy"`
	SortType string `form:"sortType"`
	Page     string `form:"page"`
	Limit    string `form:"limit"`
}
