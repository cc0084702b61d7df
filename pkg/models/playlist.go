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
	"github.com/masteryyh/vidtube/pkg/utils/pagination"
	"gorm.io/gorm"
)

type Playlist struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	DeletedAt   *time.Time
}

func (Playlist) TableName() string {
	return "playlists"
}

func (p *Playlist) BeforeCreate(tx *gorm.DB) error {
	return assignID(&p.ID)
}

func (p *Playlist) GetOwnerID() uuid.UUID {
	return p.OwnerID
}

func (p *Playlist) ToDto() *PlaylistDto {
	return &PlaylistDto{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// PlaylistVideo keeps the membership of a video in a playlist, ordered by insertion.
type PlaylistVideo struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PlaylistID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_playlist_video"`
	VideoID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_playlist_video;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (PlaylistVideo) TableName() string {
	return "playlist_videos"
}

func (pv *PlaylistVideo) BeforeCreate(tx *gorm.DB) error {
	return assignID(&pv.ID)
}

type PlaylistRow struct {
	ID          uuid.UUID
	Name        string
	Description string
	VideoCount  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OwnerColumns
}

func (r *PlaylistRow) ToDto() *PlaylistDto {
	return &PlaylistDto{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Owner:       r.Owner(),
		Name:        r.Name,
		Description: r.Description,
		VideoCount:  r.VideoCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type PlaylistDto struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Owner       *OwnerDto `json:"owner,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoCount  int64     `json:"videoCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PlaylistDetailDto struct {
	*PlaylistDto
	Videos *pagination.PagedResponse[*VideoDto] `json:"videos"`
}

type CreatePlaylistDto struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"omitempty"`
}

type UpdatePlaylistDto struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"omitempty"`
}
