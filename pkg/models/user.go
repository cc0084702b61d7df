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

type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username          string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Email             string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	FullName          string    `gorm:"type:varchar(255);not null"`
	Avatar            string    `gorm:"type:text;not null"`
	AvatarAssetID     string    `gorm:"type:varchar(255);not null;default:''"`
	CoverImage        string    `gorm:"type:text;not null;default:''"`
	CoverImageAssetID string    `gorm:"type:varchar(255);not null;default:''"`
	PasswordHash      string    `gorm:"type:varchar(255);not null" json:"-"`
	RefreshTokenHash  *string   `gorm:"type:varchar(64)" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	return assignID(&u.ID)
}

// WithoutCredentials returns a copy safe to hand to request handlers.
func (u *User) WithoutCredentials() *User {
	identity := *u
	identity.PasswordHash = ""
	identity.RefreshTokenHash = nil
	return &identity
}

// ToDto drops every credential field.
func (u *User) ToDto() *UserDto {
	return &UserDto{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func (u *User) ToOwnerDto() *OwnerDto {
	return &OwnerDto{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}

type UserDto struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type RegisterDto struct {
	FullName string `form:"fullName" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Username string `form:"username" binding:"required,username"`
	Password string `form:"password" binding:"required,min=8,max=128"`
}

type LoginDto struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Username string `json:"username" binding:"omitempty"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenDto struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordDto struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=128"`
}

type UpdateAccountDto struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

type AuthDto struct {
	User         *UserDto `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

// ChannelProfileRow is scanned from the channel profile aggregation.
type ChannelProfileRow struct {
	ID                        uuid.UUID
	Username                  string
	Email                     string
	FullName                  string
	Avatar                    string
	CoverImage                string
	SubscribersCount          int64
	ChannelsSubscribedToCount int64
	IsSubscribed              bool
}

func (r *ChannelProfileRow) ToDto() *ChannelProfileDto {
	return &ChannelProfileDto{
		ID:                        r.ID,
		Username:                  r.Username,
		Email:                     r.Email,
		FullName:                  r.FullName,
		Avatar:                    r.Avatar,
		CoverImage:                r.CoverImage,
		SubscribersCount:          r.SubscribersCount,
		ChannelsSubscribedToCount: r.ChannelsSubscribedToCount,
		IsSubscribed:              r.IsSubscribed,
	}
}

type ChannelProfileDto struct {
	ID                        uuid.UUID `json:"id"`
	Username                  string    `json:"username"`
	Email                     string    `json:"email"`
	FullName                  string    `json:"fullName"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
}

type WatchHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_watch_user_video"`
	VideoID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_watch_user_video"`
	WatchedAt time.Time `gorm:"not null;index"`
}

func (WatchHistory) TableName() string {
	return "watch_histories"
}

func (h *WatchHistory) BeforeCreate(tx *gorm.DB) error {
	return assignID(&h.ID)
}

type WatchHistoryRow struct {
	VideoRow
	WatchedAt time.Time
}

func (r *WatchHistoryRow) ToDto() *WatchHistoryDto {
	return &WatchHistoryDto{
		Video:     r.VideoRow.ToDto(),
		WatchedAt: r.WatchedAt,
	}
}

type WatchHistoryDto struct {
	Video     *VideoDto `json:"video"`
	WatchedAt time.Time `json:"watchedAt"`
}
