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

type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// Column is the likes column referencing the target.
func (t LikeTarget) Column() string {
	return string(t) + "_id"
}

// Like exists while the user likes exactly one of video, comment or tweet.
type Like struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VideoID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_like_video_user"`
	CommentID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_like_comment_user"`
	TweetID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_like_tweet_user"`
	LikedBy   uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_like_video_user;uniqueIndex:idx_like_comment_user;uniqueIndex:idx_like_tweet_user"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

func (Like) TableName() string {
	return "likes"
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	return assignID(&l.ID)
}

func NewLike(target LikeTarget, targetID, userID uuid.UUID) *Like {
	like := &Like{LikedBy: userID}
	switch target {
	case LikeTargetVideo:
		like.VideoID = &targetID
	case LikeTargetComment:
		like.CommentID = &targetID
	case LikeTargetTweet:
		like.TweetID = &targetID
	}
	return like
}

type LikeStatusDto struct {
	Liked bool `json:"liked"`
}

type LikedVideoRow struct {
	VideoRow
	LikedAt time.Time
}

func (r *LikedVideoRow) ToDto() *LikedVideoDto {
	return &LikedVideoDto{
		Video:   r.VideoRow.ToDto(),
		LikedAt: r.LikedAt,
	}
}

type LikedVideoDto struct {
	Video   *VideoDto `json:"video"`
	LikedAt time.Time `json:"likedAt"`
}
