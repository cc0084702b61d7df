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

package routes

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/middleware"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/services"
	"github.com/masteryyh/vidtube/pkg/utils/response"
)

type TweetRoutes struct {
	service *services.TweetService
}

var (
	tweetRoutes *TweetRoutes
	tweetOnce   sync.Once
)

func NewTweetRoutes(service *services.TweetService) *TweetRoutes {
	return &TweetRoutes{service: service}
}

func GetTweetRoutes() *TweetRoutes {
	tweetOnce.Do(func() {
		tweetRoutes = NewTweetRoutes(services.GetTweetService())
	})
	return tweetRoutes
}

func (r *TweetRoutes) RegisterRoutes(router *gin.RouterGroup) {
	tweetGroup := router.Group("/tweets")
	{
		tweetGroup.POST("", r.CreateTweet)
		tweetGroup.GET("/user/:userId", r.ListUserTweets)
		tweetGroup.PATCH("/:tweetId", r.UpdateTweet)
		tweetGroup.DELETE("/:tweetId", r.DeleteTweet)
	}
}

func (r *TweetRoutes) CreateTweet(c *gin.Context) {
	var dto models.ContentDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	tweet, err := r.service.CreateTweet(c, middleware.CurrentUserID(c), dto.Content)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.Created(c, tweet)
}

func (r *TweetRoutes) ListUserTweets(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	tweets, err := r.service.ListUserTweets(c, userID, c.Query("page"), c.Query("limit"))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, tweets)
}

func (r *TweetRoutes) UpdateTweet(c *gin.Context) {
	tweetID, ok := pathID(c, "tweetId")
	if !ok {
		return
	}
	var dto models.ContentDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	tweet, err := r.service.UpdateTweet(c, middleware.CurrentUserID(c), tweetID, dto.Content)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, tweet)
}

func (r *TweetRoutes) DeleteTweet(c *gin.Context) {
	tweetID, ok := pathID(c, "tweetId")
	if !ok {
		return
	}
	if err := r.service.DeleteTweet(c, middleware.CurrentUserID(c), tweetID); err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, nil)
}
