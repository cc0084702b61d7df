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
	"github.com/masteryyh/vidtube/pkg/middleware"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/services"
	"github.com/masteryyh/vidtube/pkg/utils/response"
)

type LikeRoutes struct {
	service *services.LikeService
}

var (
	likeRoutes *LikeRoutes
	likeOnce   sync.Once
)

func NewLikeRoutes(service *services.LikeService) *LikeRoutes {
	return &LikeRoutes{service: service}
}

func GetLikeRoutes() *LikeRoutes {
	likeOnce.Do(func() {
		likeRoutes = NewLikeRoutes(services.GetLikeService())
	})
	return likeRoutes
}

func (r *LikeRoutes) RegisterRoutes(router *gin.RouterGroup) {
	likeGroup := router.Group("/likes")
	{
		likeGroup.POST("/toggle/v/:videoId", r.toggle(models.LikeTargetVideo, "videoId"))
		likeGroup.POST("/toggle/c/:commentId", r.toggle(models.LikeTargetComment, "commentId"))
		likeGroup.POST("/toggle/t/:tweetId", r.toggle(models.LikeTargetTweet, "tweetId"))
		likeGroup.GET("/videos", r.ListLikedVideos)
	}
}

func (r *LikeRoutes) toggle(target models.LikeTarget, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := pathID(c, param)
		if !ok {
			return
		}
		status, err := r.service.ToggleLike(c, target, targetID, middleware.CurrentUserID(c))
		if err != nil {
			response.Failed(c, err)
			return
		}
		response.OK(c, status)
	}
}

func (r *LikeRoutes) ListLikedVideos(c *gin.Context) {
	videos, err := r.service.ListLikedVideos(c, middleware.CurrentUserID(c), c.Query("page"), c.Query("limit"))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, videos)
}
