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
	"github.com/masteryyh/vidtube/pkg/consts"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/middleware"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/services"
	"github.com/masteryyh/vidtube/pkg/utils/response"
)

type VideoRoutes struct {
	service *services.VideoService
}

var (
	videoRoutes *VideoRoutes
	videoOnce   sync.Once
)

func NewVideoRoutes(service *services.VideoService) *VideoRoutes {
	return &VideoRoutes{service: service}
}

func GetVideoRoutes() *VideoRoutes {
	videoOnce.Do(func() {
		videoRoutes = NewVideoRoutes(services.GetVideoService())
	})
	return videoRoutes
}

func (r *VideoRoutes) RegisterRoutes(router *gin.RouterGroup) {
	videoGroup := router.Group("/videos")
	{
		videoGroup.GET("", r.ListVideos)
		videoGroup.POST("", r.PublishVideo)
		videoGroup.GET("/:videoId", r.GetVideo)
		videoGroup.PATCH("/:videoId", r.UpdateVideo)
		videoGroup.DELETE("/:videoId", r.DeleteVideo)
		videoGroup.PATCH("/:videoId/thumbnail", r.UpdateThumbnail)
		videoGroup.PATCH("/toggle/publish/:videoId", r.TogglePublishStatus)
	}
}

func (r *VideoRoutes) ListVideos(c *gin.Context) {
	var q models.VideoListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	videos, err := r.service.ListVideos(c, &q, middleware.CurrentUserID(c))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, videos)
}

func (r *VideoRoutes) PublishVideo(c *gin.Context) {
	var dto models.PublishVideoDto
	if err := c.ShouldBind(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	videoFile, err := formFile(c, "videoFile", consts.MaxVideoSize)
	if err != nil {
		response.Failed(c, err)
		return
	}
	thumbnail, err := formFile(c, "thumbnail", consts.MaxImageSize)
	if err != nil {
		response.Failed(c, err)
		return
	}

	video, err := r.service.PublishVideo(c, middleware.CurrentUserID(c), &dto, videoFile, thumbnail)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.Created(c, video)
}

func (r *VideoRoutes) GetVideo(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	video, err := r.service.GetVideo(c, videoID, middleware.CurrentUserID(c))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, video)
}

func (r *VideoRoutes) UpdateVideo(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	var dto models.UpdateVideoDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	video, err := r.service.UpdateVideo(c, middleware.CurrentUserID(c), videoID, &dto)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, video)
}

func (r *VideoRoutes) UpdateThumbnail(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	thumbnail, err := formFile(c, "thumbnail", consts.MaxImageSize)
	if err != nil {
		response.Failed(c, err)
		return
	}
	video, err := r.service.UpdateThumbnail(c, middleware.CurrentUserID(c), videoID, thumbnail)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, video)
}

func (r *VideoRoutes) DeleteVideo(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	if err := r.service.DeleteVideo(c, middleware.CurrentUserID(c), videoID); err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, nil)
}

func (r *VideoRoutes) TogglePublishStatus(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	video, err := r.service.TogglePublishStatus(c, middleware.CurrentUserID(c), videoID)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, video)
}
