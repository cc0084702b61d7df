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

type CommentRoutes struct {
	service *services.CommentService
}

var (
	commentRoutes *CommentRoutes
	commentOnce   sync.Once
)

func NewCommentRoutes(service *services.CommentService) *CommentRoutes {
	return &CommentRoutes{service: service}
}

func GetCommentRoutes() *CommentRoutes {
	commentOnce.Do(func() {
		commentRoutes = NewCommentRoutes(services.GetCommentService())
	})
	return commentRoutes
}

func (r *CommentRoutes) RegisterRoutes(router *gin.RouterGroup) {
	commentGroup := router.Group("/comments")
	{
		commentGroup.GET("/:videoId", r.ListComments)
		commentGroup.POST("/:videoId", r.AddComment)
		commentGroup.PATCH("/c/:commentId", r.UpdateComment)
		commentGroup.DELETE("/c/:commentId", r.DeleteComment)
	}
}

func (r *CommentRoutes) ListComments(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	comments, err := r.service.ListComments(c, videoID, middleware.CurrentUserID(c), c.Query("page"), c.Query("limit"))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, comments)
}

func (r *CommentRoutes) AddComment(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	var dto models.ContentDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	comment, err := r.service.AddComment(c, middleware.CurrentUserID(c), videoID, dto.Content)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.Created(c, comment)
}

func (r *CommentRoutes) UpdateComment(c *gin.Context) {
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	var dto models.ContentDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	comment, err := r.service.UpdateComment(c, middleware.CurrentUserID(c), commentID, dto.Content)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, comment)
}

func (r *CommentRoutes) DeleteComment(c *gin.Context) {
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	if err := r.service.DeleteComment(c, middleware.CurrentUserID(c), commentID); err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, nil)
}
