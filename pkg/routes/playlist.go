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

type PlaylistRoutes struct {
	service *services.PlaylistService
}

var (
	playlistRoutes *PlaylistRoutes
	playlistOnce   sync.Once
)

func NewPlaylistRoutes(service *services.PlaylistService) *PlaylistRoutes {
	return &PlaylistRoutes{service: service}
}

func GetPlaylistRoutes() *PlaylistRoutes {
	playlistOnce.Do(func() {
		playlistRoutes = NewPlaylistRoutes(services.GetPlaylistService())
	})
	return playlistRoutes
}

func (r *PlaylistRoutes) RegisterRoutes(router *gin.RouterGroup) {
	playlistGroup := router.Group("/playlists")
	{
		playlistGroup.POST("", r.CreatePlaylist)
		playlistGroup.GET("/user/:userId", r.ListUserPlaylists)
		playlistGroup.GET("/:playlistId", r.GetPlaylist)
		playlistGroup.PATCH("/:playlistId", r.UpdatePlaylist)
		playlistGroup.DELETE("/:playlistId", r.DeletePlaylist)
		playlistGroup.PATCH("/add/:videoId/:playlistId", r.AddVideo)
		playlistGroup.PATCH("/remove/:videoId/:playlistId", r.RemoveVideo)
	}
}

func (r *PlaylistRoutes) CreatePlaylist(c *gin.Context) {
	var dto models.CreatePlaylistDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	playlist, err := r.service.CreatePlaylist(c, middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.Created(c, playlist)
}

func (r *PlaylistRoutes) ListUserPlaylists(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	playlists, err := r.service.ListUserPlaylists(c, userID, middleware.CurrentUserID(c), c.Query("page"), c.Query("limit"))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, playlists)
}

func (r *PlaylistRoutes) GetPlaylist(c *gin.Context) {
	playlistID, ok := pathID(c, "playlistId")
	if !ok {
		return
	}
	playlist, err := r.service.GetPlaylist(c, playlistID, middleware.CurrentUserID(c), c.Query("page"), c.Query("limit"))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, playlist)
}

func (r *PlaylistRoutes) UpdatePlaylist(c *gin.Context) {
	playlistID, ok := pathID(c, "playlistId")
	if !ok {
		return
	}
	var dto models.UpdatePlaylistDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	playlist, err := r.service.UpdatePlaylist(c, middleware.CurrentUserID(c), playlistID, &dto)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, playlist)
}

func (r *PlaylistRoutes) DeletePlaylist(c *gin.Context) {
	playlistID, ok := pathID(c, "playlistId")
	if !ok {
		return
	}
	if err := r.service.DeletePlaylist(c, middleware.CurrentUserID(c), playlistID); err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, nil)
}

func (r *PlaylistRoutes) AddVideo(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	playlistID, ok := pathID(c, "playlistId")
	if !ok {
		return
	}
	playlist, err := r.service.AddVideo(c, middleware.CurrentUserID(c), playlistID, videoID)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, playlist)
}

func (r *PlaylistRoutes) RemoveVideo(c *gin.Context) {
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	playlistID, ok := pathID(c, "playlistId")
	if !ok {
		return
	}
	playlist, err := r.service.RemoveVideo(c, middleware.CurrentUserID(c), playlistID, videoID)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, playlist)
}
