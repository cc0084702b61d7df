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
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masteryyh/vidtube/pkg/auth"
	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/masteryyh/vidtube/pkg/consts"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/middleware"
	"github.com/masteryyh/vidtube/pkg/models"
	"github.com/masteryyh/vidtube/pkg/services"
	"github.com/masteryyh/vidtube/pkg/utils/response"
)

type cookieSettings struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type UserRoutes struct {
	service *services.UserService
	cookies cookieSettings
}

var (
	userRoutes *UserRoutes
	userOnce   sync.Once
)

func NewUserRoutes(service *services.UserService, secureCookies bool, accessTTL, refreshTTL time.Duration) *UserRoutes {
	return &UserRoutes{
		service: service,
		cookies: cookieSettings{secure: secureCookies, accessTTL: accessTTL, refreshTTL: refreshTTL},
	}
}

func GetUserRoutes() *UserRoutes {
	userOnce.Do(func() {
		issuer := auth.GetTokenIssuer()
		userRoutes = NewUserRoutes(
			services.GetUserService(),
			config.GetConfigManager().GetConfig().Auth.SecureCookies,
			issuer.AccessTTL(),
			issuer.RefreshTTL(),
		)
	})
	return userRoutes
}

func (r *UserRoutes) RegisterRoutes(public, protected *gin.RouterGroup, limiter gin.HandlerFunc) {
	publicGroup := public.Group("/users")
	{
		publicGroup.POST("/register", limiter, r.Register)
		publicGroup.POST("/login", limiter, r.Login)
		publicGroup.POST("/refresh-token", r.RefreshToken)
	}

	userGroup := protected.Group("/users")
	{
		userGroup.POST("/logout", r.Logout)
		userGroup.POST("/change-password", r.ChangePassword)
		userGroup.GET("/current-user", r.CurrentUser)
		userGroup.PATCH("/update-account", r.UpdateAccount)
		userGroup.PATCH("/avatar", r.UpdateAvatar)
		userGroup.PATCH("/cover-image", r.UpdateCoverImage)
		userGroup.GET("/c/:username", r.ChannelProfile)
		userGroup.GET("/history", r.WatchHistory)
	}
}

func (r *UserRoutes) Register(c *gin.Context) {
	var dto models.RegisterDto
	if err := c.ShouldBind(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	avatar, err := formFile(c, "avatar", consts.MaxImageSize)
	if err != nil {
		response.Failed(c, err)
		return
	}
	cover, err := formFile(c, "coverImage", consts.MaxImageSize)
	if err != nil {
		response.Failed(c, err)
		return
	}

	user, err := r.service.Register(c, &dto, avatar, cover)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.Created(c, user)
}

func (r *UserRoutes) Login(c *gin.Context) {
	var dto models.LoginDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}

	session, err := r.service.Login(c, &dto)
	if err != nil {
		response.Failed(c, err)
		return
	}
	r.setAuthCookies(c, session)
	response.OK(c, session)
}

// RefreshToken takes the refresh token from its cookie or, failing that, the body.
func (r *UserRoutes) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(consts.RefreshTokenCookie)
	if token == "" {
		var dto models.RefreshTokenDto
		_ = c.ShouldBindJSON(&dto)
		token = dto.RefreshToken
	}
	if token == "" {
		response.Failed(c, customerrors.ErrUnauthorized)
		return
	}

	session, err := r.service.RefreshTokens(c, token)
	if err != nil {
		response.Failed(c, err)
		return
	}
	r.setAuthCookies(c, session)
	response.OK(c, session)
}

func (r *UserRoutes) Logout(c *gin.Context) {
	if err := r.service.Logout(c, middleware.CurrentUserID(c)); err != nil {
		response.Failed(c, err)
		return
	}
	r.clearAuthCookies(c)
	response.OK(c, nil)
}

func (r *UserRoutes) ChangePassword(c *gin.Context) {
	var dto models.ChangePasswordDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	if err := r.service.ChangePassword(c, middleware.CurrentUserID(c), &dto); err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, nil)
}

func (r *UserRoutes) CurrentUser(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Failed(c, customerrors.ErrUnauthorized)
		return
	}
	response.OK(c, user.ToDto())
}

func (r *UserRoutes) UpdateAccount(c *gin.Context) {
	var dto models.UpdateAccountDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Failed(c, customerrors.ErrInvalidParams)
		return
	}
	user, err := r.service.UpdateAccount(c, middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, user)
}

func (r *UserRoutes) UpdateAvatar(c *gin.Context) {
	src, err := formFile(c, "avatar", consts.MaxImageSize)
	if err != nil {
		response.Failed(c, err)
		return
	}
	user, err := r.service.UpdateAvatar(c, middleware.CurrentUserID(c), src)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, user)
}

func (r *UserRoutes) UpdateCoverImage(c *gin.Context) {
	src, err := formFile(c, "coverImage", consts.MaxImageSize)
	if err != nil {
		response.Failed(c, err)
		return
	}
	user, err := r.service.UpdateCoverImage(c, middleware.CurrentUserID(c), src)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, user)
}

func (r *UserRoutes) ChannelProfile(c *gin.Context) {
	profile, err := r.service.GetChannelProfile(c, c.Param("username"), middleware.CurrentUserID(c))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, profile)
}

func (r *UserRoutes) WatchHistory(c *gin.Context) {
	history, err := r.service.GetWatchHistory(c, middleware.CurrentUserID(c), c.Query("page"), c.Query("limit"))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, history)
}

func (r *UserRoutes) setAuthCookies(c *gin.Context, session *models.AuthDto) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(consts.AccessTokenCookie, session.AccessToken, int(r.cookies.accessTTL.Seconds()), "/", "", r.cookies.secure, true)
	c.SetCookie(consts.RefreshTokenCookie, session.RefreshToken, int(r.cookies.refreshTTL.Seconds()), "/", "", r.cookies.secure, true)
}

func (r *UserRoutes) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(consts.AccessTokenCookie, "", -1, "/", "", r.cookies.secure, true)
	c.SetCookie(consts.RefreshTokenCookie, "", -1, "/", "", r.cookies.secure, true)
}
