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
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/masteryyh/vidtube/pkg/conn"
	"github.com/masteryyh/vidtube/pkg/middleware"
	"github.com/masteryyh/vidtube/pkg/ratelimit"
	"github.com/masteryyh/vidtube/pkg/services"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\.]{3,32}$`)

type V1Routes struct {
	healthRoutes       *HealthRoutes
	userRoutes         *UserRoutes
	videoRoutes        *VideoRoutes
	commentRoutes      *CommentRoutes
	tweetRoutes        *TweetRoutes
	likeRoutes         *LikeRoutes
	playlistRoutes     *PlaylistRoutes
	subscriptionRoutes *SubscriptionRoutes

	authRequired gin.HandlerFunc
	rateLimit    gin.HandlerFunc
}

var (
	v1Routes *V1Routes
	v1Once   sync.Once
)

// Dependencies lists what NewV1Routes wires together.
type Dependencies struct {
	Health        *services.HealthService
	Users         *services.UserService
	Videos        *services.VideoService
	Comments      *services.CommentService
	Tweets        *services.TweetService
	Likes         *services.LikeService
	Playlists     *services.PlaylistService
	Subscriptions *services.SubscriptionService
	Limiter       ratelimit.Limiter
	SecureCookies bool
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewV1Routes(deps *Dependencies) *V1Routes {
	return &V1Routes{
		healthRoutes:       NewHealthRoutes(deps.Health),
		userRoutes:         NewUserRoutes(deps.Users, deps.SecureCookies, deps.AccessTTL, deps.RefreshTTL),
		videoRoutes:        NewVideoRoutes(deps.Videos),
		commentRoutes:      NewCommentRoutes(deps.Comments),
		tweetRoutes:        NewTweetRoutes(deps.Tweets),
		likeRoutes:         NewLikeRoutes(deps.Likes),
		playlistRoutes:     NewPlaylistRoutes(deps.Playlists),
		subscriptionRoutes: NewSubscriptionRoutes(deps.Subscriptions),
		authRequired:       middleware.AuthMiddleware(deps.Users),
		rateLimit:          middleware.RateLimitMiddleware(deps.Limiter),
	}
}

func GetV1Routes() *V1Routes {
	v1Once.Do(func() {
		cfg := config.GetConfigManager().GetConfig()
		v1Routes = &V1Routes{
			healthRoutes:       GetHealthRoutes(),
			userRoutes:         GetUserRoutes(),
			videoRoutes:        GetVideoRoutes(),
			commentRoutes:      GetCommentRoutes(),
			tweetRoutes:        GetTweetRoutes(),
			likeRoutes:         GetLikeRoutes(),
			playlistRoutes:     GetPlaylistRoutes(),
			subscriptionRoutes: GetSubscriptionRoutes(),
			authRequired:       middleware.AuthMiddleware(services.GetUserService()),
			rateLimit:          middleware.RateLimitMiddleware(ratelimit.New(cfg.RateLimit, conn.GetRedis())),
		}
	})
	return v1Routes
}

// RegisterRoutes mounts every resource. Only health, register, login and token
// refresh are reachable without an access token.
func (r *V1Routes) RegisterRoutes(routerGroup *gin.RouterGroup) error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRegex.MatchString(fl.Field().String())
		}); err != nil {
			return err
		}
	}

	protected := routerGroup.Group("", r.authRequired)

	r.healthRoutes.RegisterRoutes(routerGroup)
	r.userRoutes.RegisterRoutes(routerGroup, protected, r.rateLimit)
	r.videoRoutes.RegisterRoutes(protected)
	r.commentRoutes.RegisterRoutes(protected)
	r.tweetRoutes.RegisterRoutes(protected)
	r.likeRoutes.RegisterRoutes(protected)
	r.playlistRoutes.RegisterRoutes(protected)
	r.subscriptionRoutes.RegisterRoutes(protected)
	return nil
}
