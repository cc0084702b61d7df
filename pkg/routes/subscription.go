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
	"github.com/masteryyh/vidtube/pkg/services"
	"github.com/masteryyh/vidtube/pkg/utils/response"
)

type SubscriptionRoutes struct {
	service *services.SubscriptionService
}

var (
	subscriptionRoutes *SubscriptionRoutes
	subscriptionOnce   sync.Once
)

func NewSubscriptionRoutes(service *services.SubscriptionService) *SubscriptionRoutes {
	return &SubscriptionRoutes{service: service}
}

func GetSubscriptionRoutes() *SubscriptionRoutes {
	subscriptionOnce.Do(func() {
		subscriptionRoutes = NewSubscriptionRoutes(services.GetSubscriptionService())
	})
	return subscriptionRoutes
}

func (r *SubscriptionRoutes) RegisterRoutes(router *gin.RouterGroup) {
	subscriptionGroup := router.Group("/subscriptions")
	{
		subscriptionGroup.POST("/c/:channelId", r.ToggleSubscription)
		subscriptionGroup.GET("/c/:channelId", r.ListSubscribers)
		subscriptionGroup.GET("/u/:subscriberId", r.ListSubscribedChannels)
	}
}

func (r *SubscriptionRoutes) ToggleSubscription(c *gin.Context) {
	channelID, ok := pathID(c, "channelId")
	if !ok {
		return
	}
	status, err := r.service.ToggleSubscription(c, middleware.CurrentUserID(c), channelID)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, status)
}

func (r *SubscriptionRoutes) ListSubscribers(c *gin.Context) {
	channelID, ok := pathID(c, "channelId")
	if !ok {
		return
	}
	subscribers, err := r.service.ListSubscribers(c, channelID, c.Query("page"), c.Query("limit"))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, subscribers)
}

func (r *SubscriptionRoutes) ListSubscribedChannels(c *gin.Context) {
	subscriberID, ok := pathID(c, "subscriberId")
	if !ok {
		return
	}
	channels, err := r.service.ListSubscribedChannels(c, subscriberID, c.Query("page"), c.Query("limit"))
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, channels)
}
