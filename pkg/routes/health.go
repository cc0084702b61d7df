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
	"github.com/masteryyh/vidtube/pkg/services"
	"github.com/masteryyh/vidtube/pkg/utils/response"
)

type HealthRoutes struct {
	service *services.HealthService
}

var (
	healthRoutes *HealthRoutes
	healthOnce   sync.Once
)

func NewHealthRoutes(service *services.HealthService) *HealthRoutes {
	return &HealthRoutes{service: service}
}

func GetHealthRoutes() *HealthRoutes {
	healthOnce.Do(func() {
		healthRoutes = NewHealthRoutes(services.GetHealthService())
	})
	return healthRoutes
}

func (r *HealthRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/healthcheck", r.HealthCheck)
}

func (r *HealthRoutes) HealthCheck(c *gin.Context) {
	health, err := r.service.Check(c)
	if err != nil {
		response.Failed(c, err)
		return
	}
	response.OK(c, health)
}
