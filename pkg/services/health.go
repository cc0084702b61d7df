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

package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/masteryyh/vidtube/pkg/conn"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthDto struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis,omitempty"`
}

type HealthService struct {
	db  *gorm.DB
	rdb *redis.Client
}

var (
	healthService *HealthService
	healthOnce    sync.Once
)

// NewHealthService checks redis only when rdb is not nil.
func NewHealthService(db *gorm.DB, rdb *redis.Client) *HealthService {
	return &HealthService{db: db, rdb: rdb}
}

func GetHealthService() *HealthService {
	healthOnce.Do(func() {
		healthService = NewHealthService(conn.GetDB(), conn.GetRedis())
	})
	return healthService
}

func (s *HealthService) Check(ctx context.Context) (*HealthDto, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		slog.WarnContext(ctx, "database health check failed", "error", err)
		return nil, customerrors.ErrStoreUnavailable
	}

	result := &HealthDto{Status: "ok", Database: "up"}
	if s.rdb != nil {
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			slog.WarnContext(ctx, "redis health check failed", "error", err)
			result.Redis = "down"
		} else {
			result.Redis = "up"
		}
	}
	return result, nil
}
