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

package conn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/redis/go-redis/v9"
)

var (
	rdb       *redis.Client
	redisOnce sync.Once
)

// InitRedis connects to redis when it is enabled. GetRedis returns nil otherwise.
func InitRedis(ctx context.Context, cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	var err error
	redisOnce.Do(func() {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
			_ = client.Close()
			err = fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, pingErr)
			return
		}
		rdb = client
	})
	return err
}

func GetRedis() *redis.Client {
	return rdb
}

func CloseRedis() error {
	if rdb == nil {
		return nil
	}
	return rdb.Close()
}
