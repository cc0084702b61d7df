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
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/masteryyh/vidtube/pkg/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db     *gorm.DB
	dbOnce sync.Once
)

// InitDB connects the process-wide database, retrying with exponential backoff
// until cfg.ConnectTimeout elapses.
func InitDB(ctx context.Context, cfg *config.DatabaseConfig, debug bool) error {
	var err error
	dbOnce.Do(func() {
		var dbConn *gorm.DB
		dbConn, err = connectWithRetry(ctx, cfg, debug)
		if err != nil {
			return
		}
		db = dbConn
	})
	return err
}

func connectWithRetry(ctx context.Context, cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = cfg.ConnectTimeout

	var dbConn *gorm.DB
	operation := func() error {
		conn, err := Open(cfg, debug)
		if err != nil {
			return err
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		sqlDB, err := conn.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := sqlDB.PingContext(pingCtx); err != nil {
			_ = sqlDB.Close()
			return err
		}
		dbConn = conn
		return nil
	}
	notify := func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "database not reachable, retrying", "error", err, "wait", wait, "driver", cfg.Driver)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return dbConn, nil
}

// Open opens a connection pool without verifying that the server is reachable.
func Open(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DBDriverSQLite:
		dialector = sqlite.Open(fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", cfg.Path))
	case config.DBDriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dbConn, err := gorm.Open(dialector, gormConfig(debug))
	if err != nil {
		return nil, err
	}

	sqlDB, err := dbConn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == config.DBDriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(max(2, cfg.MaxOpenConns/4))
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return dbConn, nil
}

// OpenMemory returns a migrated private in-memory sqlite database.
func OpenMemory(ctx context.Context) (*gorm.DB, error) {
	dbConn, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), gormConfig(false))
	if err != nil {
		return nil, err
	}
	sqlDB, err := dbConn.DB()
	if err != nil {
		return nil, err
	}
	// every pooled connection would see its own empty database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := Migrate(ctx, dbConn); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return dbConn, nil
}

func gormConfig(debug bool) *gorm.Config {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}
}

func Migrate(ctx context.Context, dbConn *gorm.DB) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := dbConn.WithContext(timeoutCtx).AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func GetDB() *gorm.DB {
	if db == nil {
		panic("database not initialized, call InitDB first")
	}
	return db
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
