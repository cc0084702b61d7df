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


package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/masteryyh/vidtube/pkg/conn"
	"github.com/masteryyh/vidtube/pkg/logging"
	"github.com/masteryyh/vidtube/pkg/media"
	"github.com/masteryyh/vidtube/pkg/middleware"
	"github.com/masteryyh/vidtube/pkg/routes"
	"github.com/masteryyh/vidtube/pkg/utils/safe"
	"github.com/masteryyh/vidtube/pkg/utils/signal"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		return runServer(migrate)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "migrate the database schema before serving")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}

func runServer(migrate bool) error {
	slog.Info("starting vidtube server...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	config.GetConfigManager().OnChange(func(c *config.AppConfig) {
		logging.SetLevel(c.Log.Level)
	})
	config.GetConfigManager().Watch()

	baseCtx, cancel := signal.SetupContext()
	defer cancel()

	slog.InfoContext(baseCtx, "initializing database connection...", "driver", cfg.DB.Driver)
	if err := conn.InitDB(baseCtx, cfg.DB, cfg.Debug); err != nil {
		return err
	}
	defer func() {
		if err := conn.CloseDB(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()
	if migrate {
		if err := conn.Migrate(baseCtx, conn.GetDB()); err != nil {
			return err
		}
	}

	if err := conn.InitRedis(baseCtx, cfg.Redis); err != nil {
		return err
	}
	defer func() {
		if err := conn.CloseRedis(); err != nil {
			slog.Error("failed to close redis", "error", err)
		}
	}()

	if err := media.InitStore(cfg.Media); err != nil {
		return fmt.Errorf("failed to initialize media store: %w", err)
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	safe.GoSafeWithCtx("http-server", baseCtx, func(ctx context.Context) {
		slog.InfoContext(ctx, "starting http server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "failed to start http server", "error", err)
			cancel()
		}
	})

	<-baseCtx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func newEngine(cfg *config.AppConfig) (*gin.Engine, error) {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.ContextWithFallback = true
	engine.Use(middleware.RecoveryMiddleware())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	// Absolute public URLs point at another host serving the directory.
	if cfg.Media.Driver == config.MediaDriverLocal && strings.HasPrefix(cfg.Media.Local.PublicURL, "/") {
		engine.Static(cfg.Media.Local.PublicURL, cfg.Media.Local.Dir)
	}

	apiRoute := engine.Group("/api")
	if err := routes.GetV1Routes().RegisterRoutes(apiRoute.Group("/v1")); err != nil {
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}
	return engine, nil
}
