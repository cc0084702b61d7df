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
	"fmt"
	"log/slog"
	"os"

	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/masteryyh/vidtube/pkg/logging"
	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:          "vidtube",
	Short:        "Video sharing backend",
	Long:         `Serves the vidtube REST API for users, videos, comments, likes, playlists, subscriptions and tweets`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", "", "directory searched first for vidtube.yaml")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the app config and installs the process-wide logger from it.
func loadConfig() (*config.AppConfig, error) {
	var dirs []string
	if configDir != "" {
		dirs = append(dirs, configDir)
	}
	if err := config.Init(dirs...); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg := config.GetConfigManager().GetConfig()
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.Debug("configuration loaded", "port", cfg.Port, "db", cfg.DB.Driver, "media", cfg.Media.Driver)
	return cfg, nil
}
