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

	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

const redacted = "******"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after defaults, config files and environment variables were merged. Secrets are redacted`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(redact(cfg))
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// redact returns a copy of cfg with every credential masked. The input is left untouched.
func redact(cfg *config.AppConfig) *config.AppConfig {
	out := *cfg
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}

	if cfg.DB != nil {
		db := *cfg.DB
		mask(&db.Password)
		out.DB = &db
	}
	if cfg.Redis != nil {
		r := *cfg.Redis
		mask(&r.Password)
		out.Redis = &r
	}
	if cfg.Auth != nil {
		a := *cfg.Auth
		mask(&a.AccessTokenSecret)
		mask(&a.RefreshTokenSecret)
		out.Auth = &a
	}
	if cfg.Media != nil {
		m := *cfg.Media
		if cfg.Media.Cloudinary != nil {
			c := *cfg.Media.Cloudinary
			mask(&c.APISecret)
			m.Cloudinary = &c
		}
		out.Media = &m
	}
	return &out
}
