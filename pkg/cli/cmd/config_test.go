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
	"strings"
	"testing"

	"github.com/masteryyh/vidtube/pkg/config"
	"go.yaml.in/yaml/v3"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Port:  8000,
		Log:   &config.LogConfig{Level: "info", Format: "text"},
		DB:    &config.DatabaseConfig{Driver: config.DBDriverPostgres, Password: "pg-secret"},
		Redis: &config.RedisConfig{Addr: "localhost:6379"},
		Auth: &config.AuthConfig{
			AccessTokenSecret:  "access-secret",
			RefreshTokenSecret: "refresh-secret",
		},
		Media: &config.MediaConfig{
			Driver:     config.MediaDriverCloudinary,
			Cloudinary: &config.CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "cloud-secret"},
		},
	}
}

func TestRedactMasksSecrets(t *testing.T) {
	out, err := yaml.Marshal(redact(testConfig()))
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	text := string(out)

	for _, secret := range []string{"pg-secret", "access-secret", "refresh-secret", "cloud-secret"} {
		if strings.Contains(text, secret) {
			t.Fatalf("secret %q leaked:\n%s", secret, text)
		}
	}
	if !strings.Contains(text, "cloudName: demo") {
		t.Fatalf("expected non-secret fields to be kept:\n%s", text)
	}
}

func TestRedactLeavesInputUntouched(t *testing.T) {
	cfg := testConfig()
	masked := redact(cfg)

	if cfg.DB.Password != "pg-secret" || cfg.Auth.AccessTokenSecret != "access-secret" {
		t.Fatal("expected the original config to keep its secrets")
	}
	if cfg.Media.Cloudinary.APISecret != "cloud-secret" {
		t.Fatal("expected the original media config to keep its secret")
	}
	if masked.Redis.Password != "" {
		t.Fatalf("expected an empty password to stay empty, got %q", masked.Redis.Password)
	}
}
