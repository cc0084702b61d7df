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

package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// AppConfig is the config definition for this app
type AppConfig struct {
	// Debug mode enabled or not
	Debug bool `mapstructure:"debug" yaml:"debug"`

	// Port of the HTTP server
	Port int `mapstructure:"port" yaml:"port"`

	// Log configuration, the level is applied again when the config file changes
	Log *LogConfig `mapstructure:"log" yaml:"log"`

	// DB configuration
	DB *DatabaseConfig `mapstructure:"db" yaml:"db"`

	// Redis configuration, used by the rate limiter when enabled
	Redis *RedisConfig `mapstructure:"redis" yaml:"redis"`

	// Auth configuration for access and refresh tokens
	Auth *AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Media configuration for uploaded videos and images
	Media *MediaConfig `mapstructure:"media" yaml:"media"`

	// CORS configuration
	CORS *CORSConfig `mapstructure:"cors" yaml:"cors"`

	// RateLimit configuration for login and register
	RateLimit *RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`

	// Format is either text or json
	Format string `mapstructure:"format" yaml:"format"`
}

func (c *LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *LogConfig) Validate() error {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	if c.Level == "" {
		c.Level = "info"
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Level) {
		return fmt.Errorf("unsupported log level %q", c.Level)
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("unsupported log format %q", c.Format)
	}
	return nil
}

type DBDriver string

const (
	DBDriverPostgres DBDriver = "postgres"
	DBDriverSQLite   DBDriver = "sqlite"
)

// DatabaseConfig is the config definition for database connection, postgresql for production
// and sqlite for local development
type DatabaseConfig struct {
	// Driver is postgres or sqlite
	Driver DBDriver `mapstructure:"driver" yaml:"driver"`

	// Host of the database server
	Host string `mapstructure:"host" yaml:"host"`

	// Port of the database server
	Port int `mapstructure:"port" yaml:"port"`

	// Username for database authentication
	Username string `mapstructure:"username" yaml:"username"`

	// Password for database authentication
	Password string `mapstructure:"password" yaml:"password"`

	// Database name
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode passed to postgres
	SSLMode string `mapstructure:"sslMode" yaml:"sslMode"`

	// Path of the sqlite database file
	Path string `mapstructure:"path" yaml:"path"`

	// MaxOpenConns of the connection pool
	MaxOpenConns int `mapstructure:"maxOpenConns" yaml:"maxOpenConns"`

	// ConnectTimeout bounds the startup connection attempts
	ConnectTimeout time.Duration `mapstructure:"connectTimeout" yaml:"connectTimeout"`
}

func (c *DatabaseConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DBDriverPostgres
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 20
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 30 * time.Second
	}

	switch c.Driver {
	case DBDriverSQLite:
		if c.Path == "" {
			c.Path = "vidtube.db"
		}
		return nil
	case DBDriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}

	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = 5432
	}
	if c.Username == "" {
		c.Username = "postgres"
	}
	if c.Password == "" {
		return fmt.Errorf("database password is required")
	}
	if c.Database == "" {
		c.Database = "vidtube"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return nil
}

// DSN returns the postgres connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	// Enabled switches the rate limiter to redis, otherwise an in-process limiter is used
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Addr of the redis server
	Addr string `mapstructure:"addr" yaml:"addr"`

	// Password for redis authentication
	Password string `mapstructure:"password" yaml:"password"`

	// DB index
	DB int `mapstructure:"db" yaml:"db"`
}

func (c *RedisConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		c.Addr = "127.0.0.1:6379"
	}
	if c.DB < 0 {
		return fmt.Errorf("invalid redis db index %d", c.DB)
	}
	return nil
}

// AuthConfig is the config definition for token issuance
type AuthConfig struct {
	// AccessTokenSecret signs access tokens
	AccessTokenSecret string `mapstructure:"accessTokenSecret" yaml:"accessTokenSecret"`

	// RefreshTokenSecret signs refresh tokens
	RefreshTokenSecret string `mapstructure:"refreshTokenSecret" yaml:"refreshTokenSecret"`

	// AccessTokenTTL is the lifetime of an access token
	AccessTokenTTL time.Duration `mapstructure:"accessTokenTtl" yaml:"accessTokenTtl"`

	// RefreshTokenTTL is the lifetime of a refresh token
	RefreshTokenTTL time.Duration `mapstructure:"refreshTokenTtl" yaml:"refreshTokenTtl"`

	// SecureCookies marks the token cookies as Secure
	SecureCookies bool `mapstructure:"secureCookies" yaml:"secureCookies"`
}

func (c *AuthConfig) Validate() error {
	if c.AccessTokenSecret == "" {
		return fmt.Errorf("access token secret is required")
	}
	if c.RefreshTokenSecret == "" {
		return fmt.Errorf("refresh token secret is required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return fmt.Errorf("access and refresh token secrets must differ")
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return nil
}

type MediaDriver string

const (
	MediaDriverCloudinary MediaDriver = "cloudinary"
	MediaDriverLocal      MediaDriver = "local"
)

type MediaConfig struct {
	// Driver is cloudinary or local
	Driver MediaDriver `mapstructure:"driver" yaml:"driver"`

	// Timeout bounds every call to the media host
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	Cloudinary *CloudinaryConfig `mapstructure:"cloudinary" yaml:"cloudinary"`

	Local *LocalMediaConfig `mapstructure:"local" yaml:"local"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloudName" yaml:"cloudName"`
	APIKey    string `mapstructure:"apiKey" yaml:"apiKey"`
	APISecret string `mapstructure:"apiSecret" yaml:"apiSecret"`

	// BaseURL of the upload API, overridable for compatible hosts
	BaseURL string `mapstructure:"baseUrl" yaml:"baseUrl"`
}

type LocalMediaConfig struct {
	// Dir where files are written
	Dir string `mapstructure:"dir" yaml:"dir"`

	// PublicURL is the prefix of the URLs handed out for stored files
	PublicURL string `mapstructure:"publicUrl" yaml:"publicUrl"`
}

func (c *MediaConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = MediaDriverLocal
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}

	switch c.Driver {
	case MediaDriverCloudinary:
		if c.Cloudinary == nil || c.Cloudinary.CloudName == "" || c.Cloudinary.APIKey == "" || c.Cloudinary.APISecret == "" {
			return fmt.Errorf("cloudinary cloudName, apiKey and apiSecret are required")
		}
		if c.Cloudinary.BaseURL == "" {
			c.Cloudinary.BaseURL = "https://api.cloudinary.com/v1_1"
		}
	case MediaDriverLocal:
		if c.Local == nil {
			c.Local = &LocalMediaConfig{}
		}
		if c.Local.Dir == "" {
			c.Local.Dir = "./data/media"
		}
		if c.Local.PublicURL == "" {
			c.Local.PublicURL = "/media"
		}
		c.Local.PublicURL = strings.TrimSuffix(c.Local.PublicURL, "/")
	default:
		return fmt.Errorf("unsupported media driver %q", c.Driver)
	}
	return nil
}

type CORSConfig struct {
	// AllowedOrigins, "*" allows any origin
	AllowedOrigins []string `mapstructure:"allowedOrigins" yaml:"allowedOrigins"`
}

type RateLimitConfig struct {
	// Enabled switches throttling of login and register on
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Requests allowed per Window and client address
	Requests int `mapstructure:"requests" yaml:"requests"`

	// Window of the fixed window counter
	Window time.Duration `mapstructure:"window" yaml:"window"`
}

func (c *RateLimitConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if c.Requests <= 0 {
		c.Requests = 10
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	return nil
}

func (c *AppConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Port)
	}

	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}

	if c.DB == nil {
		return fmt.Errorf("database config is required")
	}
	if err := c.DB.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("invalid redis config: %w", err)
	}

	if c.Auth == nil {
		return fmt.Errorf("auth config is required")
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}

	if c.Media == nil {
		c.Media = &MediaConfig{}
	}
	if err := c.Media.Validate(); err != nil {
		return fmt.Errorf("invalid media config: %w", err)
	}

	if c.CORS == nil {
		c.CORS = &CORSConfig{}
	}

	if c.RateLimit != nil && c.RateLimit.Enabled && (c.Redis == nil || !c.Redis.Enabled) {
		slog.Warn("rate limit enabled without redis, counters are kept per process")
	}
	return c.RateLimit.Validate()
}
