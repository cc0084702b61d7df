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
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	configName = "vidtube"
	envPrefix  = "VIDTUBE"
)

type ConfigManager struct {
	mu        sync.RWMutex
	cfg       *AppConfig
	vipers    *viper.Viper
	listeners []func(*AppConfig)
}

func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		cfg:    &AppConfig{},
		vipers: viper.New(),
	}
}

func (cm *ConfigManager) GetConfig() *AppConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.cfg
}

func (cm *ConfigManager) Validate() error {
	return cm.GetConfig().Validate()
}

func (cm *ConfigManager) BindEnvVariables() {
	cm.vipers.SetEnvPrefix(envPrefix)
	cm.vipers.AutomaticEnv()
	cm.vipers.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	keys := []string{
		"port",
		"debug",
		"log.level",
		"db.driver",
		"db.host",
		"db.port",
		"db.username",
		"db.password",
		"db.database",
		"db.path",
		"redis.enabled",
		"redis.addr",
		"redis.password",
		"auth.accessTokenSecret",
		"auth.refreshTokenSecret",
		"media.driver",
		"media.cloudinary.cloudName",
		"media.cloudinary.apiKey",
		"media.cloudinary.apiSecret",
	}

	for _, key := range keys {
		env := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		cm.vipers.BindEnv(key, env)
	}
}

func (cm *ConfigManager) SetDefaults() {
	cm.vipers.SetDefault("port", 8000)
	cm.vipers.SetDefault("log.level", "info")
	cm.vipers.SetDefault("log.format", "text")
	cm.vipers.SetDefault("db.driver", "postgres")
	cm.vipers.SetDefault("db.host", "localhost")
	cm.vipers.SetDefault("db.port", 5432)
	cm.vipers.SetDefault("db.username", "postgres")
	cm.vipers.SetDefault("db.database", "vidtube")
	cm.vipers.SetDefault("auth.accessTokenTtl", "15m")
	cm.vipers.SetDefault("auth.refreshTokenTtl", "168h")
	cm.vipers.SetDefault("media.driver", "local")
	cm.vipers.SetDefault("cors.allowedOrigins", []string{"*"})
	cm.vipers.SetDefault("rateLimit.requests", 10)
	cm.vipers.SetDefault("rateLimit.window", "1m")
}

func (cm *ConfigManager) LoadConfig(configPaths ...string) error {
	cm.SetDefaults()

	cm.vipers.SetConfigName(configName)
	cm.vipers.SetConfigType("yaml")

	defaultPaths := []string{
		".",
		"./config",
		"./configs",
		"/etc/vidtube",
		"$HOME/.vidtube",
	}

	for _, path := range append(configPaths, defaultPaths...) {
		cm.vipers.AddConfigPath(path)
	}

	if err := cm.vipers.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		slog.Warn("no config file found, using defaults and environment")
	} else {
		slog.Info("using config file", "path", cm.vipers.ConfigFileUsed())
	}

	if err := cm.mergeAdditionalConfigs(); err != nil {
		return err
	}

	cfg := &AppConfig{}
	if err := cm.vipers.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	cm.mu.Lock()
	cm.cfg = cfg
	cm.mu.Unlock()
	return nil
}

// OnChange registers fn to run with the new config after the config file changed and
// the result validated. Invalid edits are logged and ignored.
func (cm *ConfigManager) OnChange(fn func(*AppConfig)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.listeners = append(cm.listeners, fn)
}

// Watch starts watching the loaded config file. It is a no-op without a config file.
func (cm *ConfigManager) Watch() {
	if cm.vipers.ConfigFileUsed() == "" {
		return
	}

	cm.vipers.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cm.reload(e.Name)
	})
	cm.vipers.WatchConfig()
}

func (cm *ConfigManager) reload(name string) {
	cfg := &AppConfig{}
	if err := cm.vipers.Unmarshal(cfg); err != nil {
		slog.Error("failed to decode changed config", "error", err, "path", name)
		return
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("changed config is invalid, keeping the previous one", "error", err, "path", name)
		return
	}

	cm.mu.Lock()
	cm.cfg = cfg
	listeners := append([]func(*AppConfig){}, cm.listeners...)
	cm.mu.Unlock()

	slog.Info("config reloaded", "path", name)
	for _, fn := range listeners {
		fn(cfg)
	}
}

func (cm *ConfigManager) mergeAdditionalConfigs() error {
	configFile := cm.vipers.ConfigFileUsed()
	if configFile == "" {
		return nil
	}

	fragments, err := cm.discoverFragments(configFile)
	if err != nil {
		return err
	}

	includes, err := cm.resolveIncludes(filepath.Dir(configFile))
	if err != nil {
		return err
	}

	seen := map[string]struct{}{filepath.Clean(configFile): {}}
	for _, fragment := range append(fragments, includes...) {
		clean := filepath.Clean(fragment)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}

		if err := cm.mergeConfigFile(clean); err != nil {
			return err
		}
		slog.Info("merged config fragment", "path", clean)
	}
	return nil
}

// discoverFragments finds vidtube.<anything>.yaml next to the main file, sorted by name.
func (cm *ConfigManager) discoverFragments(configFile string) ([]string, error) {
	dir := filepath.Dir(configFile)
	base := strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))

	var matches []string
	for _, ext := range []string{"yaml", "yml"} {
		pattern := filepath.Join(dir, fmt.Sprintf("%s.*.%s", base, ext))
		globbed, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob pattern %q failed: %w", pattern, err)
		}
		sort.Strings(globbed)
		matches = append(matches, globbed...)
	}
	return matches, nil
}

func (cm *ConfigManager) resolveIncludes(baseDir string) ([]string, error) {
	var resolved []string
	for _, inc := range cm.vipers.GetStringSlice("include") {
		if strings.TrimSpace(inc) == "" {
			continue
		}

		candidate := inc
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(baseDir, candidate)
		}

		info, err := os.Stat(candidate)
		if err != nil {
			return nil, fmt.Errorf("include file %q not accessible: %w", candidate, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("include path %q is a directory", candidate)
		}
		resolved = append(resolved, candidate)
	}
	return resolved, nil
}

func (cm *ConfigManager) mergeConfigFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config fragment %q: %w", path, err)
	}

	fragment := viper.New()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		fragment.SetConfigType("yaml")
	case ".json":
		fragment.SetConfigType("json")
	default:
		return fmt.Errorf("unsupported config fragment type %q for file %s", ext, path)
	}

	if err := fragment.ReadConfig(bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to parse config fragment %q: %w", path, err)
	}
	if err := cm.vipers.MergeConfigMap(fragment.AllSettings()); err != nil {
		return fmt.Errorf("failed to merge config fragment %q: %w", path, err)
	}
	return nil
}

var (
	globalConfigManager *ConfigManager
	once                sync.Once
)

func Init(files ...string) error {
	var err error
	once.Do(func() {
		globalConfigManager = NewConfigManager()
		globalConfigManager.BindEnvVariables()

		if err = globalConfigManager.LoadConfig(files...); err != nil {
			return
		}

		err = globalConfigManager.Validate()
	})
	return err
}

func GetConfigManager() *ConfigManager {
	return globalConfigManager
}
