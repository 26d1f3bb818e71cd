// Package config implements the SessionServerConfig collaborator using
// viper: defaults, environment overrides, validation, and a live-reloaded
// kill switch.
package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PushConfig holds the push dispatch core's runtime tunables.
type PushConfig struct {
	ExecutorPoolSize                int  `mapstructure:"executor_pool_size"`
	ExecutorQueueSize               int  `mapstructure:"executor_queue_size"`
	DebouncingMillis                int  `mapstructure:"debouncing_millis"`
	RetryTimes                      int  `mapstructure:"retry_times"`
	RetryFirstDelayMillis           int  `mapstructure:"retry_first_delay_millis"`
	RetryIncrementDelayMillis       int  `mapstructure:"retry_increment_delay_millis"`
	ClientNodeExchangeTimeOutMillis int  `mapstructure:"client_node_exchange_timeout_millis"`
	StopPushSwitch                  bool `mapstructure:"stop_push_switch"`
}

// AdminConfig holds the ambient admin HTTP surface settings.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig holds zap verbosity settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the root configuration object, loaded from YAML + env by Load.
type Config struct {
	Push    PushConfig    `mapstructure:"push"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Logging LoggingConfig `mapstructure:"logging"`

	// stopPush mirrors Push.StopPushSwitch but is re-applied atomically on
	// every config file change (see watchStopPushSwitch) and on every admin
	// toggle, so it can flip without a process restart.
	stopPush atomic.Bool
}

// Load reads configuration from configPath (or ./configs/default.yaml,
// ./default.yaml if empty), applies PUSHCORE_-prefixed environment
// overrides, validates it, and, when logger is non-nil, starts watching the
// file for changes to stop_push_switch.
func Load(configPath string, logger *zap.Logger) (*Config, error) {
	v := viper.New()

	v.SetDefault("push.executor_pool_size", 8)
	v.SetDefault("push.executor_queue_size", 1000)
	v.SetDefault("push.debouncing_millis", 1000)
	v.SetDefault("push.retry_times", 2)
	v.SetDefault("push.retry_first_delay_millis", 500)
	v.SetDefault("push.retry_increment_delay_millis", 500)
	v.SetDefault("push.client_node_exchange_timeout_millis", 2000)
	v.SetDefault("push.stop_push_switch", false)
	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.addr", "127.0.0.1:8900")
	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix("PUSHCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.stopPush.Store(cfg.Push.StopPushSwitch)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if logger != nil {
		cfg.watchStopPushSwitch(v, logger)
	}

	return &cfg, nil
}

// watchStopPushSwitch installs a viper file-watch (backed by fsnotify) that
// re-applies push.stop_push_switch to the atomic flag on every change, so an
// operator can halt or resume dispatch without restarting the process.
func (c *Config) watchStopPushSwitch(v *viper.Viper, logger *zap.Logger) {
	v.OnConfigChange(func(e fsnotify.Event) {
		next := v.GetBool("push.stop_push_switch")
		c.stopPush.Store(next)
		logger.Info("config reloaded", zap.String("file", e.Name), zap.Bool("stop_push_switch", next))
	})
	v.WatchConfig()
}

// --- SessionServerConfig ---

func (c *Config) PushTaskExecutorPoolSize() int  { return c.Push.ExecutorPoolSize }
func (c *Config) PushTaskExecutorQueueSize() int { return c.Push.ExecutorQueueSize }
func (c *Config) PushDataTaskDebouncingMillis() time.Duration {
	return time.Duration(c.Push.DebouncingMillis) * time.Millisecond
}
func (c *Config) ClientNodeExchangeTimeOut() time.Duration {
	return time.Duration(c.Push.ClientNodeExchangeTimeOutMillis) * time.Millisecond
}
func (c *Config) PushTaskRetryTimes() int { return c.Push.RetryTimes }
func (c *Config) PushDataTaskRetryFirstDelayMillis() time.Duration {
	return time.Duration(c.Push.RetryFirstDelayMillis) * time.Millisecond
}
func (c *Config) PushDataTaskRetryIncrementDelayMillis() time.Duration {
	return time.Duration(c.Push.RetryIncrementDelayMillis) * time.Millisecond
}
func (c *Config) IsStopPushSwitch() bool { return c.stopPush.Load() }

// SetStopPushSwitch lets the admin server flip the switch at runtime without
// going through the config file.
func (c *Config) SetStopPushSwitch(v bool) { c.stopPush.Store(v) }
