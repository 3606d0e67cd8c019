package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	EventServer EventServerConfig `yaml:"event_server"`
	Watcher     WatcherConfig     `yaml:"watcher"`
	NATS        NATSConfig        `yaml:"nats"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
}

type EventServerConfig struct {
	URL             string            `yaml:"url"`
	ApiKey          string            `yaml:"api_key"`
	ApiKeyEnv       string            `yaml:"api_key_env"`
	Headers         map[string]string `yaml:"headers,omitempty"`
	HealthcheckPath string            `yaml:"healthcheck_path"`
	RequestTimeout  time.Duration     `yaml:"request_timeout"`
	RateLimit       RateLimitConfig   `yaml:"rate_limit"`
}

// RateLimitConfig throttles outbound calls. Zero requests_per_second leaves
// the client unthrottled.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

// ResolveApiKey returns the literal key when one is set, otherwise the value
// of the configured environment variable.
func (c EventServerConfig) ResolveApiKey() string {
	if c.ApiKey != "" {
		return c.ApiKey
	}
	if c.ApiKeyEnv != "" {
		return os.Getenv(c.ApiKeyEnv)
	}
	return ""
}

type WatcherConfig struct {
	Contracts    []string      `yaml:"contracts"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PageSize     int           `yaml:"page_size"`
	// Millisecond timestamp the first sweep starts from when a contract has
	// no saved cursor. Zero means from the beginning of the index.
	StartTimestamp int64 `yaml:"start_timestamp"`
	OnlyConfirmed  bool  `yaml:"only_confirmed"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if config.EventServer.URL == "" {
		return nil, fmt.Errorf("event_server.url is required")
	}

	// Set defaults
	if config.EventServer.HealthcheckPath == "" {
		config.EventServer.HealthcheckPath = "healthcheck"
	}
	if config.EventServer.RequestTimeout == 0 {
		config.EventServer.RequestTimeout = 30 * time.Second
	}
	if config.Watcher.PollInterval == 0 {
		config.Watcher.PollInterval = 10 * time.Second
	}
	if config.Watcher.PageSize == 0 {
		config.Watcher.PageSize = 200
	}
	if config.NATS.URL == "" {
		config.NATS.URL = "nats://127.0.0.1:4222"
	}
	if config.NATS.Stream == "" {
		config.NATS.Stream = "TRON_EVENTS"
	}
	if config.NATS.SubjectPrefix == "" {
		config.NATS.SubjectPrefix = "tron.events"
	}
	if config.Storage.Dir == "" {
		config.Storage.Dir = "./data/watcher"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}

	return &config, nil
}
