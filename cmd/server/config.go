package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ShutdownTimeout bounds graceful shutdown of the admin server
const ShutdownTimeout = 10 * time.Second

// Config holds daemon settings read from the environment
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
	PolicyFile string `envconfig:"POLICY_FILE"`
	StoreName  string `envconfig:"STORE_NAME" default:"txpolicies"`

	// Redis persistence, disabled when RedisAddr is empty
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	RedisKeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"txpolicies"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"LOG_FILE"`
}

// LoadConfig reads Config from the environment
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
