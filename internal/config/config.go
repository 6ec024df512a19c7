package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type GatewayConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type WeatherConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	AuthToken string `mapstructure:"auth_token"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
	Seed   bool   `mapstructure:"seed"`
}

type LimitsConfig struct {
	ToolTimeout    time.Duration `mapstructure:"tool_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type Config struct {
	Gateway  GatewayConfig `mapstructure:"gateway"`
	Weather  WeatherConfig `mapstructure:"weather"`
	Server   ServerConfig  `mapstructure:"server"`
	Storage  StorageConfig `mapstructure:"storage"`
	Limits   LimitsConfig  `mapstructure:"limits"`
	LogLevel string        `mapstructure:"log_level"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("kisan")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.kisan")

	v.SetDefault("gateway.base_url", "https://ai.gateway.lovable.dev/v1")
	v.SetDefault("gateway.api_key", "${KISAN_GATEWAY_API_KEY}")
	v.SetDefault("gateway.model", "google/gemini-3-flash-preview")
	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather.api_key", "${OPENWEATHERMAP_API_KEY}")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.auth_token", "${KISAN_AUTH_TOKEN}")
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".kisan", "kisan.db"))
	v.SetDefault("storage.seed", true)
	v.SetDefault("limits.tool_timeout", 10*time.Second)
	v.SetDefault("limits.request_timeout", 2*time.Minute)
	v.SetDefault("log_level", "info")

	// Config file is optional; defaults plus environment expansion are
	// enough to run.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Gateway.APIKey = expandEnv(cfg.Gateway.APIKey)
	cfg.Weather.APIKey = expandEnv(cfg.Weather.APIKey)
	cfg.Server.AuthToken = expandEnv(cfg.Server.AuthToken)

	return &cfg, nil
}

// expandEnv resolves ${VAR} references so API keys can live in the
// environment rather than the config file.
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	return s
}
