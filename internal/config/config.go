package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Limiter  LimiterConfig  `mapstructure:"limiter"`
	Review   ReviewConfig   `mapstructure:"review"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" validate:"required"`
}

type AuthConfig struct {
	JWTKey    string        `mapstructure:"jwt_key" validate:"required,min=16"`
	AccessTTL time.Duration `mapstructure:"access_ttl" validate:"required"`
}

type LimiterConfig struct {
	MaxFails  int           `mapstructure:"max_fails" validate:"min=1"`
	BlockFor  time.Duration `mapstructure:"block_for" validate:"required"`
	ResetSpan time.Duration `mapstructure:"reset_span" validate:"required"`
}

// ReviewConfig tunes the scheduling policy. Durations use Go syntax
// ("10m", "24h"); multipliers are plain floats.
type ReviewConfig struct {
	LearningSteps      []time.Duration `mapstructure:"learning_steps"`
	GraduatingInterval time.Duration   `mapstructure:"graduating_interval" validate:"required"`
	EasyInterval       time.Duration   `mapstructure:"easy_interval" validate:"required"`
	GoodMultiplier     float64         `mapstructure:"good_multiplier" validate:"gt=1"`
	HardMultiplier     float64         `mapstructure:"hard_multiplier" validate:"gt=1"`
	EasyBonus          float64         `mapstructure:"easy_bonus" validate:"gte=1"`
	LapseMultiplier    float64         `mapstructure:"lapse_multiplier" validate:"gt=0,lte=1"`
	MinInterval        time.Duration   `mapstructure:"min_interval" validate:"required"`
	MaxInterval        time.Duration   `mapstructure:"max_interval" validate:"required"`
}

// Load reads the YAML config file, layers environment overrides on top
// and validates the result. An empty path falls back to the default
// search locations; a missing file is fine as long as the required
// values arrive through the environment.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/deck-keeper")
	}

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("auth.access_ttl", time.Hour)
	v.SetDefault("limiter.max_fails", 5)
	v.SetDefault("limiter.block_for", 15*time.Minute)
	v.SetDefault("limiter.reset_span", time.Hour)
	v.SetDefault("review.learning_steps", []time.Duration{time.Minute, 10 * time.Minute})
	v.SetDefault("review.graduating_interval", 24*time.Hour)
	v.SetDefault("review.easy_interval", 4*24*time.Hour)
	v.SetDefault("review.good_multiplier", 2.5)
	v.SetDefault("review.hard_multiplier", 1.2)
	v.SetDefault("review.easy_bonus", 1.3)
	v.SetDefault("review.lapse_multiplier", 0.5)
	v.SetDefault("review.min_interval", time.Minute)
	v.SetDefault("review.max_interval", 36500*24*time.Hour)

	for key, env := range map[string]string{
		"server.addr":  "DK_SERVER_ADDR",
		"database.dsn": "DK_DATABASE_DSN",
		"auth.jwt_key": "DK_JWT_KEY",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
