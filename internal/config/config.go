package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr           string        `mapstructure:"addr"`
	DatabaseDSN    string        `mapstructure:"database_dsn"`
	MigrationsPath string        `mapstructure:"migrations_path"`
	BaseURL        string        `mapstructure:"base_url"`
	Session        SessionConfig `mapstructure:",squash"`
	HTTP           HTTPConfig    `mapstructure:",squash"`
	OAuth          OAuthConfig   `mapstructure:",squash"`

	GlobalLeaderboardLimit int `mapstructure:"global_leaderboard_limit"`
}

type SessionConfig struct {
	Lifetime     time.Duration `mapstructure:"session_lifetime"`
	CookieSecure bool          `mapstructure:"session_cookie_secure"`
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `mapstructure:"http_read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"http_write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"http_idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"http_shutdown_timeout"`
}

type OAuthConfig struct {
	DiscordKey         string `mapstructure:"discord_key"`
	DiscordSecret      string `mapstructure:"discord_secret"`
	DiscordCallbackURL string `mapstructure:"discord_callback_url"`
	GoogleKey          string `mapstructure:"google_key"`
	GoogleSecret       string `mapstructure:"google_secret"`
	GoogleCallbackURL  string `mapstructure:"google_callback_url"`
	GithubKey          string `mapstructure:"github_key"`
	GithubSecret       string `mapstructure:"github_secret"`
	GithubCallbackURL  string `mapstructure:"github_callback_url"`
}

var defaults = map[string]any{
	"addr":                     ":8080",
	"database_dsn":             "aibuilders.db?_journal_mode=WAL&_foreign_keys=on",
	"migrations_path":          "migrations",
	"base_url":                 "http://localhost:8080",
	"session_lifetime":         24 * time.Hour,
	"session_cookie_secure":    false,
	"http_read_timeout":        10 * time.Second,
	"http_write_timeout":       15 * time.Second,
	"http_idle_timeout":        60 * time.Second,
	"http_shutdown_timeout":    10 * time.Second,
	"global_leaderboard_limit": 50,
	"discord_key":              "",
	"discord_secret":           "",
	"discord_callback_url":     "",
	"google_key":               "",
	"google_secret":            "",
	"google_callback_url":      "",
	"github_key":               "",
	"github_secret":            "",
	"github_callback_url":      "",
}

// Load reads configuration from the environment. Keys map to upper-case
// variable names, e.g. database_dsn is DATABASE_DSN.
func Load() (*Config, error) {
	vip := viper.New()
	for key, value := range defaults {
		vip.SetDefault(key, value)
		if err := vip.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN must not be empty")
	}
	if c.GlobalLeaderboardLimit <= 0 {
		return fmt.Errorf("GLOBAL_LEADERBOARD_LIMIT must be positive, got %d", c.GlobalLeaderboardLimit)
	}
	if c.Session.Lifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME must be positive")
	}
	return nil
}
