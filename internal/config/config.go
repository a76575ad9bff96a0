// Package config loads bot configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// LookupFunc resolves an environment variable, os.LookupEnv-shaped so
// tests can supply a map instead of mutating the real environment.
type LookupFunc func(string) (string, bool)

// Config is the full configuration for the statbot binaries.
type Config struct {
	Discord DiscordConfig
	LLM     LLMConfig
	DB      DBConfig
	Bot     BotConfig
	Ops     OpsConfig
	Log     LogConfig
}

type DiscordConfig struct {
	Token  string
	Prefix string
}

type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

type DBConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AcquireTimeout  time.Duration
	QueryTimeout    time.Duration
}

type BotConfig struct {
	MaxResults     int
	FetchLimit     int
	RequestTimeout time.Duration
}

type OpsConfig struct {
	Addr string
}

type LogConfig struct {
	Level slog.Level
	JSON  bool
}

// Load reads configuration through lookup, applying defaults for
// anything unset. It fails only on values that cannot be parsed.
func Load(lookup LookupFunc) (Config, error) {
	var cfg Config
	var err error

	cfg.Discord.Token = getString(lookup, "DISCORD_TOKEN", "")
	cfg.Discord.Prefix = getString(lookup, "COMMAND_PREFIX", "!wca")

	cfg.LLM.Provider = strings.ToLower(getString(lookup, "LLM_PROVIDER", "anthropic"))
	cfg.LLM.APIKey = getString(lookup, "LLM_API_KEY", "")
	cfg.LLM.Model = getString(lookup, "LLM_MODEL", "")
	cfg.LLM.BaseURL = getString(lookup, "LLM_BASE_URL", "")
	if cfg.LLM.Timeout, err = getDuration(lookup, "TRANSLATE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	cfg.DB.Driver = getString(lookup, "DB_DRIVER", "mysql")
	cfg.DB.DSN = getString(lookup, "DB_DSN", "")
	cfg.DB.Host = getString(lookup, "DB_HOST", "localhost")
	if cfg.DB.Port, err = getInt(lookup, "DB_PORT", 3306); err != nil {
		return Config{}, err
	}
	cfg.DB.User = getString(lookup, "DB_USER", "root")
	cfg.DB.Password = getString(lookup, "DB_PASSWORD", "")
	cfg.DB.Name = getString(lookup, "DB_NAME", "wca")
	if cfg.DB.MaxOpenConns, err = getInt(lookup, "DB_MAX_OPEN_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.DB.MaxIdleConns, err = getInt(lookup, "DB_MAX_IDLE_CONNS", 2); err != nil {
		return Config{}, err
	}
	if cfg.DB.ConnMaxLifetime, err = getDuration(lookup, "DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.DB.AcquireTimeout, err = getDuration(lookup, "POOL_ACQUIRE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.DB.QueryTimeout, err = getDuration(lookup, "QUERY_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.Bot.MaxResults, err = getInt(lookup, "MAX_QUERY_RESULTS", 50); err != nil {
		return Config{}, err
	}
	if cfg.Bot.FetchLimit, err = getInt(lookup, "FETCH_LIMIT", 500); err != nil {
		return Config{}, err
	}
	if cfg.Bot.RequestTimeout, err = getDuration(lookup, "REQUEST_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}

	cfg.Ops.Addr = getString(lookup, "ADDR", ":8080")

	if cfg.Log.Level, err = getLogLevel(lookup, "LOG_LEVEL", slog.LevelInfo); err != nil {
		return Config{}, err
	}
	if cfg.Log.JSON, err = getBool(lookup, "LOG_JSON", false); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getString(lookup LookupFunc, key, fallback string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(lookup LookupFunc, key string, fallback int) (int, error) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getBool(lookup LookupFunc, key string, fallback bool) (bool, error) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getDuration(lookup LookupFunc, key string, fallback time.Duration) (time.Duration, error) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getLogLevel(lookup LookupFunc, key string, fallback slog.Level) (slog.Level, error) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("parse %s: unknown level %q", key, v)
	}
}
