package config

import (
	"log/slog"
	"testing"
	"time"
)

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(mapLookup(nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Discord.Prefix != "!wca" {
		t.Fatalf("Discord.Prefix = %q", cfg.Discord.Prefix)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Fatalf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if cfg.DB.Driver != "mysql" {
		t.Fatalf("DB.Driver = %q", cfg.DB.Driver)
	}
	if cfg.DB.Port != 3306 {
		t.Fatalf("DB.Port = %d", cfg.DB.Port)
	}
	if cfg.DB.Name != "wca" {
		t.Fatalf("DB.Name = %q", cfg.DB.Name)
	}
	if cfg.DB.MaxOpenConns != 10 {
		t.Fatalf("DB.MaxOpenConns = %d", cfg.DB.MaxOpenConns)
	}
	if cfg.DB.AcquireTimeout != 5*time.Second {
		t.Fatalf("DB.AcquireTimeout = %v", cfg.DB.AcquireTimeout)
	}
	if cfg.Bot.MaxResults != 50 {
		t.Fatalf("Bot.MaxResults = %d", cfg.Bot.MaxResults)
	}
	if cfg.Bot.FetchLimit != 500 {
		t.Fatalf("Bot.FetchLimit = %d", cfg.Bot.FetchLimit)
	}
	if cfg.Log.Level != slog.LevelInfo {
		t.Fatalf("Log.Level = %v", cfg.Log.Level)
	}
	if cfg.Log.JSON {
		t.Fatal("Log.JSON should default to false")
	}
	if cfg.Ops.Addr != ":8080" {
		t.Fatalf("Ops.Addr = %q", cfg.Ops.Addr)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(mapLookup(map[string]string{
		"DISCORD_TOKEN":        "tok",
		"COMMAND_PREFIX":       "!cube",
		"LLM_PROVIDER":         "OpenAI",
		"LLM_MODEL":            "gpt-4o",
		"DB_DRIVER":            "postgres",
		"DB_DSN":               "postgres://localhost/wca",
		"DB_MAX_OPEN_CONNS":    "25",
		"QUERY_TIMEOUT":        "3s",
		"POOL_ACQUIRE_TIMEOUT": "250ms",
		"MAX_QUERY_RESULTS":    "20",
		"REQUEST_TIMEOUT":      "90s",
		"LOG_LEVEL":            "debug",
		"LOG_JSON":             "true",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Discord.Token != "tok" {
		t.Fatalf("Discord.Token = %q", cfg.Discord.Token)
	}
	if cfg.Discord.Prefix != "!cube" {
		t.Fatalf("Discord.Prefix = %q", cfg.Discord.Prefix)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("LLM.Provider = %q (should be lowercased)", cfg.LLM.Provider)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("DB.Driver = %q", cfg.DB.Driver)
	}
	if cfg.DB.DSN != "postgres://localhost/wca" {
		t.Fatalf("DB.DSN = %q", cfg.DB.DSN)
	}
	if cfg.DB.MaxOpenConns != 25 {
		t.Fatalf("DB.MaxOpenConns = %d", cfg.DB.MaxOpenConns)
	}
	if cfg.DB.QueryTimeout != 3*time.Second {
		t.Fatalf("DB.QueryTimeout = %v", cfg.DB.QueryTimeout)
	}
	if cfg.DB.AcquireTimeout != 250*time.Millisecond {
		t.Fatalf("DB.AcquireTimeout = %v", cfg.DB.AcquireTimeout)
	}
	if cfg.Bot.MaxResults != 20 {
		t.Fatalf("Bot.MaxResults = %d", cfg.Bot.MaxResults)
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Fatalf("Log.Level = %v", cfg.Log.Level)
	}
	if !cfg.Log.JSON {
		t.Fatal("Log.JSON = false, want true")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"DB_PORT":       "not-a-number",
		"QUERY_TIMEOUT": "fast",
		"LOG_LEVEL":     "loud",
		"LOG_JSON":      "maybe",
	}
	for key, value := range cases {
		if _, err := Load(mapLookup(map[string]string{key: value})); err == nil {
			t.Errorf("Load() with %s=%q should fail", key, value)
		}
	}
}
