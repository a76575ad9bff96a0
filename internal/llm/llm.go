// Package llm translates natural-language questions about WCA results
// into SQL via an external text-generation API.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider defines the interface for LLM integrations.
type Provider interface {
	// GenerateSQL converts a natural language question to SQL using the
	// given schema context.
	GenerateSQL(ctx context.Context, req GenerateRequest) (GenerateResponse, error)

	// Name returns the provider name for logging.
	Name() string
}

// GenerateRequest contains the input for SQL generation.
type GenerateRequest struct {
	Question  string // Natural language question from the user
	Schema    string // Rendered database schema context
	MaxTokens int    // Max tokens for the response (0 = default)
}

// GenerateResponse contains the result of SQL generation.
type GenerateResponse struct {
	SQL     string // Generated SQL statement (empty if refused)
	Refusal string // Model's explanation when the question has no SQL answer
	Tokens  int    // Tokens used
}

// IsRefusal reports whether the model declined to produce SQL.
func (r GenerateResponse) IsRefusal() bool {
	return r.Refusal != "" && r.SQL == ""
}

// Config holds LLM provider configuration.
type Config struct {
	Provider string // "anthropic" or "openai"
	APIKey   string
	Model    string
	BaseURL  string // overridable for proxies and compatible services
	Timeout  time.Duration
}

// NewProvider creates an LLM provider based on configuration.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.Provider == "" {
		cfg.Provider = "anthropic"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	switch cfg.Provider {
	case "anthropic":
		if cfg.Model == "" {
			cfg.Model = "claude-sonnet-4-20250514"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.anthropic.com/v1"
		}
		return NewAnthropicProvider(cfg), nil

	case "openai":
		if cfg.Model == "" {
			cfg.Model = "gpt-4o"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com/v1"
		}
		return NewOpenAIProvider(cfg), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: anthropic, openai)", cfg.Provider)
	}
}

// refusalSentinel is the prefix the prompt instructs the model to emit
// when a question cannot be answered with SQL over the WCA schema.
const refusalSentinel = "ERROR:"

// ParseResponse extracts a single SQL statement from raw model output.
// It strips markdown fences, detects the refusal sentinel, and keeps
// only the text up to the first statement terminator.
func ParseResponse(raw string) GenerateResponse {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(strings.ToUpper(trimmed), refusalSentinel) {
		return GenerateResponse{Refusal: strings.TrimSpace(trimmed[len(refusalSentinel):])}
	}

	sql := trimmed
	if strings.HasPrefix(sql, "```") {
		sql = strings.TrimPrefix(sql, "```sql")
		sql = strings.TrimPrefix(sql, "```SQL")
		sql = strings.TrimPrefix(sql, "```")
		if i := strings.Index(sql, "```"); i >= 0 {
			sql = sql[:i]
		}
	}
	sql = strings.TrimSpace(sql)

	// Some models append prose after the statement; cut at the first
	// terminator and let the executor enforce single-statement input.
	if i := strings.Index(sql, ";"); i >= 0 {
		sql = strings.TrimSpace(sql[:i])
	}

	return GenerateResponse{SQL: sql}
}
