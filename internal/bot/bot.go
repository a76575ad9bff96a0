// Package bot wires Discord messages through the question → SQL →
// execution → formatting pipeline.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/timcuber37/wca-statbot/internal/format"
	"github.com/timcuber37/wca-statbot/internal/llm"
	"github.com/timcuber37/wca-statbot/internal/observability"
	"github.com/timcuber37/wca-statbot/internal/schema"
	"github.com/timcuber37/wca-statbot/internal/wcadb"
)

// messageChunkSize keeps chunks under Discord's 2000-char message limit
// with headroom for the surrounding code fence.
const messageChunkSize = 1900

// User-safe replies. Internal detail goes to the log only.
const (
	replyThinking     = "🤔 Processing your question..."
	replyNoQuestion   = "Please provide a question! Usage: `%s query <your question>`"
	replyCannotAnswer = "❌ I couldn't turn that question into a database query. Try rephrasing it."
	replyQueryFailed  = "❌ Could not run the generated query."
	replyNoResults    = "❌ No results found for your query."
	replyBusy         = "❌ The database is busy right now, please try again in a moment."
	replyInternal     = "❌ An internal error occurred. Please try again."
)

// Executor runs a validated read-only statement. *wcadb.Store satisfies
// it; tests substitute a fake.
type Executor interface {
	Execute(ctx context.Context, query string, maxRows int) (wcadb.ResultSet, error)
}

// Messenger is the slice of discordgo.Session the bot sends through.
type Messenger interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Config holds the bot's tunables.
type Config struct {
	Prefix         string
	MaxResults     int
	FetchLimit     int
	RequestTimeout time.Duration
}

// Bot handles Discord commands against the WCA pipeline.
type Bot struct {
	cfg      Config
	provider llm.Provider
	exec     Executor
	logger   *slog.Logger
}

// New builds a Bot. The provider may be nil when no LLM is configured;
// query commands then fail with a user-safe message.
func New(cfg Config, provider llm.Provider, exec Executor, logger *slog.Logger) *Bot {
	if cfg.Prefix == "" {
		cfg.Prefix = "!wca"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 50
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 500
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{cfg: cfg, provider: provider, exec: exec, logger: logger}
}

// Register attaches the bot's handlers to a discordgo session.
func (b *Bot) Register(s *discordgo.Session) {
	s.AddHandler(b.HandleMessage)
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("connected to Discord",
			slog.String("user", r.User.String()),
			slog.Int("guilds", len(r.Guilds)))
	})
}

// HandleMessage dispatches one incoming Discord message. discordgo runs
// handlers on their own goroutines, so each command is an independent
// in-flight request.
func (b *Bot) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	command, rest, ok := ParseCommand(b.cfg.Prefix, m.Content)
	if !ok {
		return
	}

	switch command {
	case "query", "q", "ask":
		b.handleQuery(s, m.ChannelID, rest)
	case "help", "h":
		_, err := s.ChannelMessageSend(m.ChannelID, b.helpText())
		if err != nil {
			b.logger.Error("send help", slog.Any("error", err))
		}
	case "ping":
		latency := s.HeartbeatLatency().Round(time.Millisecond)
		if _, err := s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Pong! Latency: %s", latency)); err != nil {
			b.logger.Error("send pong", slog.Any("error", err))
		}
	}
}

// ParseCommand splits "<prefix> <command> [rest]" out of a message.
func ParseCommand(prefix, content string) (command, rest string, ok bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	after := content[len(prefix):]
	// Require a separator so "!wcahelp" is not treated as a command.
	if after == "" || !strings.HasPrefix(after, " ") {
		return "", "", false
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return "", "", false
	}
	command = strings.ToLower(fields[0])
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(after), fields[0]))
	return command, rest, true
}

func (b *Bot) handleQuery(msg Messenger, channelID, question string) {
	if strings.TrimSpace(question) == "" {
		b.send(msg, channelID, fmt.Sprintf(replyNoQuestion, b.cfg.Prefix))
		return
	}

	thinking, err := msg.ChannelMessageSend(channelID, replyThinking)
	if err != nil {
		b.logger.Error("send thinking message", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.RequestTimeout)
	defer cancel()

	text, table, outcome := b.Answer(ctx, question)
	observability.ObserveQuery(outcome)

	b.reply(msg, channelID, thinking.ID, text, table)
}

// Answer runs the full pipeline for one question and returns the reply
// text, whether it is a formatted table (and should be code-fenced), and
// the metrics outcome. All failures map to user-safe text.
func (b *Bot) Answer(ctx context.Context, question string) (string, bool, string) {
	logger := b.logger.With(slog.String("question", truncateForLog(question)))

	if b.provider == nil {
		logger.Warn("query received but no LLM provider is configured")
		return replyCannotAnswer, false, observability.OutcomeTranslation
	}

	start := time.Now()
	genResp, err := b.provider.GenerateSQL(ctx, llm.GenerateRequest{
		Question: question,
		Schema:   schema.Context(),
	})
	observability.ObserveStage("translate", time.Since(start))
	if err != nil {
		logger.Error("translation failed", slog.Any("error", err))
		return replyCannotAnswer, false, observability.OutcomeTranslation
	}
	if genResp.IsRefusal() {
		logger.Info("model declined question", slog.String("refusal", genResp.Refusal))
		return replyCannotAnswer, false, observability.OutcomeTranslation
	}
	if genResp.SQL == "" {
		logger.Error("model returned empty SQL")
		return replyCannotAnswer, false, observability.OutcomeTranslation
	}
	logger.Info("generated SQL", slog.String("sql", genResp.SQL), slog.Int("tokens", genResp.Tokens))

	start = time.Now()
	rs, err := b.exec.Execute(ctx, genResp.SQL, b.cfg.FetchLimit)
	observability.ObserveStage("execute", time.Since(start))
	if err != nil {
		switch {
		case errors.Is(err, wcadb.ErrUnsafeQuery):
			logger.Warn("generated statement rejected", slog.Any("error", err))
			return replyQueryFailed, false, observability.OutcomeUnsafe
		case errors.Is(err, wcadb.ErrPoolTimeout):
			logger.Warn("connection pool exhausted")
			return replyBusy, false, observability.OutcomeExecution
		default:
			var qe *wcadb.QueryError
			if errors.As(err, &qe) {
				logger.Error("query execution failed", slog.Any("error", qe.Err))
				return replyQueryFailed, false, observability.OutcomeExecution
			}
			logger.Error("unexpected pipeline error", slog.Any("error", err))
			return replyInternal, false, observability.OutcomeInternal
		}
	}
	observability.ObserveRows(len(rs.Rows))

	if len(rs.Rows) == 0 {
		return replyNoResults, false, observability.OutcomeOK
	}
	return format.Table(rs, b.cfg.MaxResults), true, observability.OutcomeOK
}

// reply edits the placeholder with the first chunk and sends the rest
// as follow-up messages, each inside a code fence.
func (b *Bot) reply(msg Messenger, channelID, thinkingID, text string, table bool) {
	chunks := ChunkMessage(text, messageChunkSize)
	for i, chunk := range chunks {
		content := chunk
		if table {
			content = "```\n" + chunk + "\n```"
		}
		var err error
		if i == 0 {
			_, err = msg.ChannelMessageEdit(channelID, thinkingID, content)
		} else {
			_, err = msg.ChannelMessageSend(channelID, content)
		}
		if err != nil {
			b.logger.Error("send reply", slog.Any("error", err))
			return
		}
	}
}

func (b *Bot) send(msg Messenger, channelID, content string) {
	if _, err := msg.ChannelMessageSend(channelID, content); err != nil {
		b.logger.Error("send message", slog.Any("error", err))
	}
}

// ChunkMessage splits text into pieces of at most size bytes, breaking
// on line boundaries where possible.
func ChunkMessage(text string, size int) []string {
	if size <= 0 || len(text) <= size {
		return []string{text}
	}
	var chunks []string
	for len(text) > size {
		cut, skip := size, 0
		// Only the single newline at the cut is consumed; joining the
		// chunks back with "\n" restores the original text.
		if i := strings.LastIndexByte(text[:size], '\n'); i > 0 {
			cut, skip = i, 1
		}
		chunks = append(chunks, text[:cut])
		text = text[cut+skip:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func (b *Bot) helpText() string {
	p := b.cfg.Prefix
	return fmt.Sprintf(`**WCA Statistics Bot Help**

**Commands:**
`+"`%s query <question>`"+` - Ask a question about WCA statistics
  Examples:
    - `+"`%s query What is the world record for 3x3?`"+`
    - `+"`%s query Who has the most world records?`"+`
    - `+"`%s query Show me the top 10 fastest times for 2x2`"+`

`+"`%s help`"+` - Show this help message
`+"`%s ping`"+` - Check if the bot is responsive

**Tips:**
- Be specific in your questions
- You can ask about records, rankings, competitions, and more
- The bot translates your question to SQL and queries a local copy of the WCA database`,
		p, p, p, p, p, p)
}

func truncateForLog(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
