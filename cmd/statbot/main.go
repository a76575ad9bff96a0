package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/timcuber37/wca-statbot/internal/bot"
	"github.com/timcuber37/wca-statbot/internal/config"
	"github.com/timcuber37/wca-statbot/internal/llm"
	"github.com/timcuber37/wca-statbot/internal/observability"
	"github.com/timcuber37/wca-statbot/internal/wcadb"
)

func main() {
	_ = godotenv.Load() // loads .env if present, silently ignores if not

	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Log, "statbot", os.Stderr)

	if cfg.Discord.Token == "" {
		logger.Error("DISCORD_TOKEN is not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := wcadb.Open(ctx, wcadb.Config{
		Driver:          cfg.DB.Driver,
		DSN:             wcadb.DSN(cfg.DB.Driver, cfg.DB.DSN, cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name),
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		AcquireTimeout:  cfg.DB.AcquireTimeout,
		QueryTimeout:    cfg.DB.QueryTimeout,
	})
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("connected to database",
		slog.String("driver", cfg.DB.Driver),
		slog.Int("max_open_conns", cfg.DB.MaxOpenConns))

	var provider llm.Provider
	if cfg.LLM.APIKey != "" {
		provider, err = llm.NewProvider(llm.Config{
			Provider: cfg.LLM.Provider,
			APIKey:   cfg.LLM.APIKey,
			Model:    cfg.LLM.Model,
			BaseURL:  cfg.LLM.BaseURL,
			Timeout:  cfg.LLM.Timeout,
		})
		if err != nil {
			logger.Error("initialize LLM provider", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("LLM provider initialized", slog.String("provider", provider.Name()))
	} else {
		logger.Warn("LLM not configured (set LLM_API_KEY to enable query translation)")
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Error("create Discord session", slog.Any("error", err))
		os.Exit(1)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	b := bot.New(bot.Config{
		Prefix:         cfg.Discord.Prefix,
		MaxResults:     cfg.Bot.MaxResults,
		FetchLimit:     cfg.Bot.FetchLimit,
		RequestTimeout: cfg.Bot.RequestTimeout,
	}, provider, store, logger)
	b.Register(session)

	if err := session.Open(); err != nil {
		logger.Error("open Discord connection", slog.Any("error", err))
		os.Exit(1)
	}
	defer session.Close()

	opsServer := &http.Server{
		Addr:    cfg.Ops.Addr,
		Handler: opsRouter(store),
	}
	go func() {
		logger.Info("ops server listening", slog.String("addr", cfg.Ops.Addr))
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server", slog.Any("error", err))
		}
	}()

	logger.Info("bot is running", slog.String("prefix", cfg.Discord.Prefix))
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = opsServer.Shutdown(shutdownCtx)
}

func opsRouter(store *wcadb.Store) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
