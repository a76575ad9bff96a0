// wca-import creates the local WCA database and loads the vendor SQL
// dump into it. Run it once after downloading the results export:
//
//	wca-import -file WCA_export.sql
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"github.com/timcuber37/wca-statbot/internal/config"
	"github.com/timcuber37/wca-statbot/internal/importer"
	"github.com/timcuber37/wca-statbot/internal/observability"
)

func main() {
	file := flag.String("file", "", "path to the WCA SQL dump")
	skipCreate := flag.Bool("skip-create", false, "do not create the database first")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: wca-import -file <dump.sql>")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Log, "wca-import", os.Stderr)

	if cfg.DB.Driver != "mysql" {
		logger.Error("the importer targets the MySQL export only", slog.String("driver", cfg.DB.Driver))
		os.Exit(1)
	}

	ctx := context.Background()

	if !*skipCreate {
		if err := createDatabase(ctx, cfg); err != nil {
			logger.Error("create database", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database ready", slog.String("name", cfg.DB.Name))
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("open dump file", slog.Any("error", err))
		os.Exit(1)
	}
	defer f.Close()

	logger.Info("importing dump", slog.String("file", *file))
	start := time.Now()
	n, err := importer.Run(ctx, db, f, logger)
	if err != nil {
		logger.Error("import failed", slog.Int("statements", n), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("import complete",
		slog.Int("statements", n),
		slog.Duration("elapsed", time.Since(start).Round(time.Second)))
}

// createDatabase connects without a database selected and issues the
// CREATE DATABASE.
func createDatabase(ctx context.Context, cfg config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/", cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return importer.CreateDatabase(ctx, db, cfg.DB.Name)
}
