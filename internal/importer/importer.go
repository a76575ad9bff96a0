// Package importer loads the vendor-supplied WCA SQL dump into the
// local database. One-shot tooling, not part of the serving path.
package importer

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// progressEvery controls import progress logging.
const progressEvery = 500

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// CreateDatabase creates the target database if it does not exist. db
// must be connected without a database selected.
func CreateDatabase(ctx context.Context, db *sql.DB, name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid database name %q", name)
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(
		"CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", name))
	if err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// Run streams the dump from r and executes it statement by statement.
// It returns the number of statements executed.
func Run(ctx context.Context, db *sql.DB, r io.Reader, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	executed := 0
	err := SplitStatements(r, func(stmt string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", executed+1, err)
		}
		executed++
		if executed%progressEvery == 0 {
			logger.Info("import progress", slog.Int("statements", executed))
		}
		return nil
	})
	return executed, err
}

// SplitStatements reads SQL statements from a mysqldump-style stream
// and invokes fn for each. A ';' at end of line terminates a statement
// unless it falls inside a quoted string; full-line comments are
// skipped. That covers mysqldump output, which never wraps a statement
// terminator mid-line.
func SplitStatements(r io.Reader, fn func(stmt string) error) error {
	scanner := bufio.NewScanner(r)
	// INSERT lines in the WCA dump run to several megabytes.
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	var sb strings.Builder
	inString := false
	var quote byte

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if sb.Len() == 0 && !inString {
			if trimmed == "" || strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "#") {
				continue
			}
		}

		sb.WriteString(line)
		sb.WriteByte('\n')

		// Track quote state across the line so a ';' inside a string
		// literal does not end the statement.
		for i := 0; i < len(line); i++ {
			c := line[i]
			if inString {
				if c == '\\' {
					i++
					continue
				}
				if c == quote {
					// Doubled quote is an escaped quote, stay in string.
					if i+1 < len(line) && line[i+1] == quote {
						i++
						continue
					}
					inString = false
				}
				continue
			}
			if c == '\'' || c == '"' || c == '`' {
				inString = true
				quote = c
			}
		}

		if !inString && strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(sb.String())
			stmt = strings.TrimSuffix(stmt, ";")
			stmt = strings.TrimSpace(stmt)
			sb.Reset()
			if stmt == "" {
				continue
			}
			if err := fn(stmt); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read dump: %w", err)
	}
	if leftover := strings.TrimSpace(sb.String()); leftover != "" {
		return fmt.Errorf("dump ends with an unterminated statement")
	}
	return nil
}
