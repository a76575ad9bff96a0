package importer

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func collect(t *testing.T, dump string) []string {
	t.Helper()
	var stmts []string
	err := SplitStatements(strings.NewReader(dump), func(stmt string) error {
		stmts = append(stmts, stmt)
		return nil
	})
	if err != nil {
		t.Fatalf("SplitStatements() error = %v", err)
	}
	return stmts
}

func TestSplitStatementsBasic(t *testing.T) {
	dump := `-- MySQL dump 10.13
-- Host: localhost    Database: wca

DROP TABLE IF EXISTS ` + "`events`" + `;
CREATE TABLE ` + "`events`" + ` (
  ` + "`id`" + ` varchar(6) NOT NULL,
  ` + "`name`" + ` varchar(54) NOT NULL
);
INSERT INTO events VALUES ('333','3x3x3 Cube'),('222','2x2x2 Cube');
`
	stmts := collect(t, dump)
	if len(stmts) != 3 {
		t.Fatalf("len(stmts) = %d, want 3: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "DROP TABLE") {
		t.Fatalf("stmts[0] = %q", stmts[0])
	}
	if !strings.Contains(stmts[1], "varchar(54)") {
		t.Fatalf("stmts[1] = %q", stmts[1])
	}
	if strings.HasSuffix(stmts[2], ";") {
		t.Fatalf("terminator should be stripped: %q", stmts[2])
	}
}

func TestSplitStatementsSemicolonInsideString(t *testing.T) {
	dump := "INSERT INTO competitions VALUES ('WC2023','venue; hall 4');\nSELECT 1;\n"
	stmts := collect(t, dump)
	if len(stmts) != 2 {
		t.Fatalf("len(stmts) = %d, want 2: %q", len(stmts), stmts)
	}
	if !strings.Contains(stmts[0], "venue; hall 4") {
		t.Fatalf("stmts[0] = %q", stmts[0])
	}
}

func TestSplitStatementsEscapedQuotes(t *testing.T) {
	dump := `INSERT INTO persons VALUES ('2009ZEMD01','Feliks O\'Brien');
INSERT INTO persons VALUES ('2010XXXX01','It''s a name');
`
	stmts := collect(t, dump)
	if len(stmts) != 2 {
		t.Fatalf("len(stmts) = %d, want 2: %q", len(stmts), stmts)
	}
}

func TestSplitStatementsMultilineString(t *testing.T) {
	dump := "INSERT INTO competitions VALUES ('X','line one\nline two; still inside');\n"
	stmts := collect(t, dump)
	if len(stmts) != 1 {
		t.Fatalf("len(stmts) = %d, want 1: %q", len(stmts), stmts)
	}
	if !strings.Contains(stmts[0], "line two; still inside") {
		t.Fatalf("stmts[0] = %q", stmts[0])
	}
}

func TestSplitStatementsUnterminated(t *testing.T) {
	err := SplitStatements(strings.NewReader("SELECT 1"), func(string) error { return nil })
	if err == nil {
		t.Fatal("expected error for unterminated statement")
	}
}

func TestRunExecutesEachStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE t (n int)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO t VALUES (1)")).WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := Run(context.Background(), db, strings.NewReader("CREATE TABLE t (n int);\nINSERT INTO t VALUES (1);\n"), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("statements executed = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunStopsOnExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE t (n int)")).WillReturnError(errors.New("table exists"))

	n, err := Run(context.Background(), db, strings.NewReader("CREATE TABLE t (n int);\nINSERT INTO t VALUES (1);\n"), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 0 {
		t.Fatalf("statements executed = %d, want 0", n)
	}
}

func TestCreateDatabaseRejectsBadName(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	if err := CreateDatabase(context.Background(), db, "wca; DROP DATABASE mysql"); err == nil {
		t.Fatal("expected error for invalid name")
	}
}
