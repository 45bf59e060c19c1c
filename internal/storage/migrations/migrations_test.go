package migrations

import (
	"strings"
	"testing"
)

func TestSQLFiles_Embedded(t *testing.T) {
	for _, tc := range []struct {
		dir  string
		want string
	}{
		{"postgres", "001_runs_legs_snapshots.sql"},
		{"clickhouse", "001_run_snapshots.sql"},
	} {
		fsys := PostgresFS
		if tc.dir == "clickhouse" {
			fsys = ClickhouseFS
		}
		files, err := sqlFiles(fsys, tc.dir)
		if err != nil {
			t.Fatalf("sqlFiles(%s): %v", tc.dir, err)
		}
		if len(files) == 0 || files[0] != tc.want {
			t.Errorf("sqlFiles(%s) = %v, want first %s", tc.dir, files, tc.want)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	sql := "-- header\nCREATE TABLE a (x Int8);\n\n-- second\nCREATE TABLE b (y Int8)\n;\n"
	stmts := splitStatements(sql)
	if len(stmts) != 2 {
		t.Fatalf("got %d statements: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[1], "CREATE TABLE b") {
		t.Errorf("second statement = %q", stmts[1])
	}
}

func TestClickhouseMigrationsSplitCleanly(t *testing.T) {
	data, err := ClickhouseFS.ReadFile("clickhouse/001_run_snapshots.sql")
	if err != nil {
		t.Fatal(err)
	}
	if err := validateNoSemicolonInStrings(string(data)); err != nil {
		t.Errorf("validate: %v", err)
	}
	stmts := splitStatements(string(data))
	if len(stmts) != 1 || !strings.Contains(stmts[0], "run_snapshots") {
		t.Errorf("unexpected statements: %q", stmts)
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	if err := validateNoSemicolonInStrings("SELECT 'it''s'; SELECT 1"); err != nil {
		t.Errorf("escaped quote rejected: %v", err)
	}
	if err := validateNoSemicolonInStrings("SELECT 'a;b'"); err == nil {
		t.Error("expected error for semicolon in literal")
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://user:pw@localhost:9000/analytics")
	if err != nil || db != "analytics" {
		t.Errorf("databaseFromDSN = %q, %v", db, err)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for missing database")
	}
}
