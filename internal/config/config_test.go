package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return tmp.Name()
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, ""))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DSN == "" {
		t.Fatalf("unexpected DSN: %s", cfg.DSN)
	}
	if cfg.MaxRetries != maxRetriesDefault {
		t.Fatalf("unexpected max retries: %d", cfg.MaxRetries)
	}
	if cfg.Dialect != "mysql" {
		t.Fatalf("unexpected dialect: %s", cfg.Dialect)
	}
	if cfg.StatementTimeoutMs != statementTimeoutMsDefault {
		t.Fatalf("unexpected statement timeout: %d", cfg.StatementTimeoutMs)
	}
	if cfg.GenerationTimeoutMs != generationTimeoutMsDefault {
		t.Fatalf("unexpected generation timeout: %d", cfg.GenerationTimeoutMs)
	}
	if cfg.Audit.OutputDir != "reports" {
		t.Fatalf("unexpected audit output dir: %s", cfg.Audit.OutputDir)
	}
	if cfg.Logging.LogFile != "logs/biai.log" {
		t.Fatalf("unexpected log file: %s", cfg.Logging.LogFile)
	}
}

func TestLoadOverrides(t *testing.T) {
	content := `database: analytics
dialect: Oracle
max_retries: 3
generator:
  endpoint: "http://localhost:8000/v1/generate"
  model: "sqlcoder"
`
	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Database != "analytics" {
		t.Fatalf("unexpected database: %s", cfg.Database)
	}
	if cfg.Dialect != "oracle" {
		t.Fatalf("dialect not normalized: %s", cfg.Dialect)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("unexpected max retries: %d", cfg.MaxRetries)
	}
	if cfg.Generator.Endpoint == "" || cfg.Generator.Model != "sqlcoder" {
		t.Fatalf("unexpected generator config: %+v", cfg.Generator)
	}
}

func TestEnsureDatabaseInDSN(t *testing.T) {
	cases := []struct {
		dsn  string
		db   string
		want string
	}{
		{"root:@tcp(127.0.0.1:3306)/", "biai", "root:@tcp(127.0.0.1:3306)/biai"},
		{"root:@tcp(127.0.0.1:3306)/?parseTime=true", "biai", "root:@tcp(127.0.0.1:3306)/biai?parseTime=true"},
		{"root:@tcp(127.0.0.1:3306)/other", "biai", "root:@tcp(127.0.0.1:3306)/other"},
	}
	for _, tc := range cases {
		if got := ensureDatabaseInDSN(tc.dsn, tc.db); got != tc.want {
			t.Fatalf("ensureDatabaseInDSN(%q, %q) = %q, want %q", tc.dsn, tc.db, got, tc.want)
		}
	}
}

func TestAdminDSN(t *testing.T) {
	if got := AdminDSN("root:@tcp(127.0.0.1:3306)/biai?parseTime=true"); got != "root:@tcp(127.0.0.1:3306)/?parseTime=true" {
		t.Fatalf("unexpected admin dsn: %s", got)
	}
	if got := AdminDSN("root:@tcp(127.0.0.1:3306)/biai"); got != "root:@tcp(127.0.0.1:3306)/" {
		t.Fatalf("unexpected admin dsn: %s", got)
	}
}
