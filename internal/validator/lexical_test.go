package validator

import (
	"strings"
	"testing"
)

func TestLexicalBlocked(t *testing.T) {
	cases := []struct {
		sql      string
		fragment string
	}{
		{"DROP TABLE customers", "DROP"},
		{"delete from orders", "delete"},
		{"SELECT 1; SELECT 2", ";"},
		{"SELECT id FROM t -- trailing", "--"},
		{"SELECT id FROM t # trailing", "#"},
		{"SELECT /* hint */ id FROM t", "/*"},
		{"SELECT id FROM t INTO OUTFILE '/tmp/x'", "INTO OUTFILE"},
		{"SELECT load_file('/etc/passwd')", "load_file"},
		{"SET GLOBAL max_connections = 1", "SET"},
	}
	for _, c := range cases {
		out := Lexical(c.sql)
		if out.OK {
			t.Errorf("Lexical(%q) accepted, want rejection", c.sql)
			continue
		}
		if out.Stage != StageLexical {
			t.Errorf("Lexical(%q) stage = %s", c.sql, out.Stage)
		}
		if out.Fragment != c.fragment {
			t.Errorf("Lexical(%q) fragment = %q, want %q", c.sql, out.Fragment, c.fragment)
		}
		if out.Pos < 0 || !strings.HasPrefix(c.sql[out.Pos:], c.fragment) {
			t.Errorf("Lexical(%q) pos = %d, does not locate %q", c.sql, out.Pos, c.fragment)
		}
	}
}

func TestLexicalAccepted(t *testing.T) {
	cases := []string{
		"SELECT id, name FROM customers WHERE country = 'PL'",
		"SELECT deleted_at, update_time FROM audit_rows",
		"SELECT note FROM t WHERE note = 'please drop this table; thanks -- really'",
		"SELECT `settings` FROM t WHERE k = \"a;b#c\"",
		"SELECT count(*) FROM orders GROUP BY status",
	}
	for _, sql := range cases {
		if out := Lexical(sql); !out.OK {
			t.Errorf("Lexical(%q) rejected: %s", sql, out.Describe())
		}
	}
}

func TestLexicalDescribeNamesFragment(t *testing.T) {
	out := Lexical("TRUNCATE orders")
	desc := out.Describe()
	if !strings.Contains(desc, "lexical") || !strings.Contains(desc, "TRUNCATE") {
		t.Fatalf("Describe() = %q", desc)
	}
}

func TestMaskQuotedPreservesOffsets(t *testing.T) {
	sql := `SELECT a FROM t WHERE b = 'x''y; drop' AND c = 2`
	masked := maskQuoted(sql)
	if len(masked) != len(sql) {
		t.Fatalf("masked length %d != %d", len(masked), len(sql))
	}
	if strings.Contains(masked, "drop") || strings.Contains(masked, ";") {
		t.Fatalf("literal contents leaked: %q", masked)
	}
	if !strings.Contains(masked, "WHERE") || !strings.Contains(masked, "AND") {
		t.Fatalf("bare tokens lost: %q", masked)
	}
}
