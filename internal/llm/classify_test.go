package llm

import (
	"strings"
	"testing"
)

func TestClassifyCandidates(t *testing.T) {
	cases := []struct {
		reply string
		sql   string
	}{
		{"SELECT id FROM customers", "SELECT id FROM customers"},
		{"SELECT id FROM customers;", "SELECT id FROM customers"},
		{"  select name from t  ", "select name from t"},
		{"```sql\nSELECT id FROM customers\n```", "SELECT id FROM customers"},
		{"```\nWITH r AS (SELECT 1) SELECT * FROM r;\n```", "WITH r AS (SELECT 1) SELECT * FROM r"},
		{"Here you go:\n```sql\nSELECT count(*) FROM orders\n```\nLet me know!", "SELECT count(*) FROM orders"},
	}
	c := HeuristicClassifier{}
	for _, tc := range cases {
		got := c.Classify(tc.reply)
		if got.Kind != KindCandidate {
			t.Errorf("Classify(%q) kind = %s (%s)", tc.reply, got.Kind, got.Note)
			continue
		}
		if got.SQL != tc.sql {
			t.Errorf("Classify(%q) sql = %q, want %q", tc.reply, got.SQL, tc.sql)
		}
	}
}

func TestClassifyRefusals(t *testing.T) {
	cases := []string{
		"",
		"I cannot help with that request.",
		"I'm sorry, but as an AI I am unable to write that query.",
		"That question is ambiguous, which table do you mean?",
	}
	c := HeuristicClassifier{}
	for _, reply := range cases {
		got := c.Classify(reply)
		if got.Kind != KindRefusal {
			t.Errorf("Classify(%q) kind = %s, want refusal", reply, got.Kind)
			continue
		}
		if got.SQL != "" {
			t.Errorf("Classify(%q) refusal carries SQL %q", reply, got.SQL)
		}
		if got.Note == "" {
			t.Errorf("Classify(%q) refusal has no note", reply)
		}
	}
}

func TestClassifyRefusalPhraseInsideSQLIsCandidate(t *testing.T) {
	reply := "SELECT note FROM tickets WHERE note LIKE '%i cannot%'"
	got := HeuristicClassifier{}.Classify(reply)
	if got.Kind != KindCandidate {
		t.Fatalf("kind = %s (%s)", got.Kind, got.Note)
	}
}

func TestPromptShapes(t *testing.T) {
	b := NewPromptBuilder("customers(id INT, name TEXT)", []string{"One SELECT only."})

	initial := b.Initial("list all customers")
	for _, want := range []string{"RULES:", "One SELECT only.", "SCHEMA:", "customers(id INT", "list all customers"} {
		if !strings.Contains(initial, want) {
			t.Errorf("Initial prompt missing %q", want)
		}
	}

	correction := b.Correction("list all customers", "SELECT * FROM customer", "table customer does not exist")
	for _, want := range []string{"PREVIOUS SQL", "SELECT * FROM customer", "WHAT WENT WRONG", "does not exist"} {
		if !strings.Contains(correction, want) {
			t.Errorf("Correction prompt missing %q", want)
		}
	}

	fresh := b.Fresh("list all customers")
	if strings.Contains(fresh, "PREVIOUS SQL") || strings.Contains(fresh, "WHAT WENT WRONG") {
		t.Fatal("Fresh prompt must not carry correction context")
	}
	if !strings.Contains(fresh, "list all customers") {
		t.Fatal("Fresh prompt missing the question")
	}
}
