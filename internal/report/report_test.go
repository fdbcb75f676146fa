package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/db"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/llm"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/session"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/validator"
)

func sampleResult() *session.Result {
	return &session.Result{
		Question: "customers per country",
		Outcome:  session.OutcomeSucceeded,
		SQL:      "SELECT `country`,COUNT(1) FROM `customers` GROUP BY `country`",
		Rows: &db.ResultSet{
			Columns: []string{"country", "COUNT(1)"},
			Rows:    [][]string{{"PL", "3"}, {"DE", "NULL"}},
		},
		Started: time.Now(),
		Attempts: []session.Attempt{
			{
				Seq:        1,
				Kind:       llm.KindCandidate,
				SQL:        "SELECT SLEEP(1)",
				Status:     session.StatusRejected,
				Validation: validator.Rejected(validator.StageStructural, "blocked function call SLEEP"),
				Feedback:   "rejected at structural stage: blocked function call SLEEP",
			},
			{
				Seq:          2,
				Kind:         llm.KindCandidate,
				SQL:          "SELECT country, COUNT(1) FROM customers GROUP BY country",
				CanonicalSQL: "SELECT `country`,COUNT(1) FROM `customers` GROUP BY `country`",
				Status:       session.StatusSucceeded,
				Validation:   validator.Accepted("SELECT `country`,COUNT(1) FROM `customers` GROUP BY `country`"),
			},
		},
	}
}

func TestWriteSession(t *testing.T) {
	r := New(t.TempDir())
	c, err := r.NewCase()
	if err != nil {
		t.Fatalf("new case: %v", err)
	}
	if err := r.WriteSession(c, sampleResult(), "mysql", nil, nil); err != nil {
		t.Fatalf("write session: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(c.Dir, "session.json"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Outcome != "succeeded" || summary.Attempts != 2 || summary.RowCount != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.CaseID != c.ID {
		t.Fatalf("case id = %q, want %q", summary.CaseID, c.ID)
	}

	attempts, err := os.ReadFile(filepath.Join(c.Dir, "attempts.sql"))
	if err != nil {
		t.Fatalf("read attempts: %v", err)
	}
	text := string(attempts)
	if !strings.Contains(text, "attempt 1 status=rejected") || !strings.Contains(text, "SLEEP") {
		t.Fatalf("attempt log missing rejection: %q", text)
	}
	if !strings.Contains(text, "attempt 2 status=succeeded") {
		t.Fatalf("attempt log missing success: %q", text)
	}

	finalSQL, err := os.ReadFile(filepath.Join(c.Dir, "final.sql"))
	if err != nil {
		t.Fatalf("read final.sql: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(string(finalSQL)), ";") {
		t.Fatalf("final.sql not terminated: %q", finalSQL)
	}

	rows, err := os.ReadFile(filepath.Join(c.Dir, "rows.tsv"))
	if err != nil {
		t.Fatalf("read rows.tsv: %v", err)
	}
	if !strings.HasPrefix(string(rows), "country\tCOUNT(1)\n") || !strings.Contains(string(rows), "DE\tNULL") {
		t.Fatalf("rows.tsv = %q", rows)
	}
}

func TestWriteCaseArchive(t *testing.T) {
	r := New(t.TempDir())
	c, err := r.NewCase()
	if err != nil {
		t.Fatalf("new case: %v", err)
	}
	if err := r.WriteSession(c, sampleResult(), "mysql", nil, nil); err != nil {
		t.Fatalf("write session: %v", err)
	}
	name, codec, err := r.WriteCaseArchive(c)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if name != CaseArchiveName || codec != CaseArchiveCodec {
		t.Fatalf("archive meta = %q %q", name, codec)
	}
	info, err := os.Stat(filepath.Join(c.Dir, name))
	if err != nil {
		t.Fatalf("stat archive: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("archive is empty")
	}
}

func TestCaseDirectoriesAreSequential(t *testing.T) {
	r := New(t.TempDir())
	first, err := r.NewCase()
	if err != nil {
		t.Fatalf("new case: %v", err)
	}
	second, err := r.NewCase()
	if err != nil {
		t.Fatalf("new case: %v", err)
	}
	if !strings.Contains(filepath.Base(first.Dir), "case_0001") || !strings.Contains(filepath.Base(second.Dir), "case_0002") {
		t.Fatalf("dirs = %q %q", first.Dir, second.Dir)
	}
}
