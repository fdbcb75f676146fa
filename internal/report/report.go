// Package report persists the audit trail of finished sessions: one case
// directory per question with the summary, the attempt log, the final SQL,
// and the returned rows.
package report

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/runinfo"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/session"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/util"
)

// Reporter writes case artifacts to disk.
type Reporter struct {
	OutputDir   string
	UseUUIDPath bool
	caseSeq     int
}

// Case describes a report directory.
type Case struct {
	ID  string
	Dir string
}

// Summary captures the persisted metadata for a case.
type Summary struct {
	Question     string             `json:"question"`
	Dialect      string             `json:"dialect"`
	Outcome      string             `json:"outcome"`
	Attempts     int                `json:"attempts"`
	Refusals     int                `json:"refusals"`
	FinalSQL     string             `json:"final_sql"`
	RowCount     int                `json:"row_count"`
	Truncated    bool               `json:"truncated"`
	Error        string             `json:"error"`
	ElapsedMs    int64              `json:"elapsed_ms"`
	CaseID       string             `json:"case_id"`
	CaseDir      string             `json:"case_dir"`
	ArchiveName  string             `json:"archive_name"`
	ArchiveCodec string             `json:"archive_codec"`
	Timestamp    string             `json:"timestamp"`
	Run          *runinfo.BasicInfo `json:"run,omitempty"`
}

// New creates a reporter that writes to outputDir.
func New(outputDir string) *Reporter {
	return &Reporter{OutputDir: outputDir}
}

// NewCase allocates a new case directory.
func (r *Reporter) NewCase() (Case, error) {
	r.caseSeq++
	caseID := uuid.New().String()
	if v7, err := uuid.NewV7(); err == nil {
		caseID = v7.String()
	}
	caseDir := fmt.Sprintf("case_%04d_%s", r.caseSeq, caseID)
	if r.UseUUIDPath {
		caseDir = caseID
	}
	dir := filepath.Join(r.OutputDir, caseDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Case{}, err
	}
	return Case{ID: caseID, Dir: dir}, nil
}

const (
	CaseArchiveName  = "case.tar.zst"
	CaseArchiveCodec = "zstd"
)

// WriteSession persists everything about one finished session into the case
// directory. runErr is the infrastructure error when the session aborted.
func (r *Reporter) WriteSession(c Case, res *session.Result, dialectName string, run *runinfo.BasicInfo, runErr error) error {
	summary := Summary{
		Question:  res.Question,
		Dialect:   dialectName,
		Outcome:   res.Outcome.String(),
		Attempts:  len(res.Attempts),
		FinalSQL:  res.SQL,
		ElapsedMs: res.Elapsed.Milliseconds(),
		CaseID:    c.ID,
		CaseDir:   filepath.Base(c.Dir),
		Timestamp: res.Started.UTC().Format(time.RFC3339),
		Run:       run,
	}
	for _, a := range res.Attempts {
		if a.Status == session.StatusRefused {
			summary.Refusals++
		}
	}
	if res.Rows != nil {
		summary.RowCount = res.Rows.RowCount()
		summary.Truncated = res.Rows.Truncated
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}

	if err := r.writeAttemptLog(c, res); err != nil {
		return err
	}
	if res.SQL != "" {
		if err := r.WriteText(c, "final.sql", res.SQL+";\n"); err != nil {
			return err
		}
	}
	if res.Rows != nil {
		if err := r.WriteText(c, "rows.tsv", renderRows(res)); err != nil {
			return err
		}
	}
	return r.WriteSummary(c, summary)
}

// WriteSummary writes session.json into the case directory.
func (r *Reporter) WriteSummary(c Case, summary Summary) error {
	f, err := os.Create(filepath.Join(c.Dir, "session.json"))
	if err != nil {
		return err
	}
	defer util.CloseWithErr(f, "summary output")
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(summary)
}

// WriteText writes raw text content into the case directory.
func (r *Reporter) WriteText(c Case, name string, content string) error {
	path := filepath.Join(c.Dir, name)
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func (r *Reporter) writeAttemptLog(c Case, res *session.Result) error {
	var b strings.Builder
	for _, a := range res.Attempts {
		fmt.Fprintf(&b, "-- attempt %d status=%s elapsed=%s\n", a.Seq, a.Status, a.Elapsed.Round(time.Millisecond))
		switch {
		case a.CanonicalSQL != "":
			b.WriteString(a.CanonicalSQL)
		case a.SQL != "":
			b.WriteString(a.SQL)
		default:
			b.WriteString("-- no SQL in reply")
		}
		b.WriteString("\n")
		if !a.Validation.OK && a.Status == session.StatusRejected {
			fmt.Fprintf(&b, "-- %s\n", a.Validation.Describe())
		}
		if a.Feedback != "" && a.Status == session.StatusExecError {
			fmt.Fprintf(&b, "-- %s\n", a.Feedback)
		}
		b.WriteString("\n")
	}
	return r.WriteText(c, "attempts.sql", b.String())
}

func renderRows(res *session.Result) string {
	var b strings.Builder
	b.WriteString(strings.Join(res.Rows.Columns, "\t"))
	b.WriteString("\n")
	for _, row := range res.Rows.Rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteString("\n")
	}
	if res.Rows.Truncated {
		b.WriteString("-- truncated\n")
	}
	return b.String()
}

// WriteCaseArchive creates a compressed archive for the case directory.
func (r *Reporter) WriteCaseArchive(c Case) (name string, codec string, err error) {
	archivePath := filepath.Join(c.Dir, CaseArchiveName)
	if removeErr := os.Remove(archivePath); removeErr != nil && !os.IsNotExist(removeErr) {
		return "", "", removeErr
	}
	defer func() {
		if err != nil {
			_ = os.Remove(archivePath)
		}
	}()
	file, err := os.Create(archivePath)
	if err != nil {
		return "", "", err
	}
	defer util.CloseWithErr(file, "archive output")

	zw, err := zstd.NewWriter(file)
	if err != nil {
		return "", "", err
	}
	defer func() {
		if closeErr := zw.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	tw := tar.NewWriter(zw)
	defer func() {
		if closeErr := tw.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	walkErr := filepath.WalkDir(c.Dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || path == archivePath {
			return nil
		}
		rel, err := filepath.Rel(c.Dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		if _, err := io.Copy(tw, src); err != nil {
			util.CloseWithErr(src, "archive source")
			return err
		}
		util.CloseWithErr(src, "archive source")
		return nil
	})
	if walkErr != nil {
		return "", "", walkErr
	}
	return CaseArchiveName, CaseArchiveCodec, nil
}
