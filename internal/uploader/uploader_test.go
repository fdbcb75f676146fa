package uploader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/config"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/report"
)

func TestSelect(t *testing.T) {
	u, err := Select(config.StorageConfig{})
	if err != nil {
		t.Fatalf("select noop: %v", err)
	}
	if u.Enabled() {
		t.Fatal("noop uploader reports enabled")
	}
	loc, err := u.UploadDir(context.Background(), t.TempDir())
	if err != nil || loc != "" {
		t.Fatalf("noop upload = %q, %v", loc, err)
	}

	u, err = Select(config.StorageConfig{S3: config.S3Config{Enabled: true, Bucket: "b"}})
	if err != nil {
		t.Fatalf("select s3: %v", err)
	}
	if _, ok := u.(*S3Uploader); !ok {
		t.Fatalf("selected %T, want S3", u)
	}
}

func TestUploadEntriesPrefersArchive(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"session.json", "final.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	names, err := uploadEntries(dir)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("names = %v", names)
	}

	if err := os.WriteFile(filepath.Join(dir, report.CaseArchiveName), []byte("x"), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	names, err = uploadEntries(dir)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(names) != 1 || names[0] != report.CaseArchiveName {
		t.Fatalf("names = %v, want only the archive", names)
	}
}
