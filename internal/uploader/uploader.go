// Package uploader ships finished audit cases to external storage.
package uploader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/config"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/report"
)

// Uploader ships one case directory and returns its remote location.
type Uploader interface {
	Enabled() bool
	UploadDir(ctx context.Context, dir string) (string, error)
}

// NoopUploader is used when no cloud backend is configured.
type NoopUploader struct{}

// Enabled always reports false.
func (n NoopUploader) Enabled() bool {
	return false
}

// UploadDir does nothing.
func (n NoopUploader) UploadDir(ctx context.Context, dir string) (string, error) {
	return "", nil
}

// Select picks the configured backend. GCS wins when both are enabled.
func Select(cfg config.StorageConfig) (Uploader, error) {
	if cfg.GCS.Enabled {
		return NewGCS(cfg.GCS)
	}
	if cfg.S3.Enabled {
		return NewS3(cfg.S3)
	}
	return NoopUploader{}, nil
}

// uploadEntries lists the files to ship from a case directory. When the case
// was archived, only the archive goes up; otherwise every regular file does.
func uploadEntries(dir string) ([]string, error) {
	if _, err := os.Stat(filepath.Join(dir, report.CaseArchiveName)); err == nil {
		return []string{report.CaseArchiveName}, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
