package worker

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xavierca1/leadflow/internal/infra/storage"
)

// UploadJanitor removes uploads that outlived a crash or a killed request.
type UploadJanitor struct {
	dir          string
	maxAge       time.Duration
	tickInterval time.Duration
	logger       *slog.Logger
}

func NewUploadJanitor(dir string, maxAge, tickInterval time.Duration, logger *slog.Logger) *UploadJanitor {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	if tickInterval <= 0 {
		tickInterval = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadJanitor{dir: dir, maxAge: maxAge, tickInterval: tickInterval, logger: logger}
}

func (j *UploadJanitor) Start(ctx context.Context) {
	j.logger.Info("upload janitor started", "dir", j.dir, "max_age", j.maxAge)

	ticker := time.NewTicker(j.tickInterval)
	defer ticker.Stop()

	j.Sweep(time.Now())

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("upload janitor stopped")
			return
		case now := <-ticker.C:
			j.Sweep(now)
		}
	}
}

// Sweep deletes uploads last modified before now-maxAge and returns how many it removed.
func (j *UploadJanitor) Sweep(now time.Time) int {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		j.logger.Error("failed to list upload dir", "dir", j.dir, "error", err)
		return 0
	}

	cutoff := now.Add(-j.maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !storage.IsUpload(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			j.logger.Warn("failed to remove stale upload", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("stale uploads removed", "count", removed)
	}
	return removed
}
