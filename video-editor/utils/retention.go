package utils

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// PruneOldFiles removes regular files in dir last modified more than maxAge
// before now. Subdirectories are left alone. It returns the removed paths.
func PruneOldFiles(dir string, maxAge time.Duration, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var removed []string
	cutoff := now.Add(-maxAge)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to remove expired output", "path", path, "error", err)
			continue
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// RetentionSweeper deletes expired output files on a cron schedule
type RetentionSweeper struct {
	cron   *cron.Cron
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

// NewRetentionSweeper validates schedule and prepares a sweeper for dir.
// A non-positive maxAge is rejected; callers skip the sweeper instead.
func NewRetentionSweeper(dir string, maxAge time.Duration, schedule string) (*RetentionSweeper, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", maxAge)
	}
	s := &RetentionSweeper{cron: cron.New(), dir: dir, maxAge: maxAge, now: time.Now}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Sweep runs one pass over the output directory
func (s *RetentionSweeper) Sweep() {
	removed, err := PruneOldFiles(s.dir, s.maxAge, s.now())
	if err != nil {
		slog.Warn("Output sweep failed", "dir", s.dir, "error", err)
		return
	}
	if len(removed) > 0 {
		slog.Info("Removed expired outputs", "count", len(removed), "retention", s.maxAge)
	}
}

// Start sweeps once and then follows the schedule
func (s *RetentionSweeper) Start() {
	s.Sweep()
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep
func (s *RetentionSweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
