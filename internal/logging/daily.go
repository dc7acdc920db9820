package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DailyFile is an io.Writer that appends to <dir>/<prefix>-YYYY-MM-DD.log,
// switching files when the local date changes and pruning files older than
// the retention window on each switch.
type DailyFile struct {
	dir           string
	prefix        string
	retentionDays int
	now           func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewDailyFile creates the directory and opens today's file.
func NewDailyFile(dir, prefix string, retentionDays int) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	d := &DailyFile{
		dir:           dir,
		prefix:        prefix,
		retentionDays: retentionDays,
		now:           time.Now,
	}
	if err := d.rotate(d.now().Format(time.DateOnly)); err != nil {
		return nil, err
	}
	return d, nil
}

// Path returns the file currently written to.
func (d *DailyFile) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pathFor(d.day)
}

func (d *DailyFile) pathFor(day string) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s-%s.log", d.prefix, day))
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	if d.file == nil {
		d.mu.Unlock()
		return 0, os.ErrClosed
	}
	rotated := false
	if day := d.now().Format(time.DateOnly); day != d.day {
		if err := d.rotate(day); err != nil {
			d.mu.Unlock()
			return 0, err
		}
		rotated = true
	}
	n, err := d.file.Write(p)
	d.mu.Unlock()

	if rotated {
		d.Prune()
	}
	return n, err
}

func (d *DailyFile) rotate(day string) error {
	file, err := os.OpenFile(d.pathFor(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = file
	d.day = day
	return nil
}

// Prune removes retained logs older than the retention window.
func (d *DailyFile) Prune() {
	d.mu.Lock()
	current := d.pathFor(d.day)
	d.mu.Unlock()

	CleanupOldLogs(d.retentionDays, d.now(), RetentionTarget{
		Dir:     d.dir,
		Pattern: d.prefix + "-*.log",
		Exclude: []string{current},
	})
}

// Close closes the current file.
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// RetentionTarget specifies a directory and filename pattern to prune.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes files matching the targets whose modification time
// is older than retentionDays before now. Zero disables pruning.
func CleanupOldLogs(retentionDays int, now time.Time, targets ...RetentionTarget) {
	if retentionDays <= 0 {
		return
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	for _, target := range targets {
		exclude := make(map[string]struct{}, len(target.Exclude))
		for _, p := range target.Exclude {
			if abs, err := filepath.Abs(p); err == nil {
				exclude[abs] = struct{}{}
			}
		}

		entries, err := os.ReadDir(target.Dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if matched, err := filepath.Match(target.Pattern, entry.Name()); err != nil || !matched {
				continue
			}
			fullPath := filepath.Join(target.Dir, entry.Name())
			if abs, err := filepath.Abs(fullPath); err == nil {
				fullPath = abs
			}
			if _, skip := exclude[fullPath]; skip {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(fullPath); err != nil {
				slog.Warn("Failed to prune old log", "path", fullPath, "error", err)
				continue
			}
			slog.Debug("Pruned old log", "path", fullPath)
		}
	}
}
