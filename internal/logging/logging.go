// Package logging sets up the process-wide slog logger: colored console
// output plus a retained JSON log rotated daily.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"
)

const (
	FilePrefix           = "akashic"
	DefaultRetentionDays = 14
)

// Options describes logger construction parameters.
type Options struct {
	Level string
	Debug bool
	// Dir enables the retained JSON log. Empty means console only.
	Dir           string
	RetentionDays int
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the default logger. The returned closer flushes the
// retained log file.
func Setup(opts Options) (io.Closer, error) {
	level := ParseLevel(opts.Level)
	if opts.Debug {
		level = slog.LevelDebug
	}
	tintOpts := &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}

	if opts.Dir == "" {
		stylelog.InitDefault(tintOpts)
		return nopCloser{}, nil
	}

	if opts.RetentionDays <= 0 {
		opts.RetentionDays = DefaultRetentionDays
	}
	file, err := NewDailyFile(opts.Dir, FilePrefix, opts.RetentionDays)
	if err != nil {
		return nil, err
	}

	handler := TeeHandler(
		tint.NewHandler(os.Stderr, tintOpts),
		NewJSONHandler(file, level),
	)
	slog.SetDefault(slog.New(handler))
	file.Prune()
	return file, nil
}

// Bootstrap installs a console logger for use before configuration loads.
func Bootstrap() {
	stylelog.InitDefault()
}

// NewJSONHandler builds the handler used for the retained log.
func NewJSONHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			}
			return attr
		},
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
