// Package downloader drives the external media retrieval tool.
package downloader

import (
	"context"
	"fmt"
	"time"
)

// Downloader performs one capture attempt of a target. A failure reported by
// the tool is returned as *FailureError; any other error means the attempt
// could not run at all.
type Downloader interface {
	Attempt(ctx context.Context, target string, opts Options) (Result, error)
}

// Options are the per-attempt settings a session controls.
type Options struct {
	TempDir       string
	HomeDir       string
	LiveOnly      bool
	CookieFile    string
	SocketTimeout time.Duration
}

// Result describes a successful attempt.
type Result struct {
	// ReconcileRequired is set when the source's own completion signal is
	// not trustworthy and live status must be confirmed elsewhere.
	ReconcileRequired bool
	Domain            string
	LiveStatus        string
}

// FailureError carries the tool's free-form failure text.
type FailureError struct {
	Text     string
	ExitCode int
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("download failed (exit %d): %s", e.ExitCode, e.Text)
}
