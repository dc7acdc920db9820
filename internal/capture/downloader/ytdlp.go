package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// infoMarker prefixes the line yt-dlp prints before downloading so the
// result can report where the media came from.
const infoMarker = "akashic-info"

// reconcileDomains are sources whose successful exit may just mean the
// connection dropped while the broadcast is still running.
var reconcileDomains = map[string]struct{}{
	"youtube.com": {},
}

// Option configures the client.
type Option func(*YTDLP)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *YTDLP) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// YTDLP runs yt-dlp as a subprocess.
type YTDLP struct {
	binary string
	exec   Executor
	log    *slog.Logger
}

// NewYTDLP constructs a yt-dlp backed Downloader.
func NewYTDLP(binary string, opts ...Option) (*YTDLP, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	c := &YTDLP{
		binary: binary,
		exec:   commandExecutor{},
		log:    slog.Default().With("component", "downloader"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Attempt runs one download of target.
func (c *YTDLP) Attempt(ctx context.Context, target string, opts Options) (Result, error) {
	if strings.TrimSpace(target) == "" {
		return Result{}, errors.New("target required")
	}

	var (
		mu       sync.Mutex
		result   Result
		errLines []string
		lastLine string
	)

	err := c.exec.Run(ctx, c.binary, BuildArgs(target, opts),
		func(line string) {
			if domain, status, ok := parseInfoLine(line); ok {
				mu.Lock()
				result.Domain = domain
				result.LiveStatus = status
				mu.Unlock()
				return
			}
			c.log.Debug("yt-dlp output", "target", target, "line", line)
		},
		func(line string) {
			line = strings.TrimSpace(line)
			if line == "" {
				return
			}
			mu.Lock()
			lastLine = line
			if strings.HasPrefix(line, "ERROR:") {
				errLines = append(errLines, line)
			}
			mu.Unlock()
		},
	)

	mu.Lock()
	defer mu.Unlock()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			text := lastLine
			if len(errLines) > 0 {
				text = errLines[len(errLines)-1]
			}
			if text == "" {
				text = exitErr.Error()
			}
			return Result{}, &FailureError{Text: text, ExitCode: exitErr.ExitCode()}
		}
		return Result{}, fmt.Errorf("run yt-dlp: %w", err)
	}

	_, result.ReconcileRequired = reconcileDomains[result.Domain]
	return result, nil
}

// BuildArgs assembles the yt-dlp command line for an attempt.
func BuildArgs(target string, opts Options) []string {
	args := []string{
		"--write-info-json",
		"--no-part",
		"--no-overwrites",
		"--hls-use-mpegts",
		"--write-thumbnail",
		"--no-simulate",
		"--print", "before_dl:" + infoMarker + " %(webpage_url_domain)s %(live_status)s",
	}
	if opts.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(int(opts.SocketTimeout.Seconds())))
	}
	if opts.TempDir != "" {
		args = append(args, "-P", "temp:"+opts.TempDir)
	}
	if opts.HomeDir != "" {
		args = append(args, "-P", "home:"+opts.HomeDir)
	}
	if opts.CookieFile != "" {
		args = append(args, "--cookies", opts.CookieFile)
	}
	if opts.LiveOnly {
		args = append(args, "--match-filter", "is_live")
	}
	return append(args, "--", target)
}

func parseInfoLine(line string) (domain, status string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != infoMarker {
		return "", "", false
	}
	domain = fields[1]
	if len(fields) > 2 {
		status = fields[2]
	}
	return domain, status, true
}
