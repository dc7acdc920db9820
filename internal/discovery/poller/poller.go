// Package poller queries the feed source on a fixed cadence and hands every
// batch of records to the dispatcher.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vietddude/akashic/internal/core/domain"
	"github.com/vietddude/akashic/internal/discovery/metrics"
)

const (
	DefaultInterval      = 120 * time.Second
	DefaultRetryInterval = 120 * time.Second
)

// Source fetches the current live and upcoming records.
type Source interface {
	Live(ctx context.Context) ([]domain.FeedRecord, error)
}

// Handler consumes one poll's records.
type Handler interface {
	Dispatch(ctx context.Context, records []domain.FeedRecord) int
}

// Config holds poll timing.
type Config struct {
	Interval      time.Duration `yaml:"interval"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// Stats is a snapshot of poller progress.
type Stats struct {
	LastSuccess         time.Time
	LastAttempt         time.Time
	ConsecutiveFailures int
	LastRecordCount     int
	Dispatched          int
}

// Poller owns the poll loop. Transient feed failures are retried at a fixed
// interval forever and never surface to the caller.
type Poller struct {
	src     Source
	handler Handler
	cfg     Config

	mu    sync.RWMutex
	stats Stats

	log *slog.Logger
}

// New creates a poller. Zero intervals take the defaults.
func New(src Source, handler Handler, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	return &Poller{
		src:     src,
		handler: handler,
		cfg:     cfg,
		log:     slog.Default().With("component", "poller"),
	}
}

// Interval returns the configured poll interval.
func (p *Poller) Interval() time.Duration { return p.cfg.Interval }

// Stats returns a snapshot of poll progress.
func (p *Poller) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// PollOnce performs a single fetch.
func (p *Poller) PollOnce(ctx context.Context) ([]domain.FeedRecord, error) {
	records, err := p.src.Live(ctx)

	p.mu.Lock()
	p.stats.LastAttempt = time.Now()
	if err != nil {
		p.stats.ConsecutiveFailures++
	} else {
		p.stats.ConsecutiveFailures = 0
		p.stats.LastSuccess = p.stats.LastAttempt
		p.stats.LastRecordCount = len(records)
	}
	p.mu.Unlock()

	if err != nil {
		metrics.FeedPollsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.FeedPollsTotal.WithLabelValues("success").Inc()
	metrics.FeedRecordsSeen.Set(float64(len(records)))
	return records, nil
}

// fetch retries PollOnce until it succeeds. It only fails once ctx is done.
func (p *Poller) fetch(ctx context.Context) ([]domain.FeedRecord, error) {
	var records []domain.FeedRecord
	b := retry.NewConstant(p.cfg.RetryInterval)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		r, err := p.PollOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn("Feed poll failed, retrying",
				"error", err,
				"retry_in", p.cfg.RetryInterval.String(),
			)
			return retry.RetryableError(err)
		}
		records = r
		return nil
	})
	return records, err
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("Starting feed poller",
		"interval", p.cfg.Interval.String(),
		"retry_interval", p.cfg.RetryInterval.String(),
	)

	for {
		records, err := p.fetch(ctx)
		if err != nil {
			p.log.Info("Feed poller stopped")
			return nil
		}

		n := p.handler.Dispatch(ctx, records)
		p.mu.Lock()
		p.stats.Dispatched += n
		p.mu.Unlock()
		p.log.Debug("Poll complete", "records", len(records), "spawned", n)

		select {
		case <-ctx.Done():
			p.log.Info("Feed poller stopped")
			return nil
		case <-time.After(p.cfg.Interval):
		}
	}
}
