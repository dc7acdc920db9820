package classifier

import (
	"context"
	"log/slog"

	"github.com/vietddude/akashic/internal/capture/session"
	"github.com/vietddude/akashic/internal/core/domain"
	"github.com/vietddude/akashic/internal/discovery/metrics"
)

// Spawner starts capture sessions.
type Spawner interface {
	Spawn(ctx context.Context, req session.Request) (string, bool)
}

// Dispatcher runs each unseen feed record through the classifier and spawns a
// session for every accepted target. It owns the SeenSet and must only be
// driven from the poll loop.
type Dispatcher struct {
	classifier *Classifier
	seen       *SeenSet
	spawner    Spawner
	log        *slog.Logger
}

// NewDispatcher wires a classifier to a spawner.
func NewDispatcher(c *Classifier, seen *SeenSet, spawner Spawner) *Dispatcher {
	if seen == nil {
		seen = NewSeenSet()
	}
	return &Dispatcher{
		classifier: c,
		seen:       seen,
		spawner:    spawner,
		log:        slog.Default().With("component", "dispatcher"),
	}
}

// Seen exposes the dispatched-id set.
func (d *Dispatcher) Seen() *SeenSet { return d.seen }

// Dispatch handles one poll's records and returns the number of sessions
// spawned.
func (d *Dispatcher) Dispatch(ctx context.Context, records []domain.FeedRecord) int {
	spawned := 0
	for _, r := range records {
		if d.seen.Contains(r.ID) {
			continue
		}

		dec := d.classifier.Classify(r)
		metrics.RecordsClassifiedTotal.WithLabelValues(dec.Verdict.String(), string(dec.Rule)).Inc()

		log := d.log.With("record_id", r.ID, "channel_id", r.ChannelID, "title", r.Title)
		if dec.Verdict == VerdictIgnore {
			log.Debug("Ignoring record")
			continue
		}
		if dec.Deferred {
			log.Warn("Accepted record has no capturable target yet",
				"rule", dec.Rule, "kind", r.Kind, "status", r.Status)
			continue
		}

		d.seen.Add(r.ID)
		metrics.SeenSetSize.Set(float64(d.seen.Size()))

		log.Info("Accepted record", "rule", dec.Rule, "keyword", dec.Keyword, "target", dec.Target)
		id, ok := d.spawner.Spawn(ctx, session.Request{
			RecordID: r.ID,
			Target:   dec.Target,
			Rule:     string(dec.Rule),
		})
		if !ok {
			log.Warn("Target already being captured", "target", dec.Target)
			continue
		}
		log.Debug("Spawned capture session", "session_id", id)
		spawned++
	}
	return spawned
}
