// Package classifier decides which feed records warrant a capture session.
package classifier

import (
	"strings"

	"github.com/vietddude/akashic/internal/core/domain"
)

// UnarchivedMarker in a normalized title forces capture regardless of channel.
const UnarchivedMarker = "unarchived"

// Verdict is the accept/ignore outcome of classification.
type Verdict int

const (
	VerdictIgnore Verdict = iota
	VerdictAccept
)

func (v Verdict) String() string {
	if v == VerdictAccept {
		return "accept"
	}
	return "ignore"
}

// Rule names the classification rule that produced a decision.
type Rule string

const (
	RuleArchive    Rule = "archive"
	RuleKeyword    Rule = "keyword"
	RuleUnarchived Rule = "unarchived"
	RuleExternal   Rule = "external"
	RuleNone       Rule = "none"
)

// Decision is the result of classifying one record.
type Decision struct {
	Verdict Verdict
	Rule    Rule
	// Keyword is the matched keyword for RuleKeyword.
	Keyword string
	// Target is the resolved capture target; empty when Deferred.
	Target string
	// Deferred is set for accepted records that have nothing capturable yet,
	// such as a placeholder without a live link. They are re-evaluated on the
	// next poll.
	Deferred bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLiveOnlyExternal controls whether external placeholder links are only
// captured once the placeholder is live. Enabled by default.
func WithLiveOnlyExternal(v bool) Option {
	return func(c *Classifier) { c.liveOnlyExternal = v }
}

// Classifier applies the tracking rules against an immutable ChannelSets
// snapshot. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	sets             domain.ChannelSets
	liveOnlyExternal bool
}

// New creates a classifier over sets.
func New(sets domain.ChannelSets, opts ...Option) *Classifier {
	c := &Classifier{
		sets:             sets,
		liveOnlyExternal: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify evaluates the rules in order; the first match wins.
func (c *Classifier) Classify(r domain.FeedRecord) Decision {
	d := Decision{Verdict: VerdictAccept}
	title := domain.NormalizeTitle(r.Title)

	switch {
	case c.sets.InArchive(r.ChannelID):
		d.Rule = RuleArchive
	case c.sets.InCheck(r.ChannelID) && c.matchKeyword(title, &d):
		d.Rule = RuleKeyword
	case strings.Contains(title, UnarchivedMarker):
		d.Rule = RuleUnarchived
	case r.IsLiveExternal():
		d.Rule = RuleExternal
	default:
		return Decision{Verdict: VerdictIgnore, Rule: RuleNone}
	}

	target, ok := c.resolveTarget(r)
	if !ok {
		d.Deferred = true
		return d
	}
	d.Target = target
	return d
}

func (c *Classifier) matchKeyword(title string, d *Decision) bool {
	kw, ok := c.sets.MatchKeyword(title)
	if ok {
		d.Keyword = kw
	}
	return ok
}

// resolveTarget maps a record to what the downloader should fetch: the video
// id for streams, the link for external placeholders.
func (c *Classifier) resolveTarget(r domain.FeedRecord) (string, bool) {
	switch r.Kind {
	case domain.RecordKindStream:
		return r.ID, r.ID != ""
	case domain.RecordKindPlaceholder:
		if r.PlaceholderType != domain.PlaceholderExternalStream || r.Link == "" {
			return "", false
		}
		if c.liveOnlyExternal && r.Status != domain.RecordStatusLive {
			return "", false
		}
		return r.Link, true
	}
	return "", false
}

