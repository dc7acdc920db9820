package domain

import "time"

// FeedRecord is a single broadcast entry returned by the feed source.
type FeedRecord struct {
	ID              string
	ChannelID       string
	ChannelName     string
	Title           string
	Kind            RecordKind
	Status          RecordStatus
	PlaceholderType PlaceholderType
	Link            string
	StartScheduled  *time.Time
	AvailableAt     *time.Time
}

type RecordKind string

const (
	RecordKindStream      RecordKind = "stream"
	RecordKindPlaceholder RecordKind = "placeholder"
)

type RecordStatus string

const (
	RecordStatusNew      RecordStatus = "new"
	RecordStatusUpcoming RecordStatus = "upcoming"
	RecordStatusLive     RecordStatus = "live"
	RecordStatusPast     RecordStatus = "past"
	RecordStatusMissing  RecordStatus = "missing"
)

type PlaceholderType string

const (
	PlaceholderScheduledStream PlaceholderType = "scheduled-yt-stream"
	PlaceholderExternalStream  PlaceholderType = "external-stream"
	PlaceholderEvent           PlaceholderType = "event"
)

// IsLiveExternal reports whether the record is an external placeholder that is
// live right now and carries a link to capture.
func (r FeedRecord) IsLiveExternal() bool {
	return r.Kind == RecordKindPlaceholder &&
		r.PlaceholderType == PlaceholderExternalStream &&
		r.Status == RecordStatusLive &&
		r.Link != ""
}
