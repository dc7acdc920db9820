package domain

import (
	"strings"
	"unicode"
)

// ChannelSets is the immutable tracking configuration loaded at startup.
// It is shared read-only between the poller and every session.
type ChannelSets struct {
	archive  map[string]struct{}
	check    map[string]struct{}
	keywords []string
}

// NewChannelSets builds a snapshot. Keywords are normalized the same way
// titles are so matching is case and whitespace insensitive.
func NewChannelSets(archive, check, keywords []string) ChannelSets {
	sets := ChannelSets{
		archive: make(map[string]struct{}, len(archive)),
		check:   make(map[string]struct{}, len(check)),
	}
	for _, id := range archive {
		if id = strings.TrimSpace(id); id != "" {
			sets.archive[id] = struct{}{}
		}
	}
	for _, id := range check {
		if id = strings.TrimSpace(id); id != "" {
			sets.check[id] = struct{}{}
		}
	}
	for _, kw := range keywords {
		if kw = NormalizeTitle(kw); kw != "" {
			sets.keywords = append(sets.keywords, kw)
		}
	}
	return sets
}

func (s ChannelSets) InArchive(channelID string) bool {
	_, ok := s.archive[channelID]
	return ok
}

func (s ChannelSets) InCheck(channelID string) bool {
	_, ok := s.check[channelID]
	return ok
}

// MatchKeyword returns the first keyword contained in the normalized title.
func (s ChannelSets) MatchKeyword(normalizedTitle string) (string, bool) {
	for _, kw := range s.keywords {
		if strings.Contains(normalizedTitle, kw) {
			return kw, true
		}
	}
	return "", false
}

// Sizes returns the number of archive channels, check channels and keywords.
func (s ChannelSets) Sizes() (archive, check, keywords int) {
	return len(s.archive), len(s.check), len(s.keywords)
}

// NormalizeTitle lowercases and strips every whitespace rune.
func NormalizeTitle(title string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, title)
}
