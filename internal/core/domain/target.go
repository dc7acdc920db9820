package domain

import "strings"

// VideoIDLength is the length of a YouTube video identifier.
const VideoIDLength = 11

// NormalizeTarget reduces YouTube URLs to their trailing video id. Other
// targets (external links, bare ids) are returned trimmed but unchanged.
func NormalizeTarget(target string) string {
	target = strings.TrimSpace(target)
	if strings.Contains(target, "youtu") && len(target) > VideoIDLength {
		return target[len(target)-VideoIDLength:]
	}
	return target
}

// IsVideoID reports whether target looks like a bare YouTube video id.
func IsVideoID(target string) bool {
	if len(target) != VideoIDLength {
		return false
	}
	for _, r := range target {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
