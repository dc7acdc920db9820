package backoff

import (
	"strconv"
	"strings"
)

// Kind is the closed set of failure categories a session acts on.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindScheduledRetry
	KindMemberGate
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindScheduledRetry:
		return "scheduled_retry"
	case KindMemberGate:
		return "member_gate"
	case KindTransient:
		return "transient"
	default:
		return "unrecognized"
	}
}

// Failure is the classified form of a downloader failure message.
type Failure struct {
	Kind Kind
	Unit Unit
	// Magnitude is the number preceding the unit token, or -1 when absent.
	Magnitude int
	// Token is the trailing word the classification was derived from.
	Token string
	Raw   string
}

var tokenUnits = map[string]Unit{
	"moments":      UnitImmediate,
	"shortly":      UnitImmediate,
	"minute":       UnitMinutes,
	"minutes":      UnitMinutes,
	"hour":         UnitHours,
	"hours":        UnitHours,
	"day":          UnitDays,
	"days":         UnitDays,
	"year":         UnitYears,
	"years":        UnitYears,
	"perks":        UnitMemberGate,
	"difficulties": UnitTransientDifficulty,
}

// Classify derives a Failure from free-form downloader output. Only the last
// non-empty line is inspected: its final word selects the unit and the word
// before it, when numeric, is the magnitude.
func Classify(text string) Failure {
	f := Failure{Kind: KindUnrecognized, Magnitude: -1, Raw: text}

	words := strings.Fields(lastLine(text))
	if len(words) == 0 {
		return f
	}
	f.Token = words[len(words)-1]

	unit, ok := tokenUnits[strings.ToLower(strings.TrimSuffix(f.Token, "."))]
	if !ok {
		return f
	}
	f.Unit = unit

	if len(words) > 1 {
		if n, err := strconv.Atoi(words[len(words)-2]); err == nil && n >= 0 {
			f.Magnitude = n
		}
	}

	switch unit {
	case UnitMemberGate:
		f.Kind = KindMemberGate
	case UnitTransientDifficulty:
		f.Kind = KindTransient
	default:
		f.Kind = KindScheduledRetry
	}
	return f
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
