// Package backoff maps downloader failure text to retry decisions.
package backoff

import "time"

// Unit is the duration class extracted from a failure message.
type Unit int

const (
	UnitUnknown Unit = iota
	UnitImmediate
	UnitMinutes
	UnitHours
	UnitDays
	UnitYears
	UnitMemberGate
	UnitTransientDifficulty
)

func (u Unit) String() string {
	switch u {
	case UnitImmediate:
		return "immediate"
	case UnitMinutes:
		return "minutes"
	case UnitHours:
		return "hours"
	case UnitDays:
		return "days"
	case UnitYears:
		return "years"
	case UnitMemberGate:
		return "member_gate"
	case UnitTransientDifficulty:
		return "transient_difficulty"
	default:
		return "unknown"
	}
}

// Policy holds the wait for each duration class.
type Policy struct {
	Immediate   time.Duration `yaml:"immediate"`
	MinuteScale time.Duration `yaml:"minute_scale"`
	MinuteCap   time.Duration `yaml:"minute_cap"`
	Hours       time.Duration `yaml:"hours"`
	Days        time.Duration `yaml:"days"`
	Years       time.Duration `yaml:"years"`
	Difficulty  time.Duration `yaml:"difficulty"`
}

// DefaultPolicy: 15s, n*30s up to 5m, 1h, 6h, 24h, 15s.
func DefaultPolicy() Policy {
	return Policy{
		Immediate:   15 * time.Second,
		MinuteScale: 30 * time.Second,
		MinuteCap:   5 * time.Minute,
		Hours:       time.Hour,
		Days:        6 * time.Hour,
		Years:       24 * time.Hour,
		Difficulty:  15 * time.Second,
	}
}

// WithDefaults fills zero fields from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.Immediate <= 0 {
		p.Immediate = d.Immediate
	}
	if p.MinuteScale <= 0 {
		p.MinuteScale = d.MinuteScale
	}
	if p.MinuteCap <= 0 {
		p.MinuteCap = d.MinuteCap
	}
	if p.Hours <= 0 {
		p.Hours = d.Hours
	}
	if p.Days <= 0 {
		p.Days = d.Days
	}
	if p.Years <= 0 {
		p.Years = d.Years
	}
	if p.Difficulty <= 0 {
		p.Difficulty = d.Difficulty
	}
	return p
}

// Wait returns the interval to sleep before the next attempt. Magnitude is
// only consulted for minutes; a negative magnitude means none was present and
// the cap is used. ok is false for an unknown unit and callers must treat
// that as fatal.
func (p Policy) Wait(unit Unit, magnitude int) (wait time.Duration, ok bool) {
	switch unit {
	case UnitImmediate:
		return p.Immediate, true
	case UnitMinutes:
		// Compare before multiplying so huge magnitudes cannot overflow.
		if magnitude < 0 || (p.MinuteScale > 0 && magnitude > int(p.MinuteCap/p.MinuteScale)) {
			return p.MinuteCap, true
		}
		return min(time.Duration(magnitude)*p.MinuteScale, p.MinuteCap), true
	case UnitHours:
		return p.Hours, true
	case UnitDays:
		return p.Days, true
	case UnitYears:
		return p.Years, true
	case UnitMemberGate:
		// Remediation is immediate; the session decides whether it is allowed.
		return 0, true
	case UnitTransientDifficulty:
		return p.Difficulty, true
	default:
		return 0, false
	}
}
