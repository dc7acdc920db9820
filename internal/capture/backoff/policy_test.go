package backoff

import (
	"math"
	"testing"
	"time"
)

func TestPolicy_Wait(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		unit      Unit
		magnitude int
		want      time.Duration
	}{
		{UnitImmediate, -1, 15 * time.Second},
		{UnitMinutes, 2, time.Minute},
		{UnitMinutes, 10, 5 * time.Minute},
		{UnitMinutes, 90, 5 * time.Minute},
		{UnitMinutes, -1, 5 * time.Minute},
		{UnitMinutes, 400000000, 5 * time.Minute},
		{UnitMinutes, math.MaxInt, 5 * time.Minute},
		{UnitMinutes, 0, 0},
		{UnitHours, 3, time.Hour},
		{UnitHours, -1, time.Hour},
		{UnitDays, 2, 6 * time.Hour},
		{UnitYears, 1, 24 * time.Hour},
		{UnitTransientDifficulty, -1, 15 * time.Second},
		{UnitMemberGate, -1, 0},
	}

	for _, tt := range tests {
		got, ok := p.Wait(tt.unit, tt.magnitude)
		if !ok {
			t.Errorf("Wait(%s, %d) returned no decision", tt.unit, tt.magnitude)
			continue
		}
		if got < 0 {
			t.Errorf("Wait(%s, %d) = %v, want non-negative", tt.unit, tt.magnitude, got)
		}
		if got != tt.want {
			t.Errorf("Wait(%s, %d) = %v, want %v", tt.unit, tt.magnitude, got, tt.want)
		}
	}
}

func TestPolicy_HugeMinutesFromText(t *testing.T) {
	f := Classify("ERROR: [youtube] abc: This live event will begin in 400000000 minutes.")
	if f.Unit != UnitMinutes || f.Magnitude != 400000000 {
		t.Fatalf("unexpected classification: %s %d", f.Unit, f.Magnitude)
	}
	wait, ok := DefaultPolicy().Wait(f.Unit, f.Magnitude)
	if !ok || wait != 5*time.Minute {
		t.Errorf("expected capped 5m wait, got %v (ok=%v)", wait, ok)
	}
}

func TestPolicy_UnknownUnit(t *testing.T) {
	if _, ok := DefaultPolicy().Wait(UnitUnknown, 5); ok {
		t.Error("expected no decision for unknown unit")
	}
}

func TestPolicy_Pure(t *testing.T) {
	p := DefaultPolicy()
	for _, unit := range []Unit{UnitImmediate, UnitMinutes, UnitHours, UnitDays, UnitYears} {
		first, _ := p.Wait(unit, 7)
		for i := 0; i < 10; i++ {
			if again, _ := p.Wait(unit, 7); again != first {
				t.Fatalf("Wait(%s, 7) changed between calls: %v != %v", unit, first, again)
			}
		}
	}
}

func TestPolicy_Monotonic(t *testing.T) {
	p := DefaultPolicy()
	for _, magnitude := range []int{1, 5, 10, 59, 1000} {
		minutes, _ := p.Wait(UnitMinutes, magnitude)
		hours, _ := p.Wait(UnitHours, magnitude)
		days, _ := p.Wait(UnitDays, magnitude)
		years, _ := p.Wait(UnitYears, magnitude)
		if !(minutes < hours && hours < days && days < years) {
			t.Errorf("magnitude %d: not monotonic: %v %v %v %v", magnitude, minutes, hours, days, years)
		}
	}
}

func TestPolicy_WithDefaults(t *testing.T) {
	p := Policy{MinuteScale: time.Minute}.WithDefaults()
	if p.MinuteScale != time.Minute {
		t.Errorf("explicit field overwritten: %v", p.MinuteScale)
	}
	if p.Hours != time.Hour || p.Immediate != 15*time.Second {
		t.Errorf("defaults not applied: %+v", p)
	}
}
