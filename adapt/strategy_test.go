package adapt

import (
	"errors"
	"testing"
)

// === Registry Tests ===

func TestRegistry_ClosedSet(t *testing.T) {
	r := NewRegistry()
	if r.Len() != 5 {
		t.Fatalf("registry holds %d strategies, want 5", r.Len())
	}
	for _, s := range r.Strategies() {
		if !r.Contains(s) {
			t.Errorf("registry does not contain its own strategy %s", s)
		}
		if _, err := r.Profile(s); err != nil {
			t.Errorf("Profile(%s) failed: %v", s, err)
		}
	}
	if r.Contains(Strategy(5)) || r.Contains(Strategy(-1)) {
		t.Error("registry claims to contain out-of-range strategies")
	}
}

func TestRegistry_ProfileUnknownStrategy(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Profile(Strategy(99)); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Profile(99) error = %v, want ErrUnknownStrategy", err)
	}
	if _, err := r.SuccessProbability(Strategy(99), ConditionGood); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("SuccessProbability(99) error = %v, want ErrUnknownStrategy", err)
	}
}

func TestSuccessProbability_NonIncreasingWithSeverity(t *testing.T) {
	// Harsher conditions never make any strategy more likely to succeed.
	r := NewRegistry()
	for _, s := range r.Strategies() {
		prev := 1.1
		for _, cond := range AllConditionLabels() {
			p, err := r.SuccessProbability(s, cond)
			if err != nil {
				t.Fatalf("SuccessProbability(%s, %s): %v", s, cond, err)
			}
			if p < 0 || p > 1 {
				t.Errorf("SuccessProbability(%s, %s) = %v, outside [0,1]", s, cond, p)
			}
			if p > prev {
				t.Errorf("SuccessProbability(%s, %s) = %v rose above %v under a harsher condition", s, cond, p, prev)
			}
			prev = p
		}
	}
}

func TestExpectedImprovement_BoostedUnderDuress(t *testing.T) {
	r := NewRegistry()
	for _, s := range r.Strategies() {
		calm := r.ExpectedImprovement(s, ConditionExcellent)
		critical := r.ExpectedImprovement(s, ConditionCritical)
		if calm <= 0 {
			t.Errorf("ExpectedImprovement(%s, excellent) = %v, want positive", s, calm)
		}
		if critical <= calm {
			t.Errorf("ExpectedImprovement(%s) under critical (%v) should exceed excellent (%v)", s, critical, calm)
		}
	}
}

func TestParseStrategy_RoundTrip(t *testing.T) {
	for _, s := range AllStrategies() {
		got, err := ParseStrategy(s.String())
		if err != nil {
			t.Fatalf("ParseStrategy(%q) failed: %v", s.String(), err)
		}
		if got != s {
			t.Errorf("ParseStrategy(%q) = %s, want %s", s.String(), got, s)
		}
	}
	if _, err := ParseStrategy("warp_drive"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("ParseStrategy(unknown) error = %v, want ErrUnknownStrategy", err)
	}
}
