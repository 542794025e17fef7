package engine

import (
	"testing"
	"time"
)

func TestFlatScoringIgnoresResponseTime(t *testing.T) {
	s := FlatScoring{Base: 100}
	for _, rt := range []time.Duration{0, 5 * time.Second, 20 * time.Second} {
		if got := s.Score(rt, 20*time.Second); got != 100 {
			t.Errorf("Score(%s) = %d, want 100", rt, got)
		}
	}
}

func TestTimeDecayScoring(t *testing.T) {
	s := TimeDecayScoring{Base: 100, MaxBonus: 50}
	window := 20 * time.Second

	tests := []struct {
		name     string
		response time.Duration
		want     int
	}{
		{"instant answer earns full bonus", 0, 150},
		{"half window earns half bonus", 10 * time.Second, 125},
		{"at the buzzer earns no bonus", 20 * time.Second, 100},
		{"past the buzzer earns no bonus", 25 * time.Second, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Score(tt.response, window); got != tt.want {
				t.Errorf("Score(%s) = %d, want %d", tt.response, got, tt.want)
			}
		})
	}
}

func TestTimeDecayScoringWithZeroWindowFallsBackToBase(t *testing.T) {
	s := TimeDecayScoring{Base: 100, MaxBonus: 50}
	if got := s.Score(time.Second, 0); got != 100 {
		t.Errorf("Score with zero window = %d, want base 100", got)
	}
}

func TestRuleSetConstructors(t *testing.T) {
	classic := ClassicRules(100)
	if classic.Name != "classic" || classic.RedemptionEnabled {
		t.Errorf("classic rules = %+v, want flat scoring without redemption", classic)
	}
	if _, ok := classic.Scoring.(FlatScoring); !ok {
		t.Errorf("classic scoring = %T, want FlatScoring", classic.Scoring)
	}

	redemption := RedemptionRules(100, 50)
	if redemption.Name != "redemption" || !redemption.RedemptionEnabled {
		t.Errorf("redemption rules = %+v, want time-decay scoring with redemption", redemption)
	}
	if _, ok := redemption.Scoring.(TimeDecayScoring); !ok {
		t.Errorf("redemption scoring = %T, want TimeDecayScoring", redemption.Scoring)
	}
}
