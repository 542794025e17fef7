package engine

import (
	"math"
	"time"
)

// ScoringPolicy computes the score credit for a correct answer. Incorrect
// and missing answers never earn credit regardless of policy.
type ScoringPolicy interface {
	Name() string
	Score(responseTime, questionDuration time.Duration) int
}

// FlatScoring credits a fixed base amount per correct answer.
type FlatScoring struct {
	Base int
}

func (s FlatScoring) Name() string { return "flat" }

func (s FlatScoring) Score(responseTime, questionDuration time.Duration) int {
	return s.Base
}

// TimeDecayScoring credits the base amount plus a bonus that decays linearly
// over the question window: a player answering instantly earns the full
// bonus, one answering at the buzzer earns none.
type TimeDecayScoring struct {
	Base     int
	MaxBonus int
}

func (s TimeDecayScoring) Name() string { return "time-decay" }

func (s TimeDecayScoring) Score(responseTime, questionDuration time.Duration) int {
	if questionDuration <= 0 {
		return s.Base
	}
	remaining := 1 - responseTime.Seconds()/questionDuration.Seconds()
	if remaining < 0 {
		remaining = 0
	}
	return s.Base + int(math.Round(float64(s.MaxBonus)*remaining))
}

// RuleSet bundles the scoring policy with whether the redemption vote phase
// runs between rounds. The two shipped rulesets are "classic" (flat scoring,
// no redemption) and "redemption" (time-decay scoring, vote-back phase).
type RuleSet struct {
	Name              string
	Scoring           ScoringPolicy
	RedemptionEnabled bool
}

// ClassicRules is flat per-question scoring with no redemption.
func ClassicRules(base int) RuleSet {
	return RuleSet{
		Name:    "classic",
		Scoring: FlatScoring{Base: base},
	}
}

// RedemptionRules is time-decay scoring with the vote-back phase enabled.
func RedemptionRules(base, maxBonus int) RuleSet {
	return RuleSet{
		Name:              "redemption",
		Scoring:           TimeDecayScoring{Base: base, MaxBonus: maxBonus},
		RedemptionEnabled: true,
	}
}
