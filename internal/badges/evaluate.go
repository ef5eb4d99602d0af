package badges

import (
	"time"

	"github.com/abhisek/repertoire/internal/mastery"
)

// Snapshot is the aggregate state badge rules look at.
type Snapshot struct {
	PracticeCount int
	Level         mastery.Level
}

// Rule awards a badge when Earned reports true.
type Rule struct {
	ID     ID
	Earned func(Snapshot) bool
}

// DefaultRules returns the standard milestone rules, checked independently.
func DefaultRules() []Rule {
	return []Rule{
		{ID: FirstPractice, Earned: func(s Snapshot) bool { return s.PracticeCount == 1 }},
		{ID: Consistent5, Earned: func(s Snapshot) bool { return s.PracticeCount >= 5 }},
		{ID: MasterLevel, Earned: func(s Snapshot) bool { return s.Level == mastery.LevelMastered }},
	}
}

// Evaluate returns the badges newly earned by snap under the default rules,
// stamped with now. Badges already in existing are never returned again.
func Evaluate(snap Snapshot, existing Set, now time.Time) []Badge {
	return EvaluateRules(DefaultRules(), snap, existing, now)
}

// EvaluateRules is Evaluate with an explicit rule list.
func EvaluateRules(rules []Rule, snap Snapshot, existing Set, now time.Time) []Badge {
	var earned []Badge
	seen := existing.Merge(nil)
	for _, r := range rules {
		if seen.Has(r.ID) || !r.Earned(snap) {
			continue
		}
		b := Badge{ID: r.ID, EarnedAt: now}
		seen.Add(b)
		earned = append(earned, b)
	}
	return earned
}
