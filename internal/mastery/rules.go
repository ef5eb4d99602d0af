package mastery

import (
	"fmt"
	"sort"
)

// Thresholds are inclusive minimums a session must reach to leave a level.
type Thresholds struct {
	Sessions   int // practice_count after the session
	Minutes    int // cumulative practice minutes after the session
	Confidence int // confidence rating of the triggering session
}

// Met reports whether the given counters satisfy every threshold.
func (t Thresholds) Met(sessions, minutes, confidence int) bool {
	return sessions >= t.Sessions &&
		minutes >= t.Minutes &&
		confidence >= t.Confidence
}

// Rule promotes a skill from one level to the next once its thresholds are met.
type Rule struct {
	From Level
	To   Level
	Thresholds
}

// Name identifies the rule in transitions and log lines.
func (r Rule) Name() string {
	return r.From.String() + "->" + r.To.String()
}

// RuleSet maps each non-terminal level to the rule that promotes it.
// A level with no rule is terminal.
type RuleSet map[Level]Rule

var defaultRules = RuleSet{
	LevelUnknown:    {From: LevelUnknown, To: LevelNovice, Thresholds: Thresholds{Sessions: 1}},
	LevelNovice:     {From: LevelNovice, To: LevelLearning, Thresholds: Thresholds{Sessions: 1}},
	LevelLearning:   {From: LevelLearning, To: LevelProficient, Thresholds: Thresholds{Sessions: 3, Minutes: 45, Confidence: 3}},
	LevelProficient: {From: LevelProficient, To: LevelMastered, Thresholds: Thresholds{Sessions: 5, Minutes: 90, Confidence: 4}},
}

// DefaultRules returns a copy of the standard promotion table.
func DefaultRules() RuleSet {
	rs := make(RuleSet, len(defaultRules))
	for k, v := range defaultRules {
		rs[k] = v
	}
	return rs
}

// Validate checks that every rule is keyed by its From level and promotes
// exactly one step forward.
func (rs RuleSet) Validate() error {
	for _, from := range rs.levels() {
		r := rs[from]
		if !from.Valid() || !r.To.Valid() {
			return fmt.Errorf("rule %s: undefined level", r.Name())
		}
		if r.From != from {
			return fmt.Errorf("rule %s is keyed under %s", r.Name(), from)
		}
		if r.To != from+1 {
			return fmt.Errorf("rule %s must promote to %s", r.Name(), from+1)
		}
		if r.Sessions < 0 || r.Minutes < 0 || r.Confidence < 0 {
			return fmt.Errorf("rule %s: negative threshold", r.Name())
		}
	}
	return nil
}

// Rule returns the rule that promotes current, if any.
func (rs RuleSet) Rule(current Level) (Rule, bool) {
	r, ok := rs[current]
	return r, ok
}

// Next evaluates only the rule attached to current and returns the promoted
// level, or current when the thresholds are not met. It never skips a level
// and never demotes.
func (rs RuleSet) Next(current Level, sessions, minutes, confidence int) Level {
	r, ok := rs[current]
	if !ok {
		return current
	}
	if r.Met(sessions, minutes, confidence) {
		return r.To
	}
	return current
}

func (rs RuleSet) levels() []Level {
	out := make([]Level, 0, len(rs))
	for l := range rs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NextLevel applies the default rule table. See RuleSet.Next.
func NextLevel(current Level, sessions, minutes, confidence int) Level {
	return defaultRules.Next(current, sessions, minutes, confidence)
}

// Progress estimates how far a skill at current is toward its next promotion,
// in [0, 1]. Only the cumulative thresholds count; confidence is judged per
// session. A terminal level reports 1.
func (rs RuleSet) Progress(current Level, sessions, minutes int) float64 {
	r, ok := rs[current]
	if !ok {
		return 1
	}
	var sum float64
	var n int
	for _, p := range [][2]int{{sessions, r.Sessions}, {minutes, r.Minutes}} {
		if p[1] <= 0 {
			continue
		}
		n++
		sum += min(float64(p[0])/float64(p[1]), 1)
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
