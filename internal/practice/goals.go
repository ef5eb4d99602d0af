package practice

import (
	"context"
	"time"

	"github.com/abhisek/repertoire/internal/store"
)

// Goals manages the optional target mastery date of an aggregate. It never
// touches level, counters or badges.
type Goals struct {
	*engine
}

// NewGoals creates a goal manager over skills. Pass the same WithLocks value
// given to the Aggregator.
func NewGoals(skills store.SkillRepo, opts ...Option) (*Goals, error) {
	e, err := newEngine(skills, opts)
	if err != nil {
		return nil, err
	}
	return &Goals{engine: e}, nil
}

// SetGoal sets the goal date from a YYYY-MM-DD string, creating the default
// aggregate when the pair has none. Past dates are accepted.
func (g *Goals) SetGoal(ctx context.Context, performerID, pieceID, goalDate string) (*Aggregate, error) {
	if err := validatePair(performerID, pieceID); err != nil {
		return nil, err
	}
	d, err := ParseDate(goalDate)
	if err != nil {
		return nil, &ErrValidation{Field: "goal_date", Reason: "must be a calendar date in YYYY-MM-DD form"}
	}
	agg, err := g.mutate(ctx, "set goal", performerID, pieceID, "", func(a *Aggregate, _ time.Time) {
		a.Goal = &d
	})
	if err != nil {
		return nil, err
	}
	g.log.Debug("goal set", "performer", performerID, "piece", pieceID, "goal_date", d.String())
	return agg, nil
}

// ClearGoal removes the goal date. A pair with no aggregate gets the default
// one, goal-less.
func (g *Goals) ClearGoal(ctx context.Context, performerID, pieceID string) (*Aggregate, error) {
	if err := validatePair(performerID, pieceID); err != nil {
		return nil, err
	}
	return g.mutate(ctx, "clear goal", performerID, pieceID, "", func(a *Aggregate, _ time.Time) {
		a.Goal = nil
	})
}

// GetGoal returns the goal date, or nil when none is set or no aggregate
// exists.
func (g *Goals) GetGoal(ctx context.Context, performerID, pieceID string) (*Date, error) {
	if err := validatePair(performerID, pieceID); err != nil {
		return nil, err
	}
	agg, err := g.lookup(ctx, performerID, pieceID)
	if err != nil || agg == nil {
		return nil, err
	}
	return agg.Goal, nil
}
