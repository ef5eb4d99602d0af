package practice

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/repertoire/internal/badges"
	"github.com/abhisek/repertoire/internal/mastery"
	"github.com/abhisek/repertoire/internal/store"
)

// Bounds accepted by the aggregator.
const (
	MinConfidence = 1
	MaxConfidence = 5

	// MaxSessionMinutes caps a single session at one day.
	MaxSessionMinutes = 24 * 60

	// MaxClockSkew is how far past the engine clock a practice time may be.
	MaxClockSkew = 5 * time.Minute
)

// Aggregator folds practice sessions into per-pair aggregates.
type Aggregator struct {
	*engine
}

// NewAggregator creates an Aggregator over skills. It fails when the rule
// table given with WithRules is inconsistent.
func NewAggregator(skills store.SkillRepo, opts ...Option) (*Aggregator, error) {
	e, err := newEngine(skills, opts)
	if err != nil {
		return nil, err
	}
	return &Aggregator{engine: e}, nil
}

// Apply records one session practiced now. duration and confidence must
// already be in range; out-of-range values are rejected, not coerced.
func (a *Aggregator) Apply(ctx context.Context, performerID, pieceID string, duration, confidence int) (*Aggregate, error) {
	return a.ApplyAt(ctx, performerID, pieceID, duration, confidence, time.Time{})
}

// ApplyAt is Apply for a session practiced at the given time. A zero at
// means now; a time more than MaxClockSkew ahead of the clock is rejected.
func (a *Aggregator) ApplyAt(ctx context.Context, performerID, pieceID string, duration, confidence int, at time.Time) (*Aggregate, error) {
	return a.apply(ctx, performerID, pieceID, "", duration, confidence, at)
}

// ApplyRecorded folds a stored history entry into its aggregate and marks
// the entry applied in the same write. An entry is folded in at most once.
func (a *Aggregator) ApplyRecorded(ctx context.Context, entry store.HistoryEntry) (*Aggregate, error) {
	if entry.ID == "" {
		return nil, &ErrValidation{Field: "history_id", Reason: "must not be empty"}
	}
	if entry.AppliedAt != nil {
		return nil, &ErrValidation{Field: "history_id", Reason: "session already applied"}
	}
	return a.apply(ctx, entry.PerformerID, entry.PieceID, entry.ID, entry.Duration, entry.Confidence, entry.PracticedAt)
}

func (a *Aggregator) apply(ctx context.Context, performerID, pieceID, historyID string, duration, confidence int, at time.Time) (*Aggregate, error) {
	if err := validatePair(performerID, pieceID); err != nil {
		return nil, err
	}
	if duration < 1 || duration > MaxSessionMinutes {
		return nil, &ErrValidation{Field: "duration_minutes", Reason: fmt.Sprintf("must be between 1 and %d", MaxSessionMinutes)}
	}
	if confidence < MinConfidence || confidence > MaxConfidence {
		return nil, &ErrValidation{Field: "confidence_rating", Reason: "must be between 1 and 5"}
	}
	if !at.IsZero() && at.After(a.clock().Add(MaxClockSkew)) {
		return nil, &ErrValidation{Field: "submitted_at", Reason: "must not be in the future"}
	}

	var (
		from   mastery.Level
		earned []badges.Badge
	)
	agg, err := a.mutate(ctx, "apply session", performerID, pieceID, historyID, func(agg *Aggregate, now time.Time) {
		practiced := now
		if !at.IsZero() {
			practiced = at.UTC()
		}
		from = agg.Level
		earned = ApplySession(agg, a.rules, duration, confidence, practiced, now)
	})
	if err != nil {
		return nil, err
	}

	if agg.Level != from {
		t := mastery.Transition{
			PerformerID: performerID,
			PieceID:     pieceID,
			From:        from,
			To:          agg.Level,
		}
		if rule, ok := a.rules.Rule(from); ok {
			t.Trigger = rule.Name()
		}
		a.log.Info("skill level promoted", "transition", t, "practice_count", agg.PracticeCount)
	}
	for _, b := range earned {
		a.log.Info("badge earned", "performer", performerID, "piece", pieceID, "badge", string(b.ID))
	}
	return agg, nil
}

// Lookup returns the aggregate for the pair, or nil when none exists.
func (a *Aggregator) Lookup(ctx context.Context, performerID, pieceID string) (*Aggregate, error) {
	if err := validatePair(performerID, pieceID); err != nil {
		return nil, err
	}
	return a.lookup(ctx, performerID, pieceID)
}

// ListForPerformer returns every aggregate of the performer ordered by
// piece id.
func (a *Aggregator) ListForPerformer(ctx context.Context, performerID string) ([]*Aggregate, error) {
	if performerID == "" {
		return nil, &ErrValidation{Field: "performer_id", Reason: "must not be empty"}
	}
	var recs []store.SkillRecord
	err := a.call(ctx, "list skills", func(ctx context.Context) error {
		var err error
		recs, err = a.skills.ListByPerformer(ctx, performerID)
		return err
	})
	if err != nil {
		return nil, &ErrStorage{Op: "list skills", Err: err}
	}
	out := make([]*Aggregate, 0, len(recs))
	for i := range recs {
		agg, err := fromRecord(&recs[i])
		if err != nil {
			return nil, &ErrStorage{Op: "list skills", Err: err}
		}
		out = append(out, agg)
	}
	return out, nil
}
