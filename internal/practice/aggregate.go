package practice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/abhisek/repertoire/internal/badges"
	"github.com/abhisek/repertoire/internal/mastery"
	"github.com/abhisek/repertoire/internal/store"
)

// Aggregate is the running practice summary of one performer on one piece.
type Aggregate struct {
	PerformerID    string
	PieceID        string
	Level          mastery.Level
	PracticeCount  int
	TotalMinutes   int
	LastPracticeAt *time.Time
	Confidence     int // rating of the most recent session, 0 before any
	Goal           *Date
	Badges         badges.Set
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Version is the stored optimistic-concurrency counter; 0 means the
	// aggregate has not been persisted yet.
	Version int64
}

// NewAggregate returns the default aggregate for a pair that has no record:
// novice, zero counters, no goal, no badges. Every entry point that needs a
// missing aggregate goes through here.
func NewAggregate(performerID, pieceID string, now time.Time) *Aggregate {
	return &Aggregate{
		PerformerID: performerID,
		PieceID:     pieceID,
		Level:       mastery.LevelNovice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy of a.
func (a *Aggregate) Clone() *Aggregate {
	c := *a
	if a.LastPracticeAt != nil {
		t := *a.LastPracticeAt
		c.LastPracticeAt = &t
	}
	if a.Goal != nil {
		g := *a.Goal
		c.Goal = &g
	}
	c.Badges = a.Badges.Merge(nil)
	return &c
}

// ApplySession folds one validated session into a: counters grow, the
// confidence is replaced, the level advances by at most one rule and
// milestone badges are added. It returns the badges newly earned.
// Counters saturate at math.MaxInt and LastPracticeAt only moves forward,
// so a backdated session does not rewind it.
// Pure apart from mutating a.
func ApplySession(a *Aggregate, rules mastery.RuleSet, duration, confidence int, at, now time.Time) []badges.Badge {
	a.PracticeCount = addSaturating(a.PracticeCount, 1)
	a.TotalMinutes = addSaturating(a.TotalMinutes, duration)
	a.Confidence = confidence
	if a.LastPracticeAt == nil || at.After(*a.LastPracticeAt) {
		practiced := at
		a.LastPracticeAt = &practiced
	}
	a.Level = rules.Next(a.Level, a.PracticeCount, a.TotalMinutes, confidence)

	earned := badges.Evaluate(badges.Snapshot{
		PracticeCount: a.PracticeCount,
		Level:         a.Level,
	}, a.Badges, now)
	a.Badges = a.Badges.Merge(earned)
	a.UpdatedAt = now
	return earned
}

// addSaturating adds a non-negative n to v, stopping at math.MaxInt.
func addSaturating(v, n int) int {
	if n > 0 && v > math.MaxInt-n {
		return math.MaxInt
	}
	return v + n
}

// errCorrupt marks a stored record that cannot be decoded. It is not retried.
type errCorrupt struct {
	err error
}

func (e *errCorrupt) Error() string { return "corrupt skill record: " + e.err.Error() }
func (e *errCorrupt) Unwrap() error { return e.err }

func fromRecord(rec *store.SkillRecord) (*Aggregate, error) {
	level, err := mastery.ParseLevel(rec.Level)
	if err != nil {
		return nil, &errCorrupt{err: err}
	}
	a := &Aggregate{
		PerformerID:    rec.PerformerID,
		PieceID:        rec.PieceID,
		Level:          level,
		PracticeCount:  rec.PracticeCount,
		TotalMinutes:   rec.TotalMinutes,
		LastPracticeAt: rec.LastPracticeAt,
		Confidence:     rec.Confidence,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
		Version:        rec.Version,
	}
	if rec.GoalDate != nil {
		d, err := ParseDate(*rec.GoalDate)
		if err != nil {
			return nil, &errCorrupt{err: err}
		}
		a.Goal = &d
	}
	for _, b := range rec.Badges {
		a.Badges.Add(badges.Badge{ID: badges.ID(b.BadgeID), EarnedAt: b.EarnedAt})
	}
	return a, nil
}

func (a *Aggregate) record() *store.SkillRecord {
	rec := &store.SkillRecord{
		PerformerID:    a.PerformerID,
		PieceID:        a.PieceID,
		Level:          a.Level.String(),
		PracticeCount:  a.PracticeCount,
		TotalMinutes:   a.TotalMinutes,
		LastPracticeAt: a.LastPracticeAt,
		Confidence:     a.Confidence,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		Version:        a.Version,
	}
	if a.Goal != nil {
		s := a.Goal.String()
		rec.GoalDate = &s
	}
	for _, b := range a.Badges.Badges() {
		rec.Badges = append(rec.Badges, store.BadgeRecord{BadgeID: string(b.ID), EarnedAt: b.EarnedAt})
	}
	return rec
}

// loadOrDefault reads the aggregate for the pair, or synthesizes the default
// when no record exists.
func loadOrDefault(ctx context.Context, repo store.SkillRepo, performerID, pieceID string, now time.Time) (*Aggregate, error) {
	rec, err := repo.Get(ctx, performerID, pieceID)
	if errors.Is(err, store.ErrNotFound) {
		return NewAggregate(performerID, pieceID, now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load skill: %w", err)
	}
	return fromRecord(rec)
}
