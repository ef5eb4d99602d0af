package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/repertoire/internal/logging"
	"github.com/abhisek/repertoire/internal/mastery"
	"github.com/abhisek/repertoire/internal/store"
)

// Defaults for engine options.
const (
	DefaultStoreTimeout       = 5 * time.Second
	DefaultMaxConflictRetries = 5
)

// Option configures an Aggregator or Goals.
type Option func(*engine)

// WithLocks shares a KeyedMutex between components so that all writers to a
// pair in this process are serialized.
func WithLocks(km *KeyedMutex) Option {
	return func(e *engine) { e.locks = km }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *engine) { e.now = now }
}

// WithRules replaces the promotion rule table. The table is validated when
// the component is constructed.
func WithRules(rs mastery.RuleSet) Option {
	return func(e *engine) { e.rules = rs }
}

// WithRetry sets the transient-error retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(e *engine) { e.retry = cfg }
}

// WithStoreTimeout bounds each individual store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *engine) { e.storeTimeout = d }
}

// WithMaxConflictRetries bounds how many times a lost optimistic write is
// reloaded and recomputed.
func WithMaxConflictRetries(n int) Option {
	return func(e *engine) { e.maxConflicts = n }
}

// engine holds what the Aggregator and Goals share: the repository, the
// per-pair lock and the read-modify-write loop.
type engine struct {
	skills       store.SkillRepo
	locks        *KeyedMutex
	log          *slog.Logger
	now          func() time.Time
	rules        mastery.RuleSet
	retry        RetryConfig
	storeTimeout time.Duration
	maxConflicts int
}

func newEngine(skills store.SkillRepo, opts []Option) (*engine, error) {
	e := &engine{
		skills:       skills,
		log:          logging.Discard(),
		now:          time.Now,
		rules:        mastery.DefaultRules(),
		retry:        DefaultRetryConfig(),
		storeTimeout: DefaultStoreTimeout,
		maxConflicts: DefaultMaxConflictRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.locks == nil {
		e.locks = &KeyedMutex{}
	}
	if err := e.rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid promotion rules: %w", err)
	}
	return e, nil
}

func (e *engine) clock() time.Time {
	return e.now().UTC()
}

// call runs fn under the retry policy and per-call timeout.
func (e *engine) call(ctx context.Context, op string, fn func(context.Context) error) error {
	return e.retry.do(ctx, e.storeTimeout, func(attempt int, err error) {
		e.log.Warn("retrying store call", "op", op, "attempt", attempt, "error", err)
	}, fn)
}

// mutate performs a serialized read-modify-write of one aggregate. change is
// applied to a fresh copy on every attempt, so it must derive everything from
// its argument. A lost optimistic write reloads and reapplies change.
//
// A non-empty historyID is marked applied in the same write; an entry that
// was already applied leaves the aggregate untouched.
func (e *engine) mutate(ctx context.Context, op, performerID, pieceID, historyID string, change func(a *Aggregate, now time.Time)) (*Aggregate, error) {
	unlock := e.locks.Lock(pairKey(performerID, pieceID))
	defer unlock()

	for conflicts := 0; ; conflicts++ {
		now := e.clock()

		var current *Aggregate
		err := e.call(ctx, op, func(ctx context.Context) error {
			var err error
			current, err = loadOrDefault(ctx, e.skills, performerID, pieceID, now)
			return err
		})
		if err != nil {
			return nil, &ErrStorage{Op: op, Err: err}
		}

		next := current.Clone()
		change(next, now)
		next.UpdatedAt = now

		rec := next.record()
		rec.AppliedHistoryID = historyID
		err = e.call(ctx, op, func(ctx context.Context) error {
			return e.skills.Save(ctx, rec)
		})
		if errors.Is(err, store.ErrConflict) && conflicts < e.maxConflicts {
			e.log.Debug("optimistic write conflict, reloading",
				"op", op, "performer", performerID, "piece", pieceID, "version", rec.Version)
			continue
		}
		if errors.Is(err, store.ErrAlreadyApplied) {
			return nil, &ErrValidation{Field: "history_id", Reason: "session already applied"}
		}
		if err != nil {
			return nil, &ErrStorage{Op: op, Err: err}
		}

		next.Version = rec.Version
		return next, nil
	}
}

// lookup returns the stored aggregate, or nil when none exists.
func (e *engine) lookup(ctx context.Context, performerID, pieceID string) (*Aggregate, error) {
	var rec *store.SkillRecord
	err := e.call(ctx, "lookup", func(ctx context.Context) error {
		var err error
		rec, err = e.skills.Get(ctx, performerID, pieceID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &ErrStorage{Op: "lookup", Err: err}
	}
	a, err := fromRecord(rec)
	if err != nil {
		return nil, &ErrStorage{Op: "lookup", Err: err}
	}
	return a, nil
}

func validatePair(performerID, pieceID string) error {
	if performerID == "" {
		return &ErrValidation{Field: "performer_id", Reason: "must not be empty"}
	}
	if pieceID == "" {
		return &ErrValidation{Field: "piece_id", Reason: "must not be empty"}
	}
	return nil
}
