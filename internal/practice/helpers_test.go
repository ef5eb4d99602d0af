package practice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/repertoire/internal/store"
)

var testNow = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond, Multiplier: 2}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func mustAggregator(t *testing.T, skills store.SkillRepo, opts ...Option) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(skills, opts...)
	require.NoError(t, err)
	return agg
}

func mustGoals(t *testing.T, skills store.SkillRepo, opts ...Option) *Goals {
	t.Helper()
	g, err := NewGoals(skills, opts...)
	require.NoError(t, err)
	return g
}

// flakyRepo fails the next saveFailures Save calls with saveErr.
type flakyRepo struct {
	store.SkillRepo

	mu           sync.Mutex
	saveFailures int
	saveErr      error
	saves        int
}

func (f *flakyRepo) Save(ctx context.Context, rec *store.SkillRecord) error {
	f.mu.Lock()
	f.saves++
	if f.saveFailures > 0 {
		f.saveFailures--
		f.mu.Unlock()
		return f.saveErr
	}
	f.mu.Unlock()
	return f.SkillRepo.Save(ctx, rec)
}

func (f *flakyRepo) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// racingRepo runs race once, just before the first Save reaches the store.
type racingRepo struct {
	store.SkillRepo
	once sync.Once
	race func()
}

func (r *racingRepo) Save(ctx context.Context, rec *store.SkillRecord) error {
	r.once.Do(r.race)
	return r.SkillRepo.Save(ctx, rec)
}
