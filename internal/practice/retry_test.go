package practice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/repertoire/internal/store"
)

func TestBackoff_Bounds(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 5, InitialWait: 10 * time.Millisecond, MaxWait: 50 * time.Millisecond, Multiplier: 2}

	for attempt := range 6 {
		base := float64(10*time.Millisecond) * float64(int(1)<<attempt)
		if base > float64(50*time.Millisecond) {
			base = float64(50 * time.Millisecond)
		}
		got := cfg.backoff(attempt)
		assert.GreaterOrEqual(t, float64(got), base*0.8-1, "attempt %d", attempt)
		assert.LessOrEqual(t, float64(got), base*1.2+1, "attempt %d", attempt)
	}
}

func TestRetryDo(t *testing.T) {
	transient := errors.New("database is locked")

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{"success first try", nil, 1, nil},
		{"recovers after transient", []error{transient, transient}, 3, nil},
		{"gives up after max attempts", []error{transient, transient, transient, transient}, 3, transient},
		{"conflict not retried", []error{store.ErrConflict}, 1, store.ErrConflict},
		{"not found not retried", []error{store.ErrNotFound}, 1, store.ErrNotFound},
		{"already applied not retried", []error{store.ErrAlreadyApplied}, 1, store.ErrAlreadyApplied},
		{"canceled not retried", []error{context.Canceled}, 1, context.Canceled},
		{"attempt timeout retried", []error{context.DeadlineExceeded}, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := fastRetry().do(context.Background(), 0, nil, func(context.Context) error {
				calls++
				if calls <= len(tt.errs) {
					return tt.errs[calls-1]
				}
				return nil
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRetryDo_PerAttemptTimeout(t *testing.T) {
	var deadlines []bool
	_ = fastRetry().do(context.Background(), 20*time.Millisecond, nil, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		deadlines = append(deadlines, ok)
		return nil
	})
	assert.Equal(t, []bool{true}, deadlines)
}

func TestRetryDo_StopsOnCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryConfig{MaxAttempts: 5, InitialWait: time.Hour, MaxWait: time.Hour, Multiplier: 1}.do(ctx, 0,
		func(int, error) { cancel() },
		func(context.Context) error {
			calls++
			return errors.New("transient")
		})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
