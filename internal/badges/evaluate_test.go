package badges

import (
	"testing"
	"time"

	"github.com/abhisek/repertoire/internal/mastery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

func ids(bs []Badge) []ID {
	out := make([]ID, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		snap     Snapshot
		existing Set
		want     []ID
	}{
		{
			name: "first session",
			snap: Snapshot{PracticeCount: 1, Level: mastery.LevelLearning},
			want: []ID{FirstPractice},
		},
		{
			name: "no sessions yet",
			snap: Snapshot{PracticeCount: 0, Level: mastery.LevelNovice},
			want: nil,
		},
		{
			name:     "second session earns nothing",
			snap:     Snapshot{PracticeCount: 2, Level: mastery.LevelLearning},
			existing: NewSet(Badge{ID: FirstPractice, EarnedAt: testNow}),
			want:     nil,
		},
		{
			name:     "fifth session",
			snap:     Snapshot{PracticeCount: 5, Level: mastery.LevelProficient},
			existing: NewSet(Badge{ID: FirstPractice, EarnedAt: testNow}),
			want:     []ID{Consistent5},
		},
		{
			name:     "fifth session reaching mastery",
			snap:     Snapshot{PracticeCount: 5, Level: mastery.LevelMastered},
			existing: NewSet(Badge{ID: FirstPractice, EarnedAt: testNow}),
			want:     []ID{Consistent5, MasterLevel},
		},
		{
			name: "everything already earned",
			snap: Snapshot{PracticeCount: 9, Level: mastery.LevelMastered},
			existing: NewSet(
				Badge{ID: FirstPractice, EarnedAt: testNow},
				Badge{ID: Consistent5, EarnedAt: testNow},
				Badge{ID: MasterLevel, EarnedAt: testNow},
			),
			want: nil,
		},
		{
			name: "missed first_practice is not backfilled",
			snap: Snapshot{PracticeCount: 6, Level: mastery.LevelProficient},
			want: []ID{Consistent5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.snap, tt.existing, testNow)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, ids(got))
			for _, b := range got {
				assert.True(t, b.EarnedAt.Equal(testNow))
			}
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	snap := Snapshot{PracticeCount: 5, Level: mastery.LevelMastered}
	first := Evaluate(snap, Set{}, testNow)
	require.Len(t, first, 2)

	merged := Set{}.Merge(first)
	later := testNow.Add(time.Hour)
	second := Evaluate(snap, merged, later)
	assert.Empty(t, second)

	remerged := merged.Merge(Evaluate(snap, Set{}, later))
	assert.Equal(t, merged.Len(), remerged.Len())
	b, ok := remerged.Get(MasterLevel)
	require.True(t, ok)
	assert.True(t, b.EarnedAt.Equal(testNow), "earned_at was re-stamped")
}

func TestEvaluateRules_DuplicateRuleIDsFireOnce(t *testing.T) {
	always := func(Snapshot) bool { return true }
	rules := []Rule{{ID: FirstPractice, Earned: always}, {ID: FirstPractice, Earned: always}}
	got := EvaluateRules(rules, Snapshot{}, Set{}, testNow)
	assert.Len(t, got, 1)
}
