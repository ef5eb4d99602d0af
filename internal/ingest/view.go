package ingest

import (
	"time"

	"github.com/abhisek/repertoire/internal/badges"
	"github.com/abhisek/repertoire/internal/mastery"
	"github.com/abhisek/repertoire/internal/practice"
	"github.com/abhisek/repertoire/internal/store"
)

// View is the caller-facing shape of a skill aggregate.
type View struct {
	PerformerID          string            `json:"performer_id"`
	PieceID              string            `json:"piece_id"`
	Level                mastery.LevelInfo `json:"level"`
	PracticeCount        int               `json:"practice_count"`
	TotalPracticeMinutes int               `json:"total_practice_minutes"`
	LastPracticeAt       *time.Time        `json:"last_practice_at"`
	ConfidenceRating     int               `json:"confidence_rating"`
	GoalDate             *practice.Date    `json:"goal_date"`
	Badges               []BadgeView       `json:"badges"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// BadgeView is an earned badge with its display metadata.
type BadgeView struct {
	ID       badges.ID `json:"id"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon"`
	EarnedAt time.Time `json:"earned_at"`
}

// NewView renders an aggregate.
func NewView(a *practice.Aggregate) View {
	v := View{
		PerformerID:          a.PerformerID,
		PieceID:              a.PieceID,
		Level:                mastery.Info(a.Level),
		PracticeCount:        a.PracticeCount,
		TotalPracticeMinutes: a.TotalMinutes,
		LastPracticeAt:       a.LastPracticeAt,
		ConfidenceRating:     a.Confidence,
		GoalDate:             a.Goal,
		Badges:               make([]BadgeView, 0, a.Badges.Len()),
		UpdatedAt:            a.UpdatedAt,
	}
	for _, b := range a.Badges.Badges() {
		v.Badges = append(v.Badges, BadgeView{
			ID:       b.ID,
			Name:     b.ID.DisplayName(),
			Icon:     b.ID.Icon(),
			EarnedAt: b.EarnedAt,
		})
	}
	return v
}

// HistoryItem is one recorded practice session.
type HistoryItem struct {
	ID               string     `json:"id"`
	Sequence         int64      `json:"sequence"`
	PieceID          string     `json:"piece_id"`
	DurationMinutes  int        `json:"duration_minutes"`
	ConfidenceRating int        `json:"confidence_rating"`
	Notes            string     `json:"notes,omitempty"`
	PracticedAt      time.Time  `json:"practiced_at"`
	AppliedAt        *time.Time `json:"applied_at,omitempty"` // nil: awaiting retry
}

func newHistoryItem(e store.HistoryEntry) HistoryItem {
	return HistoryItem{
		ID:               e.ID,
		Sequence:         e.Sequence,
		PieceID:          e.PieceID,
		DurationMinutes:  e.Duration,
		ConfidenceRating: e.Confidence,
		Notes:            e.Notes,
		PracticedAt:      e.PracticedAt,
		AppliedAt:        e.AppliedAt,
	}
}
