package badges

import "time"

// ID identifies an achievement badge.
type ID string

const (
	FirstPractice ID = "first_practice"
	Consistent5   ID = "consistent_5"
	MasterLevel   ID = "master_level"
)

// AllIDs returns every known badge in display order.
func AllIDs() []ID {
	return []ID{FirstPractice, Consistent5, MasterLevel}
}

// Known reports whether id is one of the defined badges.
func (id ID) Known() bool {
	switch id {
	case FirstPractice, Consistent5, MasterLevel:
		return true
	}
	return false
}

// DisplayName returns a human-readable label for the badge.
func (id ID) DisplayName() string {
	switch id {
	case FirstPractice:
		return "First Practice"
	case Consistent5:
		return "Consistent"
	case MasterLevel:
		return "Master"
	default:
		return string(id)
	}
}

// Icon returns the display icon for the badge.
func (id ID) Icon() string {
	switch id {
	case FirstPractice:
		return "🎵"
	case Consistent5:
		return "⚡"
	case MasterLevel:
		return "👑"
	default:
		return "✦"
	}
}

// Badge is a single earned milestone.
type Badge struct {
	ID       ID        `json:"id"`
	EarnedAt time.Time `json:"earned_at"`
}
