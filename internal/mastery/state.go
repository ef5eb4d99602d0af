package mastery

import (
	"fmt"
	"log/slog"
)

// Level is a performer's position in the skill progression for a piece.
// Levels are ordered: a higher value is further along.
type Level uint8

const (
	LevelUnknown Level = iota
	LevelNovice
	LevelLearning
	LevelProficient
	LevelMastered
)

var levelNames = [...]string{
	LevelUnknown:    "unknown",
	LevelNovice:     "novice",
	LevelLearning:   "learning",
	LevelProficient: "proficient",
	LevelMastered:   "mastered",
}

// AllLevels returns every level in progression order.
func AllLevels() []Level {
	return []Level{LevelUnknown, LevelNovice, LevelLearning, LevelProficient, LevelMastered}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return int(l) < len(levelNames)
}

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("level(%d)", uint8(l))
	}
	return levelNames[l]
}

// Ordinal returns the zero-based position of l in the progression.
func (l Level) Ordinal() int {
	return int(l)
}

// Before reports whether l comes earlier in the progression than other.
func (l Level) Before(other Level) bool {
	return l < other
}

// ParseLevel maps a stored level name back to a Level.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelUnknown, fmt.Errorf("unknown skill level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid skill level %d", uint8(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Transition records a level change for display and logging.
type Transition struct {
	PerformerID string
	PieceID     string
	From        Level
	To          Level
	Trigger     string // rule that fired, e.g. "learning->proficient"
}

// LogValue implements slog.LogValuer.
func (t Transition) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("performer", t.PerformerID),
		slog.String("piece", t.PieceID),
		slog.String("from", t.From.String()),
		slog.String("to", t.To.String()),
		slog.String("trigger", t.Trigger),
	)
}
