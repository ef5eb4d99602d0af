package mastery

// LevelInfo is the static display metadata for a level.
type LevelInfo struct {
	Level   Level  `json:"id"`
	Label   string `json:"label"`
	Ordinal int    `json:"ordinal"`
	Color   string `json:"color"` // hex RGB
	Icon    string `json:"icon"`
}

var levelInfo = [...]LevelInfo{
	LevelUnknown:    {Level: LevelUnknown, Label: "Unknown", Ordinal: 0, Color: "#94A3B8", Icon: "?"},
	LevelNovice:     {Level: LevelNovice, Label: "Novice", Ordinal: 1, Color: "#38BDF8", Icon: "🌱"},
	LevelLearning:   {Level: LevelLearning, Label: "Learning", Ordinal: 2, Color: "#F59E0B", Icon: "📖"},
	LevelProficient: {Level: LevelProficient, Label: "Proficient", Ordinal: 3, Color: "#8B5CF6", Icon: "🎯"},
	LevelMastered:   {Level: LevelMastered, Label: "Mastered", Ordinal: 4, Color: "#22C55E", Icon: "🏆"},
}

// Info returns the display metadata for l. Undefined levels render as unknown.
func Info(l Level) LevelInfo {
	if !l.Valid() {
		return levelInfo[LevelUnknown]
	}
	return levelInfo[l]
}

// Label returns the human-readable name of the level.
func (l Level) Label() string {
	return Info(l).Label
}
