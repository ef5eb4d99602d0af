package mastery

import "testing"

func TestInfo_EveryLevelHasMetadata(t *testing.T) {
	for _, l := range AllLevels() {
		info := Info(l)
		if info.Level != l {
			t.Errorf("Info(%s).Level = %s", l, info.Level)
		}
		if info.Ordinal != l.Ordinal() {
			t.Errorf("Info(%s).Ordinal = %d, want %d", l, info.Ordinal, l.Ordinal())
		}
		if info.Label == "" || info.Icon == "" {
			t.Errorf("Info(%s) missing label or icon: %+v", l, info)
		}
		if len(info.Color) != 7 || info.Color[0] != '#' {
			t.Errorf("Info(%s).Color = %q, want #RRGGBB", l, info.Color)
		}
	}
}

func TestInfo_UndefinedLevelFallsBackToUnknown(t *testing.T) {
	info := Info(Level(42))
	if info.Level != LevelUnknown {
		t.Errorf("got %s, want unknown", info.Level)
	}
}

func TestLabel(t *testing.T) {
	if got := LevelProficient.Label(); got != "Proficient" {
		t.Errorf("Label = %q, want Proficient", got)
	}
}
