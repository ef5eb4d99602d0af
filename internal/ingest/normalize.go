package ingest

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abhisek/repertoire/internal/practice"
)

// Normalization bounds for incoming reports.
const (
	MinDuration       = 1
	MaxDuration       = practice.MaxSessionMinutes
	DefaultConfidence = 3
	MaxNotesLength    = 2000
)

// NormalizeDuration clamps durations to between one minute and one day.
func NormalizeDuration(minutes int) int {
	return min(max(minutes, MinDuration), MaxDuration)
}

// NormalizeConfidence replaces ratings outside 1–5 with the neutral 3.
func NormalizeConfidence(rating int) int {
	if rating < practice.MinConfidence || rating > practice.MaxConfidence {
		return DefaultConfidence
	}
	return rating
}

func normalize(in SessionInput, now time.Time) SessionInput {
	in.PieceID = strings.TrimSpace(in.PieceID)
	in.DurationMinutes = NormalizeDuration(in.DurationMinutes)
	in.ConfidenceRating = NormalizeConfidence(in.ConfidenceRating)
	in.Notes = strings.TrimSpace(in.Notes)
	if len(in.Notes) > MaxNotesLength {
		in.Notes = truncate(in.Notes, MaxNotesLength)
	}
	if in.SubmittedAt.IsZero() {
		in.SubmittedAt = now
	}
	in.SubmittedAt = in.SubmittedAt.UTC()
	return in
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
