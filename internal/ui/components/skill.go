package components

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/repertoire/internal/ingest"
	"github.com/abhisek/repertoire/internal/mastery"
	"github.com/abhisek/repertoire/internal/practice"
	"github.com/abhisek/repertoire/internal/ui/theme"
)

const cardWidth = 48

// SkillCard renders one aggregate as a bordered card with a progress bar
// toward the next level.
func SkillCard(v ingest.View, rules mastery.RuleSet, now time.Time) string {
	level := v.Level.Level

	title := theme.Title.Render(v.PieceID) + "  " +
		theme.LevelStyle(level).Render(v.Level.Icon+" "+v.Level.Label)

	rows := []string{
		title,
		"",
		field("Sessions", strconv.Itoa(v.PracticeCount)),
		field("Minutes", strconv.Itoa(v.TotalPracticeMinutes)),
		field("Confidence", confidence(v.ConfidenceRating)),
		field("Last", lastPractice(v.LastPracticeAt)),
		field("Goal", GoalStatus(v.GoalDate, now)),
	}

	if len(v.Badges) > 0 {
		names := make([]string, 0, len(v.Badges))
		for _, b := range v.Badges {
			names = append(names, b.Icon+" "+b.Name)
		}
		rows = append(rows, field("Badges", theme.Badge.Render(strings.Join(names, "  "))))
	}

	next := "Top level reached"
	if r, ok := rules.Rule(level); ok {
		next = "Next: " + r.To.Label()
	}
	bar := NewProgressBar("", rules.Progress(level, v.PracticeCount, v.TotalPracticeMinutes), true, cardWidth-4)
	rows = append(rows, "", theme.Hint.Render(next), bar.View())

	return theme.Card.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// SkillTable renders a performer's aggregates as a table, one row per piece.
func SkillTable(views []ingest.View, now time.Time) string {
	if len(views) == 0 {
		return theme.Hint.Render("No practice recorded yet.")
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.PieceID,
			v.Level.Icon + " " + v.Level.Label,
			strconv.Itoa(v.PracticeCount),
			strconv.Itoa(v.TotalPracticeMinutes),
			strconv.Itoa(v.ConfidenceRating),
			GoalStatus(v.GoalDate, now),
			strconv.Itoa(len(v.Badges)),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.TableBorder).
		Headers("PIECE", "LEVEL", "SESSIONS", "MINUTES", "CONF", "GOAL", "BADGES").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			if col == 1 {
				return theme.LevelStyle(views[row].Level.Level).Padding(0, 1)
			}
			return theme.TableCell
		})
	return t.Render()
}

// HistoryTable renders recorded sessions, newest first as given.
func HistoryTable(items []ingest.HistoryItem) string {
	if len(items) == 0 {
		return theme.Hint.Render("No sessions recorded.")
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			strconv.FormatInt(it.Sequence, 10),
			it.PracticedAt.Local().Format("2006-01-02 15:04"),
			it.PieceID,
			strconv.Itoa(it.DurationMinutes),
			strconv.Itoa(it.ConfidenceRating),
			truncate(it.Notes, 40),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.TableBorder).
		Headers("#", "WHEN", "PIECE", "MIN", "CONF", "NOTES").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			return theme.TableCell
		}).
		Render()
}

// GoalStatus describes a goal date relative to now.
func GoalStatus(goal *practice.Date, now time.Time) string {
	if goal == nil {
		return theme.Hint.Render("none")
	}
	days := int(goal.Time().Sub(practice.DateOf(now).Time()).Hours() / 24)
	switch {
	case days < 0:
		return theme.Overdue.Render(fmt.Sprintf("%s (%dd overdue)", goal, -days))
	case days == 0:
		return theme.Goal.Render(fmt.Sprintf("%s (today)", goal))
	default:
		return theme.Goal.Render(fmt.Sprintf("%s (in %dd)", goal, days))
	}
}

func field(label, value string) string {
	return theme.Label.Render(label) + value
}

func confidence(n int) string {
	if n <= 0 {
		return theme.Hint.Render("-")
	}
	n = min(n, practice.MaxConfidence)
	return strings.Repeat("★", n) + theme.Hint.Render(strings.Repeat("☆", practice.MaxConfidence-n))
}

func lastPractice(t *time.Time) string {
	if t == nil {
		return theme.Hint.Render("never")
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
