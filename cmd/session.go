package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/repertoire/internal/app"
	"github.com/abhisek/repertoire/internal/ingest"
	"github.com/abhisek/repertoire/internal/practice"
	"github.com/abhisek/repertoire/internal/ui/components"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Record and inspect practice sessions",
}

var sessionRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record one practice session",
	RunE: func(cmd *cobra.Command, args []string) error {
		performer, err := performerFlag(cmd)
		if err != nil {
			return err
		}
		in := ingest.SessionInput{}
		in.PieceID, _ = cmd.Flags().GetString("piece")
		in.DurationMinutes, _ = cmd.Flags().GetInt("minutes")
		in.ConfidenceRating, _ = cmd.Flags().GetInt("confidence")
		in.Notes, _ = cmd.Flags().GetString("notes")
		if at, _ := cmd.Flags().GetString("at"); at != "" {
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("--at must be RFC 3339: %w", err)
			}
			in.SubmittedAt = t
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.Tokens.IssueToken(performer)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		v, err := a.Service.RecordSession(cmd.Context(), token, in)
		if err != nil {
			return explain(cmd, err)
		}
		return printView(cmd, a, v)
	},
}

var sessionImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Record sessions from JSON reports, one per line (reads stdin when file is - or omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		performer, err := performerFlag(cmd)
		if err != nil {
			return err
		}

		var r io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open reports: %w", err)
			}
			defer f.Close()
			r = f
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.Tokens.IssueToken(performer)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}

		imported, failed, err := importReports(cmd, a, token, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d imported, %d failed\n", imported, failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d reports failed", failed, imported+failed)
		}
		return nil
	},
}

// importReports records each non-blank line of r as a session report. A bad
// line is reported on stderr and does not stop the import.
func importReports(cmd *cobra.Command, a *app.App, token string, r io.Reader) (imported, failed int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		in, err := ingest.DecodeReport([]byte(raw))
		if err == nil {
			_, err = a.Service.RecordSession(cmd.Context(), token, in)
		}
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %v\n", line, err)
			continue
		}
		imported++
	}
	if err := sc.Err(); err != nil {
		return imported, failed, fmt.Errorf("read reports: %w", err)
	}
	return imported, failed, nil
}

var sessionRetryCmd = &cobra.Command{
	Use:   "retry <history-id>",
	Short: "Apply a recorded session whose skill update failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		performer, err := performerFlag(cmd)
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.Tokens.IssueToken(performer)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		v, err := a.Service.RetryAggregate(cmd.Context(), token, args[0])
		if err != nil {
			return explain(cmd, err)
		}
		return printView(cmd, a, v)
	},
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sessions for a piece",
	RunE: func(cmd *cobra.Command, args []string) error {
		performer, err := performerFlag(cmd)
		if err != nil {
			return err
		}
		piece, _ := cmd.Flags().GetString("piece")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.Service.History(cmd.Context(), performer, piece, limit)
		if err != nil {
			return explain(cmd, err)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd, items)
		}
		_, err = lipgloss.Fprintln(cmd.OutOrStdout(), components.HistoryTable(items))
		return err
	},
}

// printView renders a skill as a card, or as JSON with --json.
func printView(cmd *cobra.Command, a *app.App, v ingest.View) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd, v)
	}
	_, err := lipgloss.Fprintln(cmd.OutOrStdout(), components.SkillCard(v, a.Rules, time.Now()))
	return err
}

// explain adds a recovery hint for partial writes before returning err.
func explain(cmd *cobra.Command, err error) error {
	var pw *practice.ErrPartialWrite
	if errors.As(err, &pw) {
		performer, _ := cmd.Flags().GetString("performer")
		fmt.Fprintf(cmd.ErrOrStderr(),
			"session saved as %s but the skill was not updated; run: repertoire session retry %s --performer %s\n",
			pw.HistoryID, pw.HistoryID, performer)
	}
	return err
}

func init() {
	for _, c := range []*cobra.Command{sessionRecordCmd, sessionImportCmd, sessionRetryCmd, sessionHistoryCmd} {
		c.Flags().String("performer", "", "Performer id")
	}
	for _, c := range []*cobra.Command{sessionRecordCmd, sessionRetryCmd, sessionHistoryCmd} {
		c.Flags().Bool("json", false, "Print JSON instead of a formatted view")
	}

	sessionRecordCmd.Flags().String("piece", "", "Piece id")
	sessionRecordCmd.Flags().Int("minutes", 0, "Duration in minutes, clamped to 1-1440")
	sessionRecordCmd.Flags().Int("confidence", 0, "Confidence rating 1-5 (out-of-range values default to 3)")
	sessionRecordCmd.Flags().String("notes", "", "Free-form notes")
	sessionRecordCmd.Flags().String("at", "", "Practice time in RFC 3339 (default now)")

	sessionHistoryCmd.Flags().String("piece", "", "Piece id")
	sessionHistoryCmd.Flags().Int("limit", 20, "Maximum sessions to show (0 for all)")

	sessionCmd.AddCommand(sessionRecordCmd)
	sessionCmd.AddCommand(sessionImportCmd)
	sessionCmd.AddCommand(sessionRetryCmd)
	sessionCmd.AddCommand(sessionHistoryCmd)
}
