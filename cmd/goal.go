package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/repertoire/internal/ui/components"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage target mastery dates",
}

var goalSetCmd = &cobra.Command{
	Use:   "set <piece> <YYYY-MM-DD>",
	Short: "Set the target date for a piece",
	Args:  cobra.ExactArgs(2),
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
		v, err := a.Service.SetGoal(cmd.Context(), token, args[0], args[1])
		if err != nil {
			return err
		}
		return printView(cmd, a, v)
	},
}

var goalClearCmd = &cobra.Command{
	Use:   "clear <piece>",
	Short: "Remove the target date for a piece",
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
		v, err := a.Service.ClearGoal(cmd.Context(), token, args[0])
		if err != nil {
			return err
		}
		return printView(cmd, a, v)
	},
}

var goalGetCmd = &cobra.Command{
	Use:   "get <piece>",
	Short: "Show the target date for a piece",
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

		d, err := a.Service.GetGoal(cmd.Context(), performer, args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd, map[string]any{"goal_date": d})
		}
		fmt.Fprintln(cmd.OutOrStdout(), components.GoalStatus(d, time.Now()))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{goalSetCmd, goalClearCmd, goalGetCmd} {
		c.Flags().String("performer", "", "Performer id")
		c.Flags().Bool("json", false, "Print JSON instead of a formatted view")
	}

	goalCmd.AddCommand(goalSetCmd)
	goalCmd.AddCommand(goalGetCmd)
	goalCmd.AddCommand(goalClearCmd)
}
