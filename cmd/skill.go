package cmd

import (
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/repertoire/internal/ui/components"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Show skill progression",
}

var skillShowCmd = &cobra.Command{
	Use:   "show <piece>",
	Short: "Show the skill of a performer on one piece",
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

		v, err := a.Service.GetSkill(cmd.Context(), performer, args[0])
		if err != nil {
			return err
		}
		if v == nil {
			return fmt.Errorf("no practice recorded for %s on %s", performer, args[0])
		}
		return printView(cmd, a, *v)
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every skill of a performer",
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

		views, err := a.Service.ListSkills(cmd.Context(), performer)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd, views)
		}
		if _, err := lipgloss.Fprintln(cmd.OutOrStdout(), components.SkillTable(views, time.Now())); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d skills\n", len(views))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{skillShowCmd, skillListCmd} {
		c.Flags().String("performer", "", "Performer id")
		c.Flags().Bool("json", false, "Print JSON instead of a formatted view")
	}

	skillCmd.AddCommand(skillShowCmd)
	skillCmd.AddCommand(skillListCmd)
}
