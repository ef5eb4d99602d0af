package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/repertoire/internal/store"
)

var pieceCmd = &cobra.Command{
	Use:   "piece",
	Short: "Manage the piece catalog",
}

var pieceAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a piece to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		composer, _ := cmd.Flags().GetString("composer")
		publish, _ := cmd.Flags().GetBool("publish")
		if title == "" {
			title = args[0]
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p := store.Piece{ID: args[0], Title: title, Composer: composer, Published: publish}
		if err := a.Store.PieceRepo().Create(cmd.Context(), p); err != nil {
			return fmt.Errorf("add piece: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added piece %s (%s)\n", p.ID, publishedLabel(p.Published))
		return nil
	},
}

var pieceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog pieces",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		pieces, err := a.Store.PieceRepo().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list pieces: %w", err)
		}
		if len(pieces) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No pieces found.")
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-24s  %-32s  %-20s  %s\n", "ID", "Title", "Composer", "Status")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, p := range pieces {
			title := p.Title
			if len(title) > 32 {
				title = title[:29] + "..."
			}
			fmt.Fprintf(out, "%-24s  %-32s  %-20s  %s\n", p.ID, title, p.Composer, publishedLabel(p.Published))
		}
		fmt.Fprintf(out, "\n%d pieces\n", len(pieces))
		return nil
	},
}

var piecePublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Publish a piece so sessions can be recorded against it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unpublish, _ := cmd.Flags().GetBool("unpublish")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.PieceRepo().SetPublished(cmd.Context(), args[0], !unpublish); err != nil {
			return fmt.Errorf("publish piece: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Piece %s is now %s\n", args[0], publishedLabel(!unpublish))
		return nil
	},
}

func publishedLabel(published bool) string {
	if published {
		return "published"
	}
	return "draft"
}

var performerCmd = &cobra.Command{
	Use:   "performer",
	Short: "Manage performer profiles",
}

var performerAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Create a performer profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = args[0]
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.PerformerRepo().Create(cmd.Context(), store.Performer{ID: args[0], DisplayName: name}); err != nil {
			return fmt.Errorf("add performer: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added performer %s\n", args[0])
		return nil
	},
}

var performerTokenCmd = &cobra.Command{
	Use:   "token <id>",
	Short: "Issue an API token for a performer",
	Long:  "Issue an API token for a performer. Requires token.secret so the server accepts it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Config.Token.Secret == "" {
			return fmt.Errorf("token.secret is not configured; set REPERTOIRE_TOKEN_SECRET")
		}
		if _, err := a.Store.PerformerRepo().Get(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("performer %s: %w", args[0], err)
		}
		token, err := a.Tokens.IssueToken(args[0])
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	pieceAddCmd.Flags().String("title", "", "Display title (default: the id)")
	pieceAddCmd.Flags().String("composer", "", "Composer or author")
	pieceAddCmd.Flags().Bool("publish", false, "Publish immediately")
	piecePublishCmd.Flags().Bool("unpublish", false, "Move the piece back to draft")

	pieceCmd.AddCommand(pieceAddCmd)
	pieceCmd.AddCommand(pieceListCmd)
	pieceCmd.AddCommand(piecePublishCmd)

	performerAddCmd.Flags().String("name", "", "Display name (default: the id)")

	performerCmd.AddCommand(performerAddCmd)
	performerCmd.AddCommand(performerTokenCmd)
}
