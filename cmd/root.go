package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/repertoire/internal/app"
	"github.com/abhisek/repertoire/internal/config"
	"github.com/abhisek/repertoire/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:          "repertoire",
	Short:        "Track practice sessions and skill progression",
	Long:         "Repertoire records practice sessions per performer and piece, and derives mastery levels, badges and goals from them.",
	SilenceUsage: true,
}

func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the command tree with ctx as every command's context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides REPERTOIRE_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/repertoire/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(skillCmd)
	rootCmd.AddCommand(pieceCmd)
	rootCmd.AddCommand(performerCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies the persistent flags, which
// take priority over the file and the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DB.Path = p
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.Log.Level = l
	}
	return cfg, nil
}

// openApp loads configuration, builds the logger and opens the store.
// Callers must Close the returned App.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logging.Config{
		Output: cmd.ErrOrStderr(),
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return app.New(cfg, log)
}

// performerFlag returns the required --performer flag.
func performerFlag(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("performer")
	if p == "" {
		return "", fmt.Errorf("--performer is required")
	}
	return p, nil
}

// writeJSON prints v as indented JSON.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
