package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrowmud/harrow/engine"
	"github.com/harrowmud/harrow/world"
)

var (
	contentDir string
	worldDir   string
)

var rootCmd = &cobra.Command{
	Use:   "harrow",
	Short: "harrow - data-driven flow/trigger engine for multiplayer text games",
	Long: `harrow executes tree-shaped, content-defined flow programs, reacts to
in-game events through priority-ordered triggers, and attaches reusable
behavior packages to objects without code changes.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&contentDir, "content", "content", "directory with flow/trigger/package YAML files")
	rootCmd.PersistentFlags().StringVar(&worldDir, "world", "content", "directory with world object YAML files")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func loadApp(cfg engine.Config) (*engine.App, error) {
	store, err := world.LoadDir(worldDir)
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	cfg.ContentDir = contentDir
	app, err := engine.NewApp(cfg, store, newLogger())
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	return app, nil
}
