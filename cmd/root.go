package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pitchside/go-pitch-events/internal/config"
)

var (
	dbPath  string
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "pitchevents",
	Short: "Soccer tracking event engine",
	Long:  "Derive possession, pass, shot, goal, and zone events from per-frame player and ball tracking data.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".pitchevents", "events.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML detection params (default $PITCH_CONFIG)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(passesCmd)
	rootCmd.AddCommand(zonesCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dropCmd)
}

// loadParams layers defaults, the optional config file, and env vars, with
// CLI flags applied on top by the caller.
func loadParams() (*config.Params, error) {
	params, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load params: %w", err)
	}
	return params, nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
