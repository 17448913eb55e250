package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"routine-tracker/internal/config"
)

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "routinetracker",
		Short: "Daily routine tracker",
		Long: `routinetracker plans recurring and single-day tasks, records what got done
and reports streaks. "serve" runs the Telegram bot; the other commands work on
the same database from the shell.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./routinetracker.yaml)")

	load := func() (config.Config, error) {
		return config.LoadFile(configPath)
	}

	rootCmd.AddCommand(newServeCmd(load))
	rootCmd.AddCommand(newTodayCmd(load))
	rootCmd.AddCommand(newToggleCmd(load))
	rootCmd.AddCommand(newStreakCmd(load))
	rootCmd.AddCommand(newStatsCmd(load))
	rootCmd.AddCommand(newExportCmd(load))
	rootCmd.AddCommand(newImportCmd(load))
	rootCmd.AddCommand(newSeedCmd(load))
	rootCmd.AddCommand(newConfigCmd(load))
	return rootCmd
}

// Execute runs the root command.
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

type loader func() (config.Config, error)
