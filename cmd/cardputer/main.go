// Cardputer runs the Cardputer keyboard and WiFi configuration firmware on a
// host machine.
//
// The keyboard controller is simulated at the register level, so the same
// key event source and configuration workflow that run on the board are
// exercised here. Networks come from a simulated radio or, on Linux, from
// NetworkManager.
//
// Usage:
//
//	cardputer [command] [flags]
//
// Running without arguments opens the simulator window.
// See 'cardputer --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/cardputer/internal/config"
	"github.com/muurk/cardputer/internal/logging"
	"github.com/muurk/cardputer/internal/version"
)

// Global flags
var (
	configPath string
	logLevel   string
	logFile    string
)

// settings is loaded before any command runs.
var settings *config.Settings

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cardputer",
	Short: "Cardputer keyboard and WiFi setup simulator",
	Long: `Runs the Cardputer keyboard pipeline and WiFi configuration screens on
a host machine.

The TCA8418 keyboard controller is simulated at the register level and
drives the same key event source and configuration workflow as the board.

If no command is specified, the simulator window opens.`,
	Version:           version.Version,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulator(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $"+logging.LogLevelEnvVar+" or silent)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stdout")

	rootCmd.AddCommand(versionCmd)
}

// setup initializes logging and loads settings for every command.
func setup(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeWithOutput(logLevel, logFile); err != nil {
		return err
	}

	s, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	settings = s
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cardputer %s (commit: %s)\n", version.Version, version.Commit)
	},
}
