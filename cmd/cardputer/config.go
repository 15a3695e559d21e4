package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/cardputer/internal/config"
	"github.com/muurk/cardputer/internal/ui"
)

var forceInit bool

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing settings file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// configCmd groups the settings file commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the settings file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}

		fmt.Printf("# %s\n", path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Println("# (file not found, showing defaults)")
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with default values",
	Long: `Write the default settings so they can be edited by hand. Add simulated
access points under sim.networks to change what the simulated radio finds.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil && !forceInit {
			fmt.Println(ui.NewWarningResult("Settings file already exists").
				AddDetail("Path", path).
				AddHint("Use --force to overwrite it with defaults").
				Render())
			return nil
		}

		if err := config.Defaults().Save(path); err != nil {
			fmt.Println(ui.NewFailureResult("Settings not written", err).Render())
			return err
		}
		fmt.Println(ui.NewSuccessResult("Settings written").AddDetail("Path", path).Render())
		return nil
	},
}

func settingsPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}
