package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/cardputer/internal/credstore"
	"github.com/muurk/cardputer/internal/ui"
)

var (
	showPasswords bool
	assumeYes     bool
)

func init() {
	savedListCmd.Flags().BoolVar(&showPasswords, "show-passwords", false, "Print stored passwords")
	savedRmCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	savedCmd.AddCommand(savedListCmd)
	savedCmd.AddCommand(savedAddCmd)
	savedCmd.AddCommand(savedRmCmd)
	rootCmd.AddCommand(savedCmd)
}

// savedCmd groups the credential store commands
var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage saved WiFi networks",
	Long: fmt.Sprintf(`List, add and remove the saved WiFi networks the configuration screens
offer. At most %d networks are kept; adding one more drops the oldest.`, credstore.Capacity),
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved networks, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		creds := store.List()
		if len(creds) == 0 {
			fmt.Println("No saved networks.")
			return nil
		}

		fmt.Printf("Saved networks (%d/%d) in %s:\n\n", len(creds), credstore.Capacity, store.Path())
		for i, c := range creds {
			if showPasswords {
				fmt.Printf("%2d. %-32s %s\n", i+1, c.SSID, c.Password)
			} else {
				fmt.Printf("%2d. %s\n", i+1, c.SSID)
			}
		}
		return nil
	},
}

var savedAddCmd = &cobra.Command{
	Use:   "add <ssid> [password]",
	Short: "Save a network",
	Long:  `Save a network, or update its password when it is already saved. Omit the password for an open network.`,
	Example: `  cardputer saved add HomeNet hunter22
  cardputer saved add CoffeeShop`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		var password string
		if len(args) == 2 {
			password = args[1]
		}
		if err := store.Save(args[0], password); err != nil {
			fmt.Println(ui.NewFailureResult("Network not saved", err).Render())
			return err
		}

		security := "open"
		if password != "" {
			security = "password"
		}
		fmt.Println(ui.NewSuccessResult("Network saved").
			AddDetail("SSID", args[0]).
			AddDetail("Security", security).
			AddDetail("Saved", fmt.Sprintf("%d/%d", store.Len(), credstore.Capacity)).
			Render())
		return nil
	},
}

var savedRmCmd = &cobra.Command{
	Use:   "rm <number>",
	Short: "Remove a saved network by its list number",
	Example: `  # Remove the newest network
  cardputer saved rm 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", args[0], err)
		}

		store, err := openStore()
		if err != nil {
			return err
		}

		creds := store.List()
		if n < 1 || n > len(creds) {
			return fmt.Errorf("no saved network %d (have %d)", n, len(creds))
		}
		ssid := creds[n-1].SSID

		if !assumeYes && !ui.Confirm(os.Stdin, os.Stdout, "Remove saved network "+strconv.Quote(ssid),
			[]string{"Its password is deleted from " + store.Path()}) {
			return nil
		}

		if err := store.RemoveAt(n - 1); err != nil {
			fmt.Println(ui.NewFailureResult("Network not removed", err).Render())
			return err
		}
		fmt.Println(ui.NewSuccessResult("Network removed").
			AddDetail("SSID", ssid).
			AddDetail("Saved", fmt.Sprintf("%d/%d", store.Len(), credstore.Capacity)).
			Render())
		return nil
	},
}

func openStore() (*credstore.Store, error) {
	path, err := credstore.DefaultPath()
	if err != nil {
		return nil, err
	}
	return credstore.Open(path)
}
