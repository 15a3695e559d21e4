package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/cardputer/internal/console"
	"github.com/muurk/cardputer/internal/keyboard"
	"github.com/muurk/cardputer/internal/ui"
)

var browseTimeout int

func init() {
	consolesCmd.Flags().IntVar(&browseTimeout, "timeout", 3, "Browse timeout in seconds")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(consolesCmd)
	rootCmd.AddCommand(attachCmd)
}

// decodeCmd explains raw keypad FIFO bytes
var decodeCmd = &cobra.Command{
	Use:   "decode <byte>...",
	Short: "Decode raw keyboard controller events",
	Long: `Decode raw TCA8418 key event bytes as read from KEY_EVENT_A.

Bit 7 is set for a press. The low seven bits number the key; numbers
1-40 cover the controller's ten native columns and 41 upward the four
extra columns. Modifier state carries across the bytes given, so a
shift press followed by a letter decodes the shifted character.`,
	Example: `  # Press and release of 'a'
  cardputer decode 0x97 0x17

  # Shift held while typing 'a'
  cardputer decode 0x95 0x97 0x17 0x15`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dec := keyboard.NewDecoder(keyboard.CardputerMatrix)
		for _, arg := range args {
			v, err := strconv.ParseUint(arg, 0, 8)
			if err != nil {
				return fmt.Errorf("invalid event byte %q: %w", arg, err)
			}
			fmt.Println(describeEvent(dec, byte(v)))
		}
		return nil
	},
}

func describeEvent(dec *keyboard.Decoder, raw byte) string {
	code, pressed := keyboard.ParseRaw(raw)
	d, ok := dec.Decode(raw)
	if !ok {
		return fmt.Sprintf("0x%02X  key %-3d  outside matrix, discarded", raw, code)
	}

	action := "release"
	if pressed {
		action = "press  "
	}
	desc := d.Event.Code.String()
	if d.Event.Char != "" {
		desc = strconv.Quote(d.Event.Char)
	}
	if d.Event.IsModifier {
		desc += " (modifier)"
	}
	return fmt.Sprintf("0x%02X  key %-3d  %s  row %d col %-2d  %s  [mods: %s]",
		raw, code, action, d.Row, d.Col, desc, dec.Modifiers())
}

// consolesCmd lists remote consoles on the LAN
var consolesCmd = &cobra.Command{
	Use:   "consoles",
	Short: "Find remote consoles on the network",
	Long:  `Browse mDNS for running 'cardputer console' instances.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout := time.Duration(browseTimeout) * time.Second
		fmt.Printf("Browsing for consoles (timeout: %ds)...\n\n", browseTimeout)

		found, err := console.Browse(cmd.Context(), timeout)
		if err != nil {
			return fmt.Errorf("browse failed: %w", err)
		}
		if len(found) == 0 {
			fmt.Println(ui.NewWarningResult("No consoles found").
				AddHint("Start one with 'cardputer console' on the same network").
				AddHint("mDNS must be allowed through the firewall (UDP 5353)").
				Render())
			return nil
		}

		fmt.Printf("Found %d console(s):\n\n", len(found))
		for i, c := range found {
			fmt.Printf("%d. %s\n", i+1, c.Instance)
			fmt.Printf("   Address: %s\n", c.Address())
			if v := c.Metadata["version"]; v != "" {
				fmt.Printf("   Version: %s\n", v)
			}
			fmt.Println()
		}
		fmt.Println("Use 'cardputer attach <address>' to connect")
		return nil
	},
}

// attachCmd is the remote console client
var attachCmd = &cobra.Command{
	Use:   "attach <host:port>",
	Short: "Attach to a remote console",
	Long: `Show a remote device screen and type on its keypad.

Keys are sent as they are pressed: arrows move, Enter confirms, Esc goes
back. Ctrl+C detaches.`,
	Example: `  cardputer attach 192.168.1.20:8787`,
	Args:    cobra.ExactArgs(1),
	RunE:    runAttach,
}

func runAttach(cmd *cobra.Command, args []string) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("attach needs an interactive terminal")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	client, err := console.Dial(ctx, args[0])
	cancel()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Println()
	}()

	keys := make(chan string)
	quit := make(chan struct{})
	go readKeys(os.Stdin, keys, quit)

	for {
		select {
		case frame, ok := <-client.Frames():
			if !ok {
				if err := client.Err(); err != nil {
					return fmt.Errorf("console connection lost: %w", err)
				}
				return nil
			}
			drawFrame(frame)
		case msg := <-client.Errors():
			fmt.Printf("\r\n%s\r\n", msg)
		case name := <-keys:
			if err := client.SendKey(name); err != nil {
				return err
			}
		case <-quit:
			return nil
		}
	}
}

// drawFrame repaints the terminal. Raw mode needs explicit carriage returns.
func drawFrame(frame string) {
	fmt.Print("\x1b[H\x1b[2J")
	fmt.Print(strings.ReplaceAll(frame, "\n", "\r\n"))
	fmt.Print("\r\n\r\n(Ctrl+C to detach)\r\n")
}

// readKeys turns raw terminal input into keypad key names.
func readKeys(in *os.File, keys chan<- string, quit chan<- struct{}) {
	buf := make([]byte, 16)
	for {
		n, err := in.Read(buf)
		if err != nil {
			close(quit)
			return
		}
		for _, name := range parseKeys(buf[:n]) {
			if name == "" {
				close(quit)
				return
			}
			keys <- name
		}
	}
}

// parseKeys maps raw terminal bytes to key names. Ctrl+C maps to "" and
// ends the sequence.
func parseKeys(b []byte) []string {
	var names []string
	for i := 0; i < len(b); i++ {
		switch c := b[i]; {
		case c == 0x03:
			return append(names, "")
		case c == 0x1b:
			if i+2 < len(b) && b[i+1] == '[' {
				switch b[i+2] {
				case 'A':
					names = append(names, "up")
				case 'B':
					names = append(names, "down")
				}
				i += 2
				continue
			}
			names = append(names, "esc")
		case c == '\r' || c == '\n':
			names = append(names, "enter")
		case c == 0x7f || c == 0x08:
			names = append(names, "backspace")
		case c == '\t':
			names = append(names, "tab")
		case c == ' ':
			names = append(names, "space")
		case c > ' ' && c < 0x7f:
			names = append(names, string(rune(c)))
		}
	}
	return names
}
