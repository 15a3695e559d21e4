package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/cardputer/internal/config"
	"github.com/muurk/cardputer/internal/console"
	"github.com/muurk/cardputer/internal/credstore"
	"github.com/muurk/cardputer/internal/device"
	"github.com/muurk/cardputer/internal/hwsim"
	"github.com/muurk/cardputer/internal/keyboard"
	"github.com/muurk/cardputer/internal/logging"
	"github.com/muurk/cardputer/internal/simui"
	"github.com/muurk/cardputer/internal/wifi"
	"github.com/muurk/cardputer/internal/wificonfig"
)

// Board command flags
var (
	backend     string
	iface       string
	consolePort int
	withConsole bool
	noAdvertise bool
	autoStart   bool
	debounceMS  int
)

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, runCmd, consoleCmd} {
		cmd.Flags().StringVar(&backend, "backend", "", "WiFi backend: sim or nmcli (default from settings)")
		cmd.Flags().StringVar(&iface, "iface", "", "Wireless interface for the nmcli backend")
		cmd.Flags().IntVar(&consolePort, "port", 0, "Remote console port (default from settings)")
		cmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not advertise the console over mDNS")
		cmd.Flags().BoolVar(&autoStart, "wifi", false, "Open the WiFi setup screens immediately")
		cmd.Flags().IntVar(&debounceMS, "debounce", 0, "Keyboard debounce in milliseconds (default from settings)")
	}
	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().BoolVar(&withConsole, "console", false, "Also serve the remote console")
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(consoleCmd)
}

// runCmd opens the simulator window
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the simulator window",
	Long: `Boot the simulated keyboard controller and show the device screen in a
terminal window. Terminal keys are typed on the simulated keypad.

Log output goes to a file while the window is open (--log-file, or
cardputer.log in the user config directory).`,
	Example: `  # Open the simulator (same as running without a command)
  cardputer run

  # Start straight on the WiFi screens and serve the remote console
  cardputer run --wifi --console

  # Use NetworkManager instead of the simulated radio
  cardputer run --backend nmcli --iface wlan0`,
	RunE: runSimulator,
}

// consoleCmd runs headless with only the remote console
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run headless, driven by the remote console",
	Long: `Boot the simulated board without a window. The screen is published and
keys are accepted over the websocket console, which is advertised on the
LAN unless --no-advertise is given. Use 'cardputer attach' to connect.`,
	Example: `  cardputer console --port 8787
  cardputer console --backend nmcli --wifi`,
	RunE: runConsole,
}

// applyFlags overrides settings with explicitly set flags.
func applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		settings.WiFi.Backend = backend
	}
	if flags.Changed("port") {
		settings.Console.Port = consolePort
	}
	if flags.Changed("console") {
		settings.Console.Enabled = withConsole
	}
	if flags.Changed("no-advertise") {
		settings.Console.Advertise = !noAdvertise
	}
	if flags.Changed("debounce") {
		settings.Keyboard.DebounceMS = debounceMS
	}
	return settings.Validate()
}

// board is the simulated Cardputer: keypad controller, key source,
// credential store and radio.
type board struct {
	keypad  *hwsim.Keypad
	source  *keyboard.Source
	store   *credstore.Store
	manager wifi.Manager
}

func newBoard() (*board, error) {
	path, err := credstore.DefaultPath()
	if err != nil {
		return nil, err
	}
	store, err := credstore.Open(path)
	if err != nil {
		return nil, err
	}

	var manager wifi.Manager
	switch settings.WiFi.Backend {
	case config.BackendNMCLI:
		manager = wifi.NewNMCLI(iface, nil)
	default:
		aps := make([]wifi.SimAccessPoint, 0, len(settings.Sim.Networks))
		for _, n := range settings.Sim.Networks {
			aps = append(aps, wifi.SimAccessPoint{
				ScanResult: wifi.ScanResult{SSID: n.SSID, RSSI: n.RSSI, Encrypted: n.Encrypted},
				Password:   n.Password,
			})
		}
		manager = wifi.NewSim(aps)
	}

	keypad := hwsim.NewKeypad(keyboard.CardputerMatrix)
	source := keyboard.NewSource(keypad, keypad,
		keyboard.WithMatrix(keyboard.CardputerMatrix),
		keyboard.WithDebounce(settings.Debounce()),
	)

	logging.Info("Board assembled",
		zap.String("backend", settings.WiFi.Backend),
		zap.String("store", store.Path()),
		zap.Int("saved_networks", store.Len()),
	)
	return &board{keypad: keypad, source: source, store: store, manager: manager}, nil
}

// run drives the workflow on display until ctx ends.
func (b *board) run(ctx context.Context, display wificonfig.Display, opts ...device.Option) error {
	events := b.source.Subscribe(ctx, 64)
	if err := b.source.Start(ctx); err != nil {
		return fmt.Errorf("failed to start keyboard: %w", err)
	}
	defer b.source.Wait()

	if err := b.store.Watch(ctx, func() {
		logging.Info("Saved networks changed on disk", zap.Int("count", b.store.Len()))
	}); err != nil {
		logging.Warn("Not watching saved networks", zap.Error(err))
	}

	w := wificonfig.New(display, b.manager, b.store,
		wificonfig.WithBlinkInterval(settings.BlinkInterval()),
	)
	opts = append([]device.Option{
		device.WithJoinOptions(wifi.JoinOptions{
			PollInterval: settings.PollInterval(),
			Timeout:      settings.JoinTimeout(),
		}),
	}, opts...)
	if autoStart {
		opts = append(opts, device.WithAutoStart())
	}

	err := device.NewController(w, display, b.manager, opts...).Run(ctx, events)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startConsole serves the remote console in the background and returns its
// hub. The returned channel reports the server's exit.
func startConsole(ctx context.Context, keypad *hwsim.Keypad) (*console.Hub, <-chan error) {
	hub := console.NewHub()
	srv := console.NewServer(hub, keypad, console.Config{Port: settings.Console.Port})

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe(ctx)
	}()

	if settings.Console.Advertise {
		adv, err := console.Advertise("", settings.Console.Port)
		if err != nil {
			logging.Warn("Console advertisement failed", zap.Error(err))
		} else {
			go func() {
				<-ctx.Done()
				adv.Shutdown()
			}()
		}
	}
	return hub, errs
}

func runSimulator(cmd *cobra.Command, args []string) error {
	if err := applyFlags(cmd); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the simulator window needs a terminal; use 'cardputer console' to run headless")
	}

	// keep log lines off the window
	if logFile == "" {
		path, err := config.DataPath("cardputer.log")
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := logging.InitializeWithOutput(logLevel, path); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := newBoard()
	if err != nil {
		return err
	}

	p := tea.NewProgram(simui.NewModel(b.keypad), tea.WithAltScreen(), tea.WithContext(ctx))
	screen := simui.NewScreen(p)
	display := device.Tee{screen}

	var consoleErrs <-chan error
	if settings.Console.Enabled {
		var hub *console.Hub
		hub, consoleErrs = startConsole(ctx, b.keypad)
		display = append(display, hub)
		go screen.SetStatus(fmt.Sprintf("remote console on port %d", settings.Console.Port))
	}

	boardErr := make(chan error, 1)
	go func() {
		err := b.run(ctx, display, device.WithOnExit(func(res wificonfig.Result, ssid string) {
			if res == wificonfig.ResultConnected {
				screen.SetStatus("connected to " + ssid)
			}
		}))
		if err != nil {
			p.Quit()
		}
		boardErr <- err
	}()

	_, err = p.Run()
	cancel()
	if runErr := <-boardErr; runErr != nil {
		return runErr
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	select {
	case err := <-consoleErrs:
		return err
	default:
		return nil
	}
}

func runConsole(cmd *cobra.Command, args []string) error {
	if err := applyFlags(cmd); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := newBoard()
	if err != nil {
		return err
	}

	hub, consoleErrs := startConsole(ctx, b.keypad)
	fmt.Printf("Remote console listening on port %d (Ctrl+C to stop)\n", settings.Console.Port)
	fmt.Printf("Connect with: cardputer attach localhost:%d\n", settings.Console.Port)

	boardErr := make(chan error, 1)
	go func() {
		boardErr <- b.run(ctx, hub, device.WithOnExit(func(res wificonfig.Result, ssid string) {
			fmt.Printf("WiFi setup %s %s\n", res, ssid)
		}))
	}()

	select {
	case err := <-consoleErrs:
		cancel()
		<-boardErr
		return err
	case err := <-boardErr:
		cancel()
		<-consoleErrs
		return err
	}
}
