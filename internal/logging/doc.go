// Package logging provides structured logging for the Cardputer tools.
//
// This package wraps a package-global zap logger with convenience functions
// for the logging patterns used throughout the keyboard driver, the WiFi
// configuration workflow and the remote console.
//
// # Log Levels
//
//   - Debug: register accesses, decoded key events
//   - Info: workflow state changes, console connections, joins
//   - Warn: bus errors during event draining, failed scans
//   - Error: initialization failures
//
// # Configuration
//
// Logging is silent unless a level is passed explicitly or the
// CARDPUTER_LOG_LEVEL environment variable is set:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The simulator window owns the terminal, so it logs to a file instead:
//
//	logging.InitializeWithOutput("debug", "cardputer-debug.log")
//
// # Secrets
//
// WiFi passwords are never written to the log. Use Secret to record only
// their length:
//
//	logging.Info("Joining network", zap.String("ssid", ssid), logging.Secret("password", pw))
package logging
