// Package ui renders the one-shot terminal output of the cardputer CLI.
//
// The interactive simulator window lives in package simui. The components
// here print once and return: result boxes for commands that change state
// and a confirmation prompt for destructive ones.
//
// # Logging Integration
//
// zap logging is silent unless CARDPUTER_LOG_LEVEL or --log-level is set,
// so these boxes are the only output a command prints by default.
package ui
