// Package config provides user configuration management for the cardputer
// tools.
//
// Settings live in a YAML file in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/cardputer/config.yaml or $HOME/.config/cardputer/config.yaml
//   - macOS: $HOME/.config/cardputer/config.yaml
//   - Windows: %LOCALAPPDATA%\cardputer\config.yaml
//
// A missing file is not an error; Load returns Defaults(). Saved WiFi
// credentials are kept separately by the credstore package, which shares
// WriteFileAtomic with this package.
//
// # Usage Example
//
//	settings, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	settings.Console.Enabled = true
//	if err := settings.Save(""); err != nil {
//	    log.Fatal(err)
//	}
package config
