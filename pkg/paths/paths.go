package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the file looked up in ConfigDir when no --config is given.
const ConfigFileName = "config.yaml"

// ConfigDir returns the config directory for formsense.
// Order: XDG_CONFIG_HOME/formsense, platform-specific fallback.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "formsense")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "formsense")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "formsense")
}

// ConfigFile returns the default configuration file path. The file does
// not have to exist.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}
