package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDir is the standard configuration directory name
const ConfigDir = "filedash"

// getConfigDir returns the platform-appropriate config directory.
//   - Windows: %APPDATA%\filedash
//   - Unix: ~/.config/filedash
func getConfigDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, ConfigDir)
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", ConfigDir)
	}
	return ""
}

// DefaultConfigPath returns the default INI path, or "config.ini" in the
// working directory when no home directory can be determined.
func DefaultConfigPath() string {
	dir := getConfigDir()
	if dir == "" {
		return "config.ini"
	}
	return filepath.Join(dir, "config.ini")
}

// DefaultTokenPath returns the token file written by 'config init --save-token'.
func DefaultTokenPath() string {
	dir := getConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "token")
}

// LogDirectory returns the directory for log files written while the
// interactive browser owns the terminal.
func LogDirectory() string {
	dir := getConfigDir()
	if dir == "" {
		return filepath.Join(os.TempDir(), "filedash-logs")
	}
	return filepath.Join(dir, "logs")
}

// EnsureLogDirectory creates the log directory with owner-only permissions.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}

// DefaultDownloadDir is used when neither --outdir nor download_dir is set.
func DefaultDownloadDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads")
	}
	return "."
}
