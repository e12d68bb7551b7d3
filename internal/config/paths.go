package config

import (
	"os"
	"path/filepath"

	"github.com/msccatools/msccat-client/internal/constants"
)

// Directory returns the directory holding config.yaml and history.db.
//
// Locations:
//   - Unix: ~/.config/msccat
//   - macOS: ~/Library/Application Support/msccat
//   - Windows: %AppData%\msccat
func Directory() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), constants.ConfigDirName)
		}
		return filepath.Join(homeDir, ".config", constants.ConfigDirName)
	}
	return filepath.Join(configDir, constants.ConfigDirName)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Directory(), constants.ConfigFileName+".yaml")
}

// DefaultHistoryPath returns the default history database path.
func DefaultHistoryPath() string {
	return filepath.Join(Directory(), constants.HistoryFileName)
}

// EnsureDirectory creates dir with owner-only permissions if it doesn't exist.
func EnsureDirectory(dir string) error {
	return os.MkdirAll(dir, 0700)
}
