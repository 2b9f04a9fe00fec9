package home

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.charla.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".charla")
}

// Resolve determines the charla home directory using precedence:
// 1. flagOverride (--home flag)
// 2. CHARLA_HOME environment variable
// 3. ~/.charla
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if env := os.Getenv("CHARLA_HOME"); env != "" {
		return env
	}
	return BaseDir()
}

// ConfigPath returns the config file path under base.
func ConfigPath(base string) string {
	return filepath.Join(base, "config.toml")
}

// DBPath returns the app-owned charla.db path.
func DBPath(base string) string {
	return filepath.Join(base, "charla.db")
}

// ContactsPath returns the path of the JSON contacts file used by the
// file-backed contact store.
func ContactsPath(base string) string {
	return filepath.Join(base, "contacts.json")
}

// TokenPath returns the path where charlactl caches the session token.
func TokenPath(base string) string {
	return filepath.Join(base, "token")
}

// LogDir returns the log directory under base.
func LogDir(base string) string {
	return filepath.Join(base, "logs")
}

// LogPath returns the daemon log file path.
func LogPath(base string) string {
	return filepath.Join(LogDir(base), "charlad.log")
}

// EnsureDir creates the home directory tree with proper permissions.
func EnsureDir(base string) error {
	dirs := []string{
		base,
		LogDir(base),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
