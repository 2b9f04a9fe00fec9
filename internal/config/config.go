package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the daemon configuration stored in ~/.charla/config.toml.
type Config struct {
	// Listen is the TCP address the HTTP API binds to.
	Listen string `toml:"listen"`
	// ContactsBackend selects where contacts are persisted: "store" keeps
	// them in the document store alongside messages, "file" keeps them in
	// a local JSON file (contacts.json) rewritten on every mutation.
	ContactsBackend string `toml:"contacts_backend"`
	// TokenKey is the 64-hex-char PASETO v4 symmetric key. Generated and
	// persisted on first daemon start when empty.
	TokenKey string `toml:"token_key"`
	// TokenTTLHours is the session token lifetime.
	TokenTTLHours int `toml:"token_ttl_hours"`
	// AllowedOrigins is the CORS allowlist for browser clients.
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Default returns the configuration used when no config file exists yet.
func Default() *Config {
	return &Config{
		Listen:          "127.0.0.1:7690",
		ContactsBackend: "store",
		TokenTTLHours:   72,
		AllowedOrigins:  []string{"http://localhost:5173"},
	}
}

// Load reads config from the given path. Returns an error if the file is
// missing or malformed. Zero fields fall back to defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	def := Default()
	if cfg.Listen == "" {
		cfg.Listen = def.Listen
	}
	if cfg.ContactsBackend == "" {
		cfg.ContactsBackend = def.ContactsBackend
	}
	if cfg.TokenTTLHours <= 0 {
		cfg.TokenTTLHours = def.TokenTTLHours
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
// The file carries the token key, so it is written 0600.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
