package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := &Config{
		Listen:          "127.0.0.1:9999",
		ContactsBackend: "file",
		TokenKey:        "deadbeef",
		TokenTTLHours:   24,
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Listen != "127.0.0.1:9999" {
		t.Errorf("Listen = %q", loaded.Listen)
	}
	if loaded.ContactsBackend != "file" {
		t.Errorf("ContactsBackend = %q", loaded.ContactsBackend)
	}
	if loaded.TokenKey != "deadbeef" {
		t.Errorf("TokenKey = %q", loaded.TokenKey)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("token_key = \"abc\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != Default().Listen {
		t.Errorf("Listen = %q, want default %q", cfg.Listen, Default().Listen)
	}
	if cfg.ContactsBackend != "store" {
		t.Errorf("ContactsBackend = %q, want store", cfg.ContactsBackend)
	}
	if cfg.TokenTTLHours != Default().TokenTTLHours {
		t.Errorf("TokenTTLHours = %d, want default", cfg.TokenTTLHours)
	}
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
