package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCommandsRegistered(t *testing.T) {
	expected := map[string]bool{
		"version":  false,
		"validate": false,
		"status":   false,
		"simulate": false,
		"run":      false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := expected[cmd.Name()]; ok {
			expected[cmd.Name()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("Expected command %q to be registered", name)
		}
	}
}

func TestRootFlags(t *testing.T) {
	if f := rootCmd.PersistentFlags().Lookup("config"); f == nil {
		t.Error("Expected persistent --config flag")
	} else if f.DefValue != "config.yaml" {
		t.Errorf("Expected default config.yaml, got %q", f.DefValue)
	}
	if f := rootCmd.PersistentFlags().Lookup("verbose"); f == nil {
		t.Error("Expected persistent --verbose flag")
	}
}

func TestBuildApp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
credentials:
  keys: "test-key-a,test-key-b"
history:
  archive:
    enabled: true
    path: ` + filepath.Join(dir, "archive.db") + `
storage:
  backend: sqlite
  sqlite_path: ` + filepath.Join(dir, "state.db") + `
alerting:
  enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	a, err := buildApp(path)
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	defer a.close()

	if a.pool.Len() != 2 {
		t.Errorf("Expected 2 keys in pool, got %d", a.pool.Len())
	}
	if a.executor == nil {
		t.Error("Expected executor wired")
	}
	if a.archive == nil {
		t.Error("Expected archive enabled")
	}
	if a.backend == nil {
		t.Error("Expected storage backend wired")
	}
	if a.sweeper == nil {
		t.Error("Expected sweeper built when alerting enabled")
	}
}

func TestBuildApp_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("credentials:\n  keys: \"\"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := buildApp(path); err == nil {
		t.Error("Expected error for config without keys")
	}
}
