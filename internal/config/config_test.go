package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Ranges) == 0 {
		t.Error("default config has no port ranges")
	}
	if cfg.NameBudget <= 0 {
		t.Error("default config has no name budget")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log level = %q, want info", cfg.LogLevel)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, Dir)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `
rules:
  alwaysUpdate: ["tools/"]
  preserveTarget: ["local.env"]
ranges:
  - name: web
    base: 4000
    width: 50
variables:
  PROJECT: demo
nameBudget: 12
`
	if err := os.WriteFile(filepath.Join(cfgDir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Rules.AlwaysUpdate) != 1 || cfg.Rules.AlwaysUpdate[0] != "tools/" {
		t.Errorf("alwaysUpdate = %v", cfg.Rules.AlwaysUpdate)
	}
	if len(cfg.Ranges) != 1 || cfg.Ranges[0].Base != 4000 || cfg.Ranges[0].Width != 50 {
		t.Errorf("ranges = %+v", cfg.Ranges)
	}
	if cfg.Variables["PROJECT"] != "demo" {
		t.Errorf("variables = %v", cfg.Variables)
	}
	if cfg.NameBudget != 12 {
		t.Errorf("nameBudget = %d, want 12", cfg.NameBudget)
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("rules: [not: a: mapping"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestIsText(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		path string
		want bool
	}{
		{"scripts/setup.mjs", true},
		{"docs/readme.md", true},
		{"deploy/db.yml", true},
		{"assets/logo.png", false},
		{"bin/tool", false},
	}
	for _, tt := range tests {
		if got := cfg.IsText(tt.path); got != tt.want {
			t.Errorf("IsText(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
