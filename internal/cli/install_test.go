// pattern: Imperative Shell
package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wtforge/internal/config"
	"wtforge/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInstallFreshTarget(t *testing.T) {
	template := t.TempDir()
	target := t.TempDir()

	writeFile(t, filepath.Join(template, "README.md"), "# {{PROJECT}}\n")
	writeFile(t, filepath.Join(template, "scripts", "dev.sh"), "echo {{PROJECT}}\n")

	f := installFlags{target: target, template: template}
	flagVars := map[string]string{"PROJECT": "demo"}

	err := install(context.Background(), config.DefaultConfig(), f, flagVars, logging.NopLogger())
	if err != nil {
		t.Fatalf("install: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(target, "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# demo\n" {
		t.Errorf("README.md = %q", got)
	}

	ignore, err := os.ReadFile(filepath.Join(target, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ignore), ".worktrees/") {
		t.Errorf(".gitignore missing artifact entries: %q", ignore)
	}
}

func TestInstallAppendsIgnoreBlockOnce(t *testing.T) {
	template := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(template, "a.txt"), "content\n")

	f := installFlags{target: target, template: template}
	cfg := config.DefaultConfig()

	for i := 0; i < 2; i++ {
		if err := install(context.Background(), cfg, f, nil, logging.NopLogger()); err != nil {
			t.Fatalf("install run %d: %v", i+1, err)
		}
	}

	ignore, err := os.ReadFile(filepath.Join(target, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(ignore), ".worktrees/"); n != 1 {
		t.Errorf("ignore block appended %d times:\n%s", n, ignore)
	}
}

func TestInstallMergesWorkflowScripts(t *testing.T) {
	template := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(template, "a.txt"), "content\n")
	writeFile(t, filepath.Join(target, "package.json"),
		`{"name":"demo","scripts":{"test":"vitest"}}`)

	f := installFlags{target: target, template: template}
	if err := install(context.Background(), config.DefaultConfig(), f, nil, logging.NopLogger()); err != nil {
		t.Fatalf("install: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(target, "package.json"))
	if err != nil {
		t.Fatal(err)
	}
	var pkg map[string]any
	if err := json.Unmarshal(raw, &pkg); err != nil {
		t.Fatalf("package.json unparseable after merge: %v", err)
	}
	scripts, ok := pkg["scripts"].(map[string]any)
	if !ok {
		t.Fatalf("scripts table missing: %v", pkg)
	}
	if scripts["test"] != "vitest" {
		t.Errorf("project-owned script clobbered: %v", scripts["test"])
	}
	if scripts["wt:create"] != "wtforge worktree create" {
		t.Errorf("workflow script not merged: %v", scripts["wt:create"])
	}
}

func TestInstallDryRunWritesNothing(t *testing.T) {
	template := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(template, "a.txt"), "content\n")

	f := installFlags{target: target, template: template, dryRun: true}
	if err := install(context.Background(), config.DefaultConfig(), f, nil, logging.NopLogger()); err != nil {
		t.Fatalf("install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(target, "a.txt")); !os.IsNotExist(err) {
		t.Error("dry run installed a file")
	}
	if _, err := os.Stat(filepath.Join(target, ".gitignore")); !os.IsNotExist(err) {
		t.Error("dry run touched .gitignore")
	}
}

func TestParseInstallFlags(t *testing.T) {
	f, err := parseInstallFlags("install", []string{
		"--target", "/repo",
		"--force",
		"--skip", "deploy",
		"--skip", "docs",
		"--var", "A=1",
	})
	if err != nil {
		t.Fatalf("parseInstallFlags: %v", err)
	}
	if f.target != "/repo" || !f.force {
		t.Errorf("flags = %+v", f)
	}
	if len(f.skipGroups) != 2 || f.skipGroups[1] != "docs" {
		t.Errorf("skipGroups = %v", f.skipGroups)
	}
	if len(f.varPairs) != 1 || f.varPairs[0] != "A=1" {
		t.Errorf("varPairs = %v", f.varPairs)
	}
}
