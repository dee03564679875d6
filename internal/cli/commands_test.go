// pattern: Functional Core
package cli

import (
	"path/filepath"
	"testing"

	"wtforge/internal/allocate"
	"wtforge/internal/config"
)

func TestBuildAppRegistersAllCommands(t *testing.T) {
	app := BuildApp("test")

	for _, name := range []string{"install", "validate", "ports", "merge", "watch", "version"} {
		if _, ok := app.commands[name]; !ok {
			t.Errorf("command %q not registered", name)
		}
	}

	group, ok := app.groups["worktree"]
	if !ok {
		t.Fatal("worktree group not registered")
	}
	for _, name := range []string{"create", "remove", "list"} {
		if _, ok := group.Commands[name]; !ok {
			t.Errorf("worktree command %q not registered", name)
		}
	}
}

func TestTemplateRoot(t *testing.T) {
	if got := templateRoot("/repo", ""); got != filepath.Join("/repo", ".wtforge", "templates") {
		t.Errorf("default template root = %q", got)
	}
	if got := templateRoot("/repo", "/elsewhere/tmpl"); got != "/elsewhere/tmpl" {
		t.Errorf("override not honored: %q", got)
	}
}

func TestAllocationVariables(t *testing.T) {
	alloc := allocate.Allocation{
		Identity: "feature/login",
		Hash:     "a1b2c3",
		SafeName: "feature-login",
		Offset:   7,
		Ports:    map[string]int{"app": 3107, "db": 5507},
	}

	vars := allocationVariables(alloc)

	want := map[string]string{
		"WT_BRANCH":    "feature/login",
		"WT_SAFE_NAME": "feature-login",
		"WT_HASH":      "a1b2c3",
		"WT_OFFSET":    "7",
		"APP_PORT":     "3107",
		"DB_PORT":      "5507",
	}
	for k, v := range want {
		if vars[k] != v {
			t.Errorf("vars[%q] = %q, want %q", k, vars[k], v)
		}
	}
}

func TestMergedVariablesLaterLayersWin(t *testing.T) {
	cfg := config.Config{Variables: map[string]string{"A": "config", "B": "config"}}

	vars := mergedVariables(cfg,
		map[string]string{"B": "alloc", "C": "alloc"},
		map[string]string{"C": "flag"},
	)

	if vars["A"] != "config" || vars["B"] != "alloc" || vars["C"] != "flag" {
		t.Errorf("layering wrong: %v", vars)
	}
}

func TestParseVarFlags(t *testing.T) {
	vars, err := parseVarFlags([]string{"KEY=value", "EMPTY=", "EQ=a=b"})
	if err != nil {
		t.Fatalf("parseVarFlags: %v", err)
	}
	if vars["KEY"] != "value" {
		t.Errorf("KEY = %q", vars["KEY"])
	}
	if v, ok := vars["EMPTY"]; !ok || v != "" {
		t.Errorf("EMPTY = %q, ok=%v", v, ok)
	}
	if vars["EQ"] != "a=b" {
		t.Errorf("EQ = %q, want value containing '='", vars["EQ"])
	}

	if _, err := parseVarFlags([]string{"novalue"}); err == nil {
		t.Error("expected error for pair without '='")
	}
	if _, err := parseVarFlags([]string{"=value"}); err == nil {
		t.Error("expected error for empty key")
	}
}
