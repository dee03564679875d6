// pattern: Imperative Shell
package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"wtforge/internal/allocate"
	"wtforge/internal/config"
	"wtforge/internal/logging"
)

// BuildApp creates and configures the CLI application with all
// commands and groups.
func BuildApp(version string) *App {
	app := NewApp(version)

	app.AddCommand(&Command{
		Name:    "install",
		Summary: "Install or update worktree tooling in a repository",
		Usage:   "Usage: wtforge install [--target dir] [--template dir] [--force] [--dry-run] [--skip group]... [--var K=V]... [--with-deploy]",
		Run:     runInstall,
	})

	app.AddCommand(&Command{
		Name:    "validate",
		Summary: "Check a target tree for install collisions",
		Usage:   "Usage: wtforge validate [--target dir] [--with-deploy]",
		Run:     runValidate,
	})

	app.AddCommand(&Command{
		Name:    "ports",
		Summary: "Show the deterministic port allocation for a branch",
		Usage:   "Usage: wtforge ports <branch> [--target dir] [--probe]",
		Run:     runPorts,
	})

	app.AddCommand(&Command{
		Name:    "merge",
		Summary: "Merge a worktree branch back into its parent",
		Usage:   "Usage: wtforge merge <branch> [--target dir] [--update] [--dry-run] [--no-push] [--remote name]",
		Run:     runMerge,
	})

	app.AddCommand(&Command{
		Name:    "watch",
		Summary: "Re-run the template sync whenever the template tree changes",
		Usage:   "Usage: wtforge watch [--target dir] [--template dir]",
		Run:     runWatch,
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: wtforge version",
		Run: func(args []string) error {
			fmt.Println(version)
			return nil
		},
	})

	worktreeGroup := app.AddGroup("worktree", "Manage worktree environments")
	RegisterWorktreeCommands(worktreeGroup)

	return app
}

// templateRoot resolves the template tree for a target, defaulting to
// the project-local template directory.
func templateRoot(targetRoot, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(targetRoot, config.Dir, "templates")
}

// newLogManager opens the per-project log file.
func newLogManager(targetRoot string, cfg config.Config) (*logging.Manager, error) {
	return logging.NewManager(logging.Config{
		FilePath: filepath.Join(targetRoot, config.Dir, "wtforge.log"),
		Level:    cfg.LogLevel,
	})
}

// allocationVariables derives the substitution inputs from a branch's
// resource allocation: WT_SAFE_NAME, WT_HASH, WT_OFFSET, and one
// <NAME>_PORT per configured range.
func allocationVariables(alloc allocate.Allocation) map[string]string {
	vars := map[string]string{
		"WT_BRANCH":    alloc.Identity,
		"WT_SAFE_NAME": alloc.SafeName,
		"WT_HASH":      alloc.Hash,
		"WT_OFFSET":    fmt.Sprintf("%d", alloc.Offset),
	}
	for name, port := range alloc.Ports {
		vars[strings.ToUpper(name)+"_PORT"] = fmt.Sprintf("%d", port)
	}
	return vars
}

// mergedVariables layers allocation-derived and flag-supplied
// variables over the configured ones. Later layers win.
func mergedVariables(cfg config.Config, layers ...map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range cfg.Variables {
		out[k] = v
	}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// parseVarFlags turns repeated K=V flags into a map.
func parseVarFlags(pairs []string) (map[string]string, error) {
	vars := map[string]string{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --var %q, expected KEY=VALUE", pair)
		}
		vars[k] = v
	}
	return vars, nil
}
