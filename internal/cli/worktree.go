// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"wtforge/internal/config"
	"wtforge/internal/gitx"
	"wtforge/internal/logging"
	"wtforge/internal/worktree"
)

// RegisterWorktreeCommands registers the worktree command group.
func RegisterWorktreeCommands(group *Group) {
	group.AddCommand(&Command{
		Name:    "create",
		Summary: "Create a worktree and install the tooling into it",
		Usage:   "Usage: wtforge worktree create <name> [--target dir] [--no-install]",
		Run:     runWorktreeCreate,
	})

	group.AddCommand(&Command{
		Name:    "remove",
		Summary: "Remove a worktree and delete its branch",
		Usage:   "Usage: wtforge worktree remove <name> [--target dir]",
		Run:     runWorktreeRemove,
	})

	group.AddCommand(&Command{
		Name:    "list",
		Summary: "List provisioned worktrees",
		Usage:   "Usage: wtforge worktree list [--target dir]",
		Run:     runWorktreeList,
	})
}

func runWorktreeCreate(args []string) error {
	fs := flag.NewFlagSet("worktree create", flag.ContinueOnError)
	target := fs.String("target", ".", "project repository root")
	noInstall := fs.Bool("no-install", false, "skip the template install into the new worktree")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: wtforge worktree create <name> [--target dir] [--no-install]")
	}
	name := fs.Arg(0)

	cfg, err := config.Load(*target)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logManager, err := newLogManager(*target, cfg)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer func() { _ = logManager.Close() }()
	logger := logManager.For("worktree." + name)

	ctx := context.Background()
	wtDir, err := worktree.Create(ctx, gitx.New(), *target, name, cfg)
	if err != nil {
		return err
	}
	logger.Info("worktree created", "path", wtDir)
	fmt.Printf("created worktree %s at %s\n", name, wtDir)

	if *noInstall {
		return nil
	}

	return installIntoWorktree(ctx, cfg, *target, wtDir, logger)
}

// installIntoWorktree syncs the project templates into a freshly
// created worktree, using the project's template tree but the
// worktree as the target.
func installIntoWorktree(ctx context.Context, cfg config.Config, projectRoot, wtDir string, logger *logging.ScopedLogger) error {
	f := installFlags{
		target:   wtDir,
		template: templateRoot(projectRoot, ""),
	}
	return install(ctx, cfg, f, nil, logger)
}

func runWorktreeList(args []string) error {
	fs := flag.NewFlagSet("worktree list", flag.ContinueOnError)
	target := fs.String("target", ".", "project repository root")
	if err := fs.Parse(args); err != nil {
		return err
	}

	infos, err := worktree.List(*target)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no worktrees")
		return nil
	}
	for _, info := range infos {
		if info.Parent != "" {
			fmt.Printf("%-30s parent=%s created=%s\n", info.Name, info.Parent, info.CreatedAt.Format("2006-01-02"))
		} else {
			fmt.Printf("%-30s (no metadata record)\n", info.Name)
		}
	}
	return nil
}

func runWorktreeRemove(args []string) error {
	fs := flag.NewFlagSet("worktree remove", flag.ContinueOnError)
	target := fs.String("target", ".", "project repository root")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: wtforge worktree remove <name> [--target dir]")
	}
	name := fs.Arg(0)

	if err := worktree.Remove(context.Background(), gitx.New(), *target, name); err != nil {
		return err
	}
	fmt.Printf("removed worktree %s\n", name)
	return nil
}
