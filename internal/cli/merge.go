// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"wtforge/internal/config"
	"wtforge/internal/gitx"
	"wtforge/internal/lockfile"
	"wtforge/internal/mergeback"
	"wtforge/internal/worktree"
)

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	target := fs.String("target", ".", "parent branch checkout (target repository root)")
	update := fs.Bool("update", false, "rebase the worktree onto the parent before merging")
	dryRun := fs.Bool("dry-run", false, "report the merge plan without merging")
	noPush := fs.Bool("no-push", false, "do not push the parent branch after committing")
	remote := fs.String("remote", "origin", "remote to push to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: wtforge merge <branch> [--target dir] [--update] [--dry-run] [--no-push] [--remote name]")
	}
	branch := fs.Arg(0)

	cfg, err := config.Load(*target)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logManager, err := newLogManager(*target, cfg)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer func() { _ = logManager.Close() }()

	fl, err := lockfile.Acquire(*target)
	if err != nil {
		return err
	}
	defer lockfile.Release(fl)

	orchestrator := mergeback.New(gitx.New(), cfg.Merge, logManager.For("merge."+branch))
	res, err := orchestrator.Merge(context.Background(), mergeback.Options{
		SourceBranch: branch,
		WorktreeDir:  worktree.Dir(*target, branch),
		TargetDir:    *target,
		UpdateFirst:  *update,
		DryRun:       *dryRun,
		Push:         !*noPush && !*dryRun,
		Remote:       *remote,
	})
	if err != nil {
		return err
	}

	switch {
	case *dryRun && !res.NothingToMerge:
		fmt.Printf("would merge %d path(s), preserve %d, skip %d\n",
			len(res.MergedPaths), len(res.PreservedPaths), len(res.SkippedPaths))
	case res.NothingToMerge:
		fmt.Println("nothing to merge: every changed path was skipped or preserved")
	case res.Committed:
		fmt.Printf("merged %d path(s) from %s", len(res.MergedPaths), branch)
		if len(res.PreservedPaths) > 0 {
			fmt.Printf(", preserved %d", len(res.PreservedPaths))
		}
		if len(res.SkippedPaths) > 0 {
			fmt.Printf(", skipped %d", len(res.SkippedPaths))
		}
		fmt.Println()
	}

	if res.PushWarning != "" {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", res.PushWarning)
	} else if res.Pushed {
		fmt.Println("pushed to", *remote)
	}

	return nil
}
