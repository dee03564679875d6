// pattern: Imperative Shell

package mergeback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"wtforge/internal/classify"
	"wtforge/internal/gitx"
	"wtforge/internal/logging"
	"wtforge/internal/meta"
)

// parentHintKey is the secondary parent-branch hint stored in the
// worktree's local git config, used when the metadata record is gone.
const parentHintKey = "wtforge.parent"

// Options configures one merge-back invocation.
type Options struct {
	SourceBranch string // worktree branch to merge
	WorktreeDir  string // the source worktree's checkout
	TargetDir    string // the parent branch's checkout (current branch)
	UpdateFirst  bool   // rebase the source onto the target before merging
	DryRun       bool   // report the classified plan without merging
	Push         bool   // push the target branch after committing
	Remote       string // defaults to "origin"
}

// Result reports what one merge did.
type Result struct {
	MergedPaths    []string
	SkippedPaths   []string
	PreservedPaths []string
	Committed      bool
	NothingToMerge bool
	Pushed         bool
	PushWarning    string
}

// Orchestrator drives a single merge of a worktree branch back into
// its parent. One invocation runs to completion before the next; all
// git commands are issued sequentially against the same trees.
type Orchestrator struct {
	git    *gitx.Git
	rules  classify.MergeRules
	logger *logging.ScopedLogger
}

// New creates an orchestrator.
func New(git *gitx.Git, rules classify.MergeRules, logger *logging.ScopedLogger) *Orchestrator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Orchestrator{git: git, rules: rules, logger: logger}
}

// Merge runs the full state machine: validate parent, optionally
// rebase the source, diff, classify, stage a no-commit merge, resolve
// preserve/skip conflicts by policy, commit, optionally push.
func (o *Orchestrator) Merge(ctx context.Context, opts Options) (Result, error) {
	var res Result
	if opts.Remote == "" {
		opts.Remote = "origin"
	}

	// Precondition checks: nothing below mutates state until they pass.
	parent, err := o.recordedParent(ctx, opts)
	if err != nil {
		return res, err
	}

	current, err := o.git.CurrentBranch(ctx, opts.TargetDir)
	if err != nil {
		return res, fmt.Errorf("reading current branch: %w", err)
	}
	if parent != current {
		return res, &ParentMismatchError{
			Branch:         opts.SourceBranch,
			RecordedParent: parent,
			CurrentBranch:  current,
		}
	}

	dirty, err := o.git.HasUncommittedChanges(ctx, opts.TargetDir)
	if err != nil {
		return res, fmt.Errorf("checking target state: %w", err)
	}
	if dirty {
		return res, &UncommittedChangesError{Dir: opts.TargetDir}
	}

	if opts.UpdateFirst && !opts.DryRun {
		if err := o.updateSource(ctx, opts, current); err != nil {
			return res, err
		}
	}

	changed, err := o.git.DiffNameOnly(ctx, opts.TargetDir, "HEAD", opts.SourceBranch)
	if err != nil {
		return res, fmt.Errorf("computing changed paths: %w", err)
	}
	if len(changed) == 0 {
		res.NothingToMerge = true
		o.logger.Info("no changes between branches", "source", opts.SourceBranch, "target", current)
		return res, nil
	}

	plan := classify.Partition(changed, o.rules)
	res.SkippedPaths = plan.ToSkip
	res.PreservedPaths = plan.ToPreserve
	o.logger.Info("classified changed paths",
		"merge", len(plan.ToMerge), "skip", len(plan.ToSkip), "preserve", len(plan.ToPreserve))

	if opts.DryRun {
		res.MergedPaths = plan.ToMerge
		res.NothingToMerge = len(plan.ToMerge) == 0
		return res, nil
	}

	if err := o.stage(ctx, opts, plan); err != nil {
		return res, err
	}

	staged, err := o.git.StagedPaths(ctx, opts.TargetDir)
	if err != nil {
		return res, fmt.Errorf("reading staged paths: %w", err)
	}
	if len(staged) == 0 {
		// Every changed path was skip or preserve: abort rather than
		// record an empty merge commit.
		if err := o.git.MergeAbort(ctx, opts.TargetDir); err != nil {
			o.logger.Warn("merge abort after empty stage failed", "error", err)
		}
		res.NothingToMerge = true
		o.logger.Info("nothing to merge after classification", "source", opts.SourceBranch)
		return res, nil
	}
	res.MergedPaths = staged

	message := fmt.Sprintf("Merge worktree '%s' into %s", opts.SourceBranch, current)
	if err := o.git.Commit(ctx, opts.TargetDir, message); err != nil {
		return res, fmt.Errorf("committing merge: %w", err)
	}
	res.Committed = true
	o.logger.Info("merge committed", "source", opts.SourceBranch, "paths", len(staged))

	if opts.Push {
		if err := o.git.Push(ctx, opts.TargetDir, opts.Remote, current); err != nil {
			// The merge already succeeded locally; a push failure is a
			// warning with a manual remediation, never a merge failure.
			res.PushWarning = fmt.Sprintf(
				"push failed (%v); push manually: git push %s %s", err, opts.Remote, current)
			o.logger.Warn("push failed", "error", err)
		} else {
			res.Pushed = true
		}
	}

	return res, nil
}

// recordedParent reads the worktree's parent branch from its metadata
// record, falling back to the git config hint.
func (o *Orchestrator) recordedParent(ctx context.Context, opts Options) (string, error) {
	if rec, err := meta.Load(opts.WorktreeDir); err == nil && rec.ParentBranch != "" {
		return rec.ParentBranch, nil
	}
	if hint := o.git.ConfigGet(ctx, opts.WorktreeDir, parentHintKey); hint != "" {
		return hint, nil
	}
	return "", fmt.Errorf("no recorded parent branch for worktree %q; "+
		"set it with: git -C %s config %s <branch>",
		opts.SourceBranch, opts.WorktreeDir, parentHintKey)
}

// updateSource brings the source branch up to date by rebasing it onto
// the target, stashing and restoring any uncommitted changes in the
// source worktree. A rebase conflict aborts the rebase, restores the
// stash and surfaces the conflicting paths; it never force-resolves.
func (o *Orchestrator) updateSource(ctx context.Context, opts Options, target string) error {
	// Best effort: stale remote refs only make the behind-count low.
	if err := o.git.Fetch(ctx, opts.WorktreeDir); err != nil {
		o.logger.Warn("fetch failed, continuing with local refs", "error", err)
	}

	behind, err := o.git.BehindCount(ctx, opts.WorktreeDir, opts.SourceBranch, target)
	if err != nil {
		return fmt.Errorf("computing ancestry: %w", err)
	}
	if behind == 0 {
		return nil
	}
	o.logger.Info("source behind target, rebasing", "behind", behind)

	stashed := false
	if dirty, err := o.git.HasUncommittedChanges(ctx, opts.WorktreeDir); err != nil {
		return fmt.Errorf("checking source state: %w", err)
	} else if dirty {
		if err := o.git.StashPush(ctx, opts.WorktreeDir, "wtforge pre-rebase"); err != nil {
			return fmt.Errorf("stashing source changes: %w", err)
		}
		stashed = true
	}

	if err := o.git.Rebase(ctx, opts.WorktreeDir, target); err != nil {
		conflicts, cErr := o.git.ConflictedPaths(ctx, opts.WorktreeDir)
		if abortErr := o.git.RebaseAbort(ctx, opts.WorktreeDir); abortErr != nil {
			o.logger.Warn("rebase abort failed", "error", abortErr)
		}
		if stashed {
			if popErr := o.git.StashPop(ctx, opts.WorktreeDir); popErr != nil {
				o.logger.Warn("stash restore failed", "error", popErr)
			}
		}
		if cErr == nil && len(conflicts) > 0 {
			return &UnresolvedConflictError{Stage: "rebase", Paths: conflicts}
		}
		return fmt.Errorf("rebasing %s onto %s: %w", opts.SourceBranch, target, err)
	}

	if stashed {
		if err := o.git.StashPop(ctx, opts.WorktreeDir); err != nil {
			return fmt.Errorf("restoring stashed changes after rebase: %w", err)
		}
	}
	return nil
}

// stage performs the no-commit merge and applies the classification
// policy to the staged set: preserve paths are restored to the
// target's pre-merge content, skip paths are dropped entirely, and
// any conflict outside those two classes stops the merge mid-flight.
func (o *Orchestrator) stage(ctx context.Context, opts Options, plan classify.Plan) error {
	mergeErr := o.git.MergeNoCommit(ctx, opts.TargetDir, opts.SourceBranch)

	if mergeErr != nil {
		conflicts, err := o.git.ConflictedPaths(ctx, opts.TargetDir)
		if err != nil {
			return fmt.Errorf("listing conflicts: %w", err)
		}
		if len(conflicts) == 0 {
			return fmt.Errorf("merging %s: %w", opts.SourceBranch, mergeErr)
		}

		preserve := plan.PreserveSet()
		skip := plan.SkipSet()
		var unresolved []string
		for _, path := range conflicts {
			switch {
			case preserve[path]:
				// Policy resolution: the target's version always wins
				// for preserve paths. Not a guess.
				if err := o.git.RestorePathFrom(ctx, opts.TargetDir, "HEAD", path); err != nil {
					return fmt.Errorf("restoring preserved %s: %w", path, err)
				}
				o.logger.Info("auto-resolved preserve conflict", "path", path)
			case skip[path]:
				if err := o.discardPath(ctx, opts.TargetDir, path); err != nil {
					return fmt.Errorf("discarding skipped %s: %w", path, err)
				}
				o.logger.Info("dropped skipped conflict", "path", path)
			default:
				unresolved = append(unresolved, path)
			}
		}
		if len(unresolved) > 0 {
			// Intentionally left mid-merge: this is the state a human
			// resolves by hand.
			return &UnresolvedConflictError{Stage: "merge", Paths: unresolved}
		}
	}

	// Clean merges of skip/preserve paths still have to be undone:
	// those files never belong in the merge commit.
	for _, path := range plan.ToPreserve {
		if err := o.discardPath(ctx, opts.TargetDir, path); err != nil {
			return fmt.Errorf("restoring preserved %s: %w", path, err)
		}
	}
	for _, path := range plan.ToSkip {
		if err := o.discardPath(ctx, opts.TargetDir, path); err != nil {
			return fmt.Errorf("discarding skipped %s: %w", path, err)
		}
	}
	return nil
}

// discardPath removes path from the staged set and restores the
// target's version. Paths new on the source (absent from HEAD) are
// deleted from the working tree instead.
func (o *Orchestrator) discardPath(ctx context.Context, dir, path string) error {
	if err := o.git.UnstagePath(ctx, dir, path); err != nil {
		return err
	}
	if err := o.git.RestorePathFrom(ctx, dir, "HEAD", path); err != nil {
		// Not in HEAD: the file only exists on the source branch.
		if rmErr := os.Remove(filepath.Join(dir, filepath.FromSlash(path))); rmErr != nil && !os.IsNotExist(rmErr) {
			return rmErr
		}
	}
	return nil
}
