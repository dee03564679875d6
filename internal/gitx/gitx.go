// pattern: Imperative Shell

package gitx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandExecutor runs one git invocation in dir and returns stdout.
// A non-zero exit status is an error; the collaborator never retries.
type CommandExecutor func(ctx context.Context, dir string, args ...string) (string, error)

// Git wraps the git binary behind a narrow, typed interface so the
// merge orchestrator can be exercised against a fake executor.
type Git struct {
	exec CommandExecutor
}

// New creates a Git collaborator backed by the real binary.
func New() *Git {
	return &Git{exec: defaultExecutor}
}

// NewWithExecutor creates a Git collaborator with a custom executor for testing.
func NewWithExecutor(exec CommandExecutor) *Git {
	return &Git{exec: exec}
}

// CommandError carries the failing invocation and its stderr.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), e.Stderr)
	}
	return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// defaultExecutor runs git via os/exec.
func defaultExecutor(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), &CommandError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// CurrentBranch returns the checked-out branch name in dir.
func (g *Git) CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := g.exec(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// BranchExists reports whether a local branch exists.
func (g *Git) BranchExists(ctx context.Context, dir, branch string) bool {
	_, err := g.exec(ctx, dir, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// WorktreeAdd creates a worktree at path with a new branch.
func (g *Git) WorktreeAdd(ctx context.Context, dir, path, branch string) error {
	_, err := g.exec(ctx, dir, "worktree", "add", path, "-b", branch)
	return err
}

// WorktreeRemove removes a worktree. Non-force: git refuses if dirty.
func (g *Git) WorktreeRemove(ctx context.Context, dir, path string) error {
	_, err := g.exec(ctx, dir, "worktree", "remove", path)
	return err
}

// DeleteBranch deletes a local branch. Non-force: git refuses if unmerged.
func (g *Git) DeleteBranch(ctx context.Context, dir, branch string) error {
	_, err := g.exec(ctx, dir, "branch", "-d", branch)
	return err
}

// Fetch updates remote tracking refs.
func (g *Git) Fetch(ctx context.Context, dir string) error {
	_, err := g.exec(ctx, dir, "fetch", "--quiet")
	return err
}

// DiffNameOnly lists paths that differ on branch since its merge base
// with base (three-dot semantics).
func (g *Git) DiffNameOnly(ctx context.Context, dir, base, branch string) ([]string, error) {
	out, err := g.exec(ctx, dir, "diff", "--name-only", base+"..."+branch)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// HasUncommittedChanges reports whether the working tree is dirty.
func (g *Git) HasUncommittedChanges(ctx context.Context, dir string) (bool, error) {
	out, err := g.exec(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// StashPush stashes local changes, including untracked files.
func (g *Git) StashPush(ctx context.Context, dir, message string) error {
	_, err := g.exec(ctx, dir, "stash", "push", "--include-untracked", "-m", message)
	return err
}

// StashPop restores the most recent stash.
func (g *Git) StashPop(ctx context.Context, dir string) error {
	_, err := g.exec(ctx, dir, "stash", "pop")
	return err
}

// Rebase rebases the current branch onto the given ref. On conflict
// git exits non-zero and leaves the rebase in progress; the caller
// decides whether to abort.
func (g *Git) Rebase(ctx context.Context, dir, onto string) error {
	_, err := g.exec(ctx, dir, "rebase", onto)
	return err
}

// RebaseAbort abandons an in-progress rebase.
func (g *Git) RebaseAbort(ctx context.Context, dir string) error {
	_, err := g.exec(ctx, dir, "rebase", "--abort")
	return err
}

// BehindCount returns how many commits of upstream are missing from branch.
func (g *Git) BehindCount(ctx context.Context, dir, branch, upstream string) (int, error) {
	out, err := g.exec(ctx, dir, "rev-list", "--count", branch+".."+upstream)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parsing rev-list count %q: %w", out, err)
	}
	return n, nil
}

// MergeNoCommit starts a no-commit, no-fast-forward merge of branch
// into the current branch. A conflicting merge returns an error with
// the merge left in progress.
func (g *Git) MergeNoCommit(ctx context.Context, dir, branch string) error {
	_, err := g.exec(ctx, dir, "merge", "--no-commit", "--no-ff", branch)
	return err
}

// MergeAbort abandons an in-progress merge.
func (g *Git) MergeAbort(ctx context.Context, dir string) error {
	_, err := g.exec(ctx, dir, "merge", "--abort")
	return err
}

// ConflictedPaths lists paths currently in conflicted (unmerged) state.
func (g *Git) ConflictedPaths(ctx context.Context, dir string) ([]string, error) {
	out, err := g.exec(ctx, dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// StagedPaths lists paths staged for the next commit.
func (g *Git) StagedPaths(ctx context.Context, dir string) ([]string, error) {
	out, err := g.exec(ctx, dir, "diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// RestorePathFrom writes ref's version of path into both the index and
// the working tree, resolving any conflict in ref's favor.
func (g *Git) RestorePathFrom(ctx context.Context, dir, ref, path string) error {
	_, err := g.exec(ctx, dir, "checkout", ref, "--", path)
	return err
}

// UnstagePath drops path from the staged change set.
func (g *Git) UnstagePath(ctx context.Context, dir, path string) error {
	_, err := g.exec(ctx, dir, "reset", "HEAD", "--", path)
	return err
}

// Add stages paths.
func (g *Git) Add(ctx context.Context, dir string, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	_, err := g.exec(ctx, dir, args...)
	return err
}

// Commit records the staged changes.
func (g *Git) Commit(ctx context.Context, dir, message string) error {
	_, err := g.exec(ctx, dir, "commit", "-m", message)
	return err
}

// Push publishes branch to the given remote.
func (g *Git) Push(ctx context.Context, dir, remote, branch string) error {
	_, err := g.exec(ctx, dir, "push", remote, branch)
	return err
}

// ConfigGet reads a local git config value. Missing keys return "".
func (g *Git) ConfigGet(ctx context.Context, dir, key string) string {
	out, err := g.exec(ctx, dir, "config", "--local", "--get", key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// ConfigSet writes a local git config value.
func (g *Git) ConfigSet(ctx context.Context, dir, key, value string) error {
	_, err := g.exec(ctx, dir, "config", "--local", key, value)
	return err
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
