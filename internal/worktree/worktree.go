// pattern: Imperative Shell

package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"wtforge/internal/allocate"
	"wtforge/internal/config"
	"wtforge/internal/gitx"
	"wtforge/internal/meta"
)

// parentHintKey mirrors the hint the merge orchestrator falls back to.
const parentHintKey = "wtforge.parent"

// validNameRe matches valid worktree branch names. The branch name
// seeds every derived identifier, so the character set stays narrow.
var validNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateName checks if a worktree branch name is valid.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("worktree name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("worktree name too long (max 100 characters)")
	}
	if !validNameRe.MatchString(name) {
		return fmt.Errorf("invalid worktree name %q: only A-Z a-z 0-9 _ - are allowed", name)
	}
	return nil
}

// Dir returns the path where a worktree would be created.
// Worktrees are stored in <project>/.worktrees/<name>/
func Dir(projectPath, name string) string {
	return filepath.Join(projectPath, ".worktrees", name)
}

// Create provisions a new worktree: validates the name, creates the
// git worktree with a new branch, records the parent both in the
// metadata record and as a git config hint, and caches the resource
// allocation for display. Returns the worktree path.
func Create(ctx context.Context, git *gitx.Git, projectPath, name string, cfg config.Config) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	wtDir := Dir(projectPath, name)
	if _, err := os.Stat(wtDir); err == nil {
		return "", fmt.Errorf("worktree %q already exists at %s", name, wtDir)
	}
	if git.BranchExists(ctx, projectPath, name) {
		return "", fmt.Errorf("branch %q already exists", name)
	}

	parent, err := git.CurrentBranch(ctx, projectPath)
	if err != nil {
		return "", fmt.Errorf("reading parent branch: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(projectPath, ".worktrees"), 0755); err != nil {
		return "", fmt.Errorf("creating .worktrees directory: %w", err)
	}

	if err := git.WorktreeAdd(ctx, projectPath, wtDir, name); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	rec := meta.Record{
		BranchName:    name,
		ParentBranch:  parent,
		CreatedAt:     now,
		UpdatedAt:     now,
		Configuration: allocate.Allocate(name, cfg.Ranges),
		Config:        allocate.Names(name, cfg.NameBudget),
	}
	if err := meta.Save(wtDir, rec); err != nil {
		_ = git.WorktreeRemove(ctx, projectPath, wtDir)
		return "", fmt.Errorf("writing worktree metadata: %w", err)
	}

	// Secondary hint so merges still find the lineage if the metadata
	// record is deleted.
	if err := git.ConfigSet(ctx, wtDir, parentHintKey, parent); err != nil {
		return "", fmt.Errorf("recording parent hint: %w", err)
	}

	return wtDir, nil
}

// Info summarizes one provisioned worktree.
type Info struct {
	Name      string
	Path      string
	Parent    string
	CreatedAt time.Time
}

// List enumerates the worktrees under <project>/.worktrees, sorted by
// name. Directories without a metadata record still show up, with the
// record-derived fields zeroed.
func List(projectPath string) ([]Info, error) {
	entries, err := os.ReadDir(filepath.Join(projectPath, ".worktrees"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Info
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info := Info{Name: e.Name(), Path: Dir(projectPath, e.Name())}
		if rec, err := meta.Load(info.Path); err == nil {
			info.Parent = rec.ParentBranch
			info.CreatedAt = rec.CreatedAt
		}
		out = append(out, info)
	}
	return out, nil
}

// Remove deletes a worktree and its branch. Non-force on both steps:
// git refuses dirty worktrees and unmerged branches.
func Remove(ctx context.Context, git *gitx.Git, projectPath, name string) error {
	wtDir := Dir(projectPath, name)
	if err := git.WorktreeRemove(ctx, projectPath, wtDir); err != nil {
		return err
	}
	return git.DeleteBranch(ctx, projectPath, name)
}
