// pattern: Functional Core

package mergeback

import (
	"fmt"
	"strings"
)

// ParentMismatchError means the worktree's recorded parent branch is
// not the branch the merge was invoked from. Detected before any git
// command mutates state.
type ParentMismatchError struct {
	Branch         string
	RecordedParent string
	CurrentBranch  string
}

func (e *ParentMismatchError) Error() string {
	return fmt.Sprintf(
		"worktree %q was created from %q but the current branch is %q; "+
			"switch to the recorded parent first: git checkout %s",
		e.Branch, e.RecordedParent, e.CurrentBranch, e.RecordedParent)
}

// UncommittedChangesError means the target tree was dirty before the
// merge started. The orchestrator refuses to mix its merge commit with
// changes it did not create.
type UncommittedChangesError struct {
	Dir string
}

func (e *UncommittedChangesError) Error() string {
	return fmt.Sprintf(
		"uncommitted changes in %s; commit or stash them before merging (git stash push)",
		e.Dir)
}

// UnresolvedConflictError carries the paths the classification-driven
// cleanup could not resolve. Stage is "rebase" or "merge". A rebase
// conflict has already been aborted and any stash restored; a merge
// conflict intentionally leaves the repository mid-merge for manual
// resolution.
type UnresolvedConflictError struct {
	Stage string
	Paths []string
}

func (e *UnresolvedConflictError) Error() string {
	list := strings.Join(e.Paths, ", ")
	if e.Stage == "rebase" {
		return fmt.Sprintf(
			"rebase conflicts in: %s; the rebase was aborted, rerun it manually "+
				"(git rebase <parent>), resolve, then retry the merge", list)
	}
	return fmt.Sprintf(
		"merge conflicts in: %s; resolve each file, then git add <file> and "+
			"git commit, or abandon with git merge --abort", list)
}
