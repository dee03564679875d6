// pattern: Imperative Shell

package meta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wtforge/internal/allocate"
	"wtforge/internal/config"
)

// FileName is the per-worktree metadata record inside config.Dir.
const FileName = "worktree.json"

// Record is the persisted per-worktree metadata. The cached Allocation
// is for display and debugging only; the allocator regenerates the
// authoritative values from BranchName alone.
type Record struct {
	BranchName    string              `json:"branchName"`
	ParentBranch  string              `json:"parentBranch"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	Configuration allocate.Allocation `json:"configuration"`
	Config        map[string]string   `json:"config,omitempty"`
}

// Path returns the metadata record location for a worktree root.
func Path(worktreeRoot string) string {
	return filepath.Join(worktreeRoot, config.Dir, FileName)
}

// Exists reports whether a worktree has a metadata record. Upstream
// callers use this as the "fresh install vs update" signal.
func Exists(worktreeRoot string) bool {
	_, err := os.Stat(Path(worktreeRoot))
	return err == nil
}

// Load reads the metadata record for a worktree.
func Load(worktreeRoot string) (Record, error) {
	var rec Record
	data, err := os.ReadFile(Path(worktreeRoot))
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parsing %s: %w", Path(worktreeRoot), err)
	}
	return rec, nil
}

// Save writes the full record atomically: marshal in memory, write to a
// temp file in the same directory, then rename over the destination.
// A partially written record is never observable.
func Save(worktreeRoot string, rec Record) error {
	path := Path(worktreeRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), FileName+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Touch updates UpdatedAt and persists the record.
func Touch(worktreeRoot string, rec Record) error {
	rec.UpdatedAt = time.Now().UTC()
	return Save(worktreeRoot, rec)
}
