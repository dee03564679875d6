// pattern: Imperative Shell

package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"wtforge/internal/config"
)

const lockFileName = "wtforge.lock"

// Acquire takes an advisory exclusive lock on a target tree for the
// duration of an install or merge. The lock is best-effort protection
// against two wtforge processes mutating the same tree at once; it does
// not guard against other tools.
func Acquire(targetRoot string) (*flock.Flock, error) {
	dir := filepath.Join(targetRoot, config.Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(dir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another wtforge operation is already running against %s", targetRoot)
	}
	return fl, nil
}

// Release unlocks and removes the lock file.
func Release(fl *flock.Flock) {
	if fl == nil {
		return
	}
	path := fl.Path()
	_ = fl.Unlock()
	_ = os.Remove(path)
}
