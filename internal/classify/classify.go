// pattern: Functional Core

package classify

import (
	"path"
	"strings"
)

// Decision is the synchronization category assigned to a path.
type Decision int

const (
	// Merge is the default: the path participates in normal merge flow.
	Merge Decision = iota
	// AlwaysUpdate paths are refreshed from the template unconditionally.
	AlwaysUpdate
	// Protected paths are written only when absent (or under force).
	Protected
	// PreserveTarget paths keep the target tree's version no matter what.
	PreserveTarget
)

func (d Decision) String() string {
	switch d {
	case AlwaysUpdate:
		return "always-update"
	case Protected:
		return "protected"
	case PreserveTarget:
		return "preserve-target"
	default:
		return "merge"
	}
}

// Rules holds the named pattern lists a caller configures.
// Patterns are glob-lite: exact match, directory prefix ("scripts/"
// matches everything under scripts), or trailing "*" wildcard.
type Rules struct {
	AlwaysUpdate   []string `yaml:"alwaysUpdate"`
	Protected      []string `yaml:"protected"`
	PreserveTarget []string `yaml:"preserveTarget"`
}

// Classify assigns a decision to a relative path. Precedence when a
// path matches several lists: PreserveTarget > AlwaysUpdate > Protected.
// "Preserve the target's version" is the stronger safety guarantee, so a
// user-owned path is never overwritten by a broader always-update rule.
func Classify(relPath string, rules Rules) Decision {
	relPath = path.Clean(strings.ReplaceAll(relPath, "\\", "/"))

	switch {
	case matchesAny(relPath, rules.PreserveTarget):
		return PreserveTarget
	case matchesAny(relPath, rules.AlwaysUpdate):
		return AlwaysUpdate
	case matchesAny(relPath, rules.Protected):
		return Protected
	default:
		return Merge
	}
}

func matchesAny(relPath string, patterns []string) bool {
	for _, p := range patterns {
		if matches(relPath, p) {
			return true
		}
	}
	return false
}

// matches implements the glob-lite semantics: trailing "*" means any
// suffix, a trailing "/" means any path under that directory, anything
// else is an exact match. No recursive glob syntax.
func matches(relPath, pattern string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(relPath, strings.TrimSuffix(pattern, "*"))
	}
	if strings.HasSuffix(pattern, "/") {
		return strings.HasPrefix(relPath, pattern)
	}
	return relPath == pattern
}
