// pattern: Functional Core

package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Severity grades a conflict finding.
type Severity string

const (
	// SeverityError blocks the install.
	SeverityError Severity = "error"
	// SeverityWarning is surfaced but does not block.
	SeverityWarning Severity = "warning"
)

// Check describes one pre-existing path that would collide with an
// install. Severity is configuration: the same path can be an error
// for one toggle set and a warning for another.
type Check struct {
	Path     string
	Message  string
	Severity Severity
	Enabled  bool
}

// Finding is one detected collision.
type Finding struct {
	Path     string
	Message  string
	Severity Severity
}

// Report is the result of a pre-flight validation run.
type Report struct {
	Findings []Finding
}

// Valid reports whether the install may proceed: true iff no finding
// has error severity. Warnings are surfaced but do not block.
func (r Report) Valid() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Warnings returns only the warning-severity findings.
func (r Report) Warnings() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			out = append(out, f)
		}
	}
	return out
}

// Errors returns only the error-severity findings.
func (r Report) Errors() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// Validate scans the target tree for each enabled check's path and
// collects findings for the ones that exist. It mutates nothing.
func Validate(targetRoot string, checks []Check) Report {
	var report Report
	for _, c := range checks {
		if !c.Enabled {
			continue
		}
		if _, err := os.Stat(filepath.Join(targetRoot, filepath.FromSlash(c.Path))); err == nil {
			report.Findings = append(report.Findings, Finding{
				Path:     c.Path,
				Message:  c.Message,
				Severity: c.Severity,
			})
		}
	}
	return report
}

// ValidationBlockedError is returned when an install is attempted
// against a target tree with error-severity collisions.
type ValidationBlockedError struct {
	Findings []Finding
}

func (e *ValidationBlockedError) Error() string {
	var paths []string
	for _, f := range e.Findings {
		if f.Severity == SeverityError {
			paths = append(paths, f.Path)
		}
	}
	return fmt.Sprintf("install blocked by existing paths: %s", strings.Join(paths, ", "))
}

// DefaultChecks builds the standard pre-flight check list.
// withDeploy marks the deploy directory collision as blocking, since
// overwriting existing infrastructure definitions is destructive;
// everything else is refreshed in place and only warrants a warning.
func DefaultChecks(withDeploy bool) []Check {
	return []Check{
		{
			Path:     "deploy",
			Message:  "deploy directory already exists; remove it or run without infrastructure installation",
			Severity: SeverityError,
			Enabled:  withDeploy,
		},
		{
			Path:     "scripts",
			Message:  "scripts directory already exists and will be refreshed",
			Severity: SeverityWarning,
			Enabled:  true,
		},
		{
			Path:     "docs/worktrees.md",
			Message:  "worktree documentation already exists and will be refreshed",
			Severity: SeverityWarning,
			Enabled:  true,
		},
	}
}
