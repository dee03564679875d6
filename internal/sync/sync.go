// pattern: Imperative Shell

package sync

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"wtforge/internal/classify"
	"wtforge/internal/logging"
)

// Mode controls how the synchronizer treats existing files.
type Mode int

const (
	// ModeNormal respects protected paths.
	ModeNormal Mode = iota
	// ModeForce overwrites protected paths too.
	ModeForce
	// ModeDryRun computes stats without touching the filesystem.
	ModeDryRun
)

// Options configures one synchronization run.
type Options struct {
	Mode       Mode
	Rules      classify.Rules
	Variables  map[string]string
	IsText     func(path string) bool // substitution eligibility, by extension
	SkipGroups map[string]bool        // logical groups to leave out entirely
	Logger     *logging.ScopedLogger
}

// Counter tracks per-group outcomes for one run.
type Counter struct {
	Copied  int
	Skipped int
	Updated int
}

// Stats maps logical group (top-level template directory) to counters.
type Stats map[string]*Counter

func (s Stats) group(name string) *Counter {
	c, ok := s[name]
	if !ok {
		c = &Counter{}
		s[name] = c
	}
	return c
}

// Total sums all counters.
func (s Stats) Total() Counter {
	var t Counter
	for _, c := range s {
		t.Copied += c.Copied
		t.Skipped += c.Skipped
		t.Updated += c.Updated
	}
	return t
}

// groupOf derives the logical group from a template-relative path:
// the first path element for nested files, "base" for root-level files.
func groupOf(relPath string) string {
	rel := filepath.ToSlash(relPath)
	if i := strings.Index(rel, "/"); i > 0 {
		return rel[:i]
	}
	return "base"
}

// Sync walks the template tree and installs every entry into the
// target tree according to its classification and the run mode.
// Dry-run returns stats identical to what a real run would report,
// with zero writes.
func Sync(templateRoot, targetRoot string, opts Options) (Stats, error) {
	if opts.IsText == nil {
		opts.IsText = func(string) bool { return false }
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	stats := Stats{}
	replacer := newSubstituter(opts.Variables)

	err := filepath.WalkDir(templateRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(templateRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		group := groupOf(rel)
		counter := stats.group(group)
		if opts.SkipGroups[group] {
			logger.Debug("group disabled, not installing", "path", rel, "group", group)
			return nil
		}

		decision := classify.Classify(rel, opts.Rules)
		target := filepath.Join(targetRoot, filepath.FromSlash(rel))
		_, statErr := os.Stat(target)
		exists := statErr == nil

		writable := true
		switch decision {
		case classify.Protected, classify.PreserveTarget:
			// The synchronizer never overwrites either class; preserve
			// semantics beyond that only matter during branch merges.
			writable = !exists || opts.Mode == ModeForce
		}

		if !writable {
			counter.Skipped++
			logger.Debug("skipped", "path", rel, "decision", decision.String())
			return nil
		}

		if opts.Mode != ModeDryRun {
			if err := install(path, target, rel, replacer, opts.IsText); err != nil {
				return fmt.Errorf("installing %s: %w", rel, err)
			}
		}

		if exists {
			counter.Updated++
		} else {
			counter.Copied++
		}
		logger.Debug("installed", "path", rel, "decision", decision.String(), "existed", exists)
		return nil
	})
	if err != nil {
		return stats, err
	}

	logger.Info("sync complete", "copied", stats.Total().Copied,
		"updated", stats.Total().Updated, "skipped", stats.Total().Skipped)
	return stats, nil
}

// install copies one template entry, substituting variables in
// text files and copying everything else byte for byte.
func install(src, dst, rel string, sub *substituter, isText func(string) bool) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	if isText(rel) {
		data = []byte(sub.apply(string(data)))
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(src); err == nil && info.Mode()&0111 != 0 {
		mode = 0755
	}

	return os.WriteFile(dst, data, mode)
}

// substituter replaces {{KEY}} placeholders with configured values.
// Replacement is literal (strings.Replacer), so keys containing
// characters that would be significant to a pattern engine need no
// escaping. Unmatched placeholders stay verbatim.
type substituter struct {
	r *strings.Replacer
}

func newSubstituter(vars map[string]string) *substituter {
	if len(vars) == 0 {
		return &substituter{}
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return &substituter{r: strings.NewReplacer(pairs...)}
}

func (s *substituter) apply(content string) string {
	if s.r == nil {
		return content
	}
	return s.r.Replace(content)
}
