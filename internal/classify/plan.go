// pattern: Functional Core

package classify

// MergeRules are the pattern lists used when merging a worktree branch
// back into its parent. Skip marks worktree-local artifacts that must
// never cross branches; Preserve marks target-owned files whose parent
// version always wins. Preserve takes precedence over Skip.
type MergeRules struct {
	Skip     []string `yaml:"skip"`
	Preserve []string `yaml:"preserve"`
}

// Plan partitions a changed-path set for one merge. The three slices
// are disjoint and together cover every input path exactly once.
type Plan struct {
	ToMerge    []string
	ToSkip     []string
	ToPreserve []string
}

// Partition assigns every changed path to exactly one bucket.
func Partition(changed []string, rules MergeRules) Plan {
	var plan Plan
	for _, p := range changed {
		switch {
		case matchesAny(p, rules.Preserve):
			plan.ToPreserve = append(plan.ToPreserve, p)
		case matchesAny(p, rules.Skip):
			plan.ToSkip = append(plan.ToSkip, p)
		default:
			plan.ToMerge = append(plan.ToMerge, p)
		}
	}
	return plan
}

// PreserveSet returns the preserve bucket as a lookup set.
func (p Plan) PreserveSet() map[string]bool {
	return toSet(p.ToPreserve)
}

// SkipSet returns the skip bucket as a lookup set.
func (p Plan) SkipSet() map[string]bool {
	return toSet(p.ToSkip)
}

func toSet(paths []string) map[string]bool {
	s := make(map[string]bool, len(paths))
	for _, p := range paths {
		s[p] = true
	}
	return s
}
