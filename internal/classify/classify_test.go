package classify

import (
	"sort"
	"testing"
)

func testRules() Rules {
	return Rules{
		AlwaysUpdate:   []string{"scripts/", "docs/worktrees.md", ".github/workflows/*"},
		Protected:      []string{"deploy/", "config/app.env"},
		PreserveTarget: []string{"test/package.json", "scripts/local-*"},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Decision
	}{
		{"scripts/setup.mjs", AlwaysUpdate},
		{"scripts/nested/dir/tool.mjs", AlwaysUpdate},
		{"docs/worktrees.md", AlwaysUpdate},
		{".github/workflows/ci.yml", AlwaysUpdate},
		{"deploy/db.yml", Protected},
		{"config/app.env", Protected},
		{"test/package.json", PreserveTarget},
		{"src/index.ts", Merge},
		{"README.md", Merge},
		{"docs/other.md", Merge},
	}

	rules := testRules()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := Classify(tt.path, rules)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// scripts/local-notes.md matches both the scripts/ always-update
	// prefix and the preserve wildcard; preserve must win.
	got := Classify("scripts/local-notes.md", testRules())
	if got != PreserveTarget {
		t.Errorf("preserve did not take precedence over always-update: got %v", got)
	}
}

func TestClassifyNormalizesSeparators(t *testing.T) {
	if got := Classify(`scripts\setup.mjs`, testRules()); got != AlwaysUpdate {
		t.Errorf("backslash path not normalized: got %v", got)
	}
}

func TestPartitionDisjoint(t *testing.T) {
	changed := []string{
		"scripts/b.mjs",
		"test/package.json",
		".wtforge/worktree.json",
		"src/main.go",
		"deploy/db.yml",
	}
	rules := MergeRules{
		Skip:     []string{".wtforge/", "deploy/db.yml"},
		Preserve: []string{"test/package.json"},
	}

	plan := Partition(changed, rules)

	var all []string
	all = append(all, plan.ToMerge...)
	all = append(all, plan.ToSkip...)
	all = append(all, plan.ToPreserve...)
	if len(all) != len(changed) {
		t.Fatalf("partition size = %d, want %d", len(all), len(changed))
	}

	seen := map[string]int{}
	for _, p := range all {
		seen[p]++
	}
	for _, p := range changed {
		if seen[p] != 1 {
			t.Errorf("path %q appears %d times in partition, want exactly 1", p, seen[p])
		}
	}

	sort.Strings(plan.ToSkip)
	wantSkip := []string{".wtforge/worktree.json", "deploy/db.yml"}
	for i, p := range wantSkip {
		if plan.ToSkip[i] != p {
			t.Errorf("ToSkip[%d] = %q, want %q", i, plan.ToSkip[i], p)
		}
	}
	if len(plan.ToPreserve) != 1 || plan.ToPreserve[0] != "test/package.json" {
		t.Errorf("ToPreserve = %v", plan.ToPreserve)
	}
}

func TestPartitionPreserveBeatsSkip(t *testing.T) {
	rules := MergeRules{
		Skip:     []string{"test/"},
		Preserve: []string{"test/package.json"},
	}
	plan := Partition([]string{"test/package.json", "test/tmp.log"}, rules)
	if len(plan.ToPreserve) != 1 || plan.ToPreserve[0] != "test/package.json" {
		t.Errorf("ToPreserve = %v, want [test/package.json]", plan.ToPreserve)
	}
	if len(plan.ToSkip) != 1 || plan.ToSkip[0] != "test/tmp.log" {
		t.Errorf("ToSkip = %v, want [test/tmp.log]", plan.ToSkip)
	}
}
