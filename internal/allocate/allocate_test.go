package allocate

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func testRanges() []NamedRange {
	return []NamedRange{
		{Name: "app", Base: 3000, Width: 30},
		{Name: "db", Base: 5430, Width: 30},
		{Name: "cache", Base: 6370, Width: 30},
	}
}

func TestAllocateDeterministic(t *testing.T) {
	first := Allocate("feature-login", testRanges())
	for i := 0; i < 10; i++ {
		again := Allocate("feature-login", testRanges())
		if again.Offset != first.Offset || again.Hash != first.Hash || again.SafeName != first.SafeName {
			t.Fatalf("allocation changed between calls: %+v vs %+v", first, again)
		}
		for name, port := range first.Ports {
			if again.Ports[name] != port {
				t.Errorf("port %s changed: %d vs %d", name, port, again.Ports[name])
			}
		}
	}
}

func TestAllocateSameOffsetAcrossRanges(t *testing.T) {
	a := Allocate("my-branch", testRanges())
	for _, r := range testRanges() {
		want := r.Base + a.Offset
		if a.Ports[r.Name] != want {
			t.Errorf("port %s = %d, want %d", r.Name, a.Ports[r.Name], want)
		}
	}
}

func TestOffsetInRange(t *testing.T) {
	for _, id := range []string{"a", "main", "feature/x", "fix_bug_123", strings.Repeat("z", 200)} {
		off := Offset(id, 30)
		if off < 0 || off >= 30 {
			t.Errorf("Offset(%q) = %d, out of [0,30)", id, off)
		}
	}
}

func TestOffsetSpread(t *testing.T) {
	// 1000 random identities over 30 slots: no slot should receive wildly
	// more than the 33-ish expected. Sanity check for uniformity.
	rng := rand.New(rand.NewSource(42))
	counts := make(map[int]int)
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("branch-%d-%d", rng.Int63(), i)
		counts[Offset(id, 30)]++
	}
	for slot, n := range counts {
		if n > 100 { // 3x the expected 33
			t.Errorf("slot %d received %d allocations, distribution looks skewed", slot, n)
		}
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"feature-login", "feature-login"},
		{"Feature/Login", "feature-login"},
		{"fix_bug__123", "fix-bug-123"},
		{"--trim--", "trim"},
		{"UPPER", "upper"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SafeName(tt.input, DefaultNameBudget)
			if got != tt.expected {
				t.Errorf("SafeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSafeNameTruncation(t *testing.T) {
	long := "a-very-long-branch-name-that-exceeds-every-budget"
	got := SafeName(long, 20)
	if len(got) > 20 {
		t.Errorf("SafeName length = %d, want <= 20 (%q)", len(got), got)
	}
	// Distinct long names must stay distinct after truncation.
	other := SafeName(long+"-2", 20)
	if got == other {
		t.Errorf("truncated names collided: %q", got)
	}
	// Same input, same truncation.
	if again := SafeName(long, 20); again != got {
		t.Errorf("truncation not stable: %q vs %q", got, again)
	}
}

func TestNames(t *testing.T) {
	names := Names("Feature/Login", DefaultNameBudget)
	if names["project"] != "feature-login" {
		t.Errorf("project = %q", names["project"])
	}
	if names["network"] != "feature-login-net" || names["volume"] != "feature-login-data" {
		t.Errorf("derived names = %v", names)
	}
}

func TestProbePort(t *testing.T) {
	// A freshly probed free port should probe true twice (probe releases it).
	a := Allocate("probe-test", []NamedRange{{Name: "app", Base: 42800, Width: 30}})
	port := a.Ports["app"]
	if !ProbePort(port) {
		t.Skipf("port %d busy on test host", port)
	}
	if !ProbePort(port) {
		t.Errorf("probe did not release port %d", port)
	}
}
