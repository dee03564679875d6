// pattern: Functional Core

package allocate

import (
	"fmt"
	"hash/fnv"
	"net"
	"strings"
)

// DefaultRangeWidth is the number of slots in each port range when the
// configuration does not say otherwise.
const DefaultRangeWidth = 30

// DefaultNameBudget is the maximum length of a sanitized resource name
// before hash-suffix truncation kicks in. Chosen to leave room for
// platform prefixes (container/network names commonly cap at 63).
const DefaultNameBudget = 20

// NamedRange describes one port range an allocation draws from.
// Width is the number of consecutive ports starting at Base.
type NamedRange struct {
	Name  string `yaml:"name"`
	Base  int    `yaml:"base"`
	Width int    `yaml:"width"`
}

// Allocation is the full set of identifiers derived from one branch name.
// It is a pure function of the identity: recomputing it always yields
// byte-identical results, so it is never persisted as a source of truth.
type Allocation struct {
	Identity string         `json:"identity"`
	Hash     string         `json:"hash"`
	SafeName string         `json:"safeName"`
	Offset   int            `json:"offset"`
	Ports    map[string]int `json:"ports"`
}

// digest returns the FNV-64a sum of identity.
func digest(identity string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(identity))
	return h.Sum64()
}

// Offset maps an identity onto a slot in [0, width).
// The sum of the two high bytes of the digest keeps the mapping stable
// and uniformly spread; collision between two identities is accepted
// residual risk, not an error.
func Offset(identity string, width int) int {
	if width <= 0 {
		width = DefaultRangeWidth
	}
	d := digest(identity)
	b0 := int(d >> 56 & 0xff)
	b1 := int(d >> 48 & 0xff)
	return (b0 + b1) % width
}

// Allocate derives the deterministic resource allocation for identity.
// Every named range gets base+offset, with a single offset computed
// against the smallest configured width so all ports stay in range.
func Allocate(identity string, ranges []NamedRange) Allocation {
	width := DefaultRangeWidth
	for _, r := range ranges {
		if r.Width > 0 && r.Width < width {
			width = r.Width
		}
	}

	offset := Offset(identity, width)

	ports := make(map[string]int, len(ranges))
	for _, r := range ranges {
		ports[r.Name] = r.Base + offset
	}

	return Allocation{
		Identity: identity,
		Hash:     HashFragment(identity),
		SafeName: SafeName(identity, DefaultNameBudget),
		Offset:   offset,
		Ports:    ports,
	}
}

// HashFragment returns a short hex fragment of the identity digest,
// used to keep truncated names distinguishing.
func HashFragment(identity string) string {
	return fmt.Sprintf("%06x", digest(identity)&0xffffff)
}

// SafeName sanitizes identity into a name usable for containers,
// networks and buckets: lowercase, runs of anything outside [a-z0-9-]
// collapsed to a single hyphen, no leading/trailing hyphens. Names
// longer than budget are truncated and suffixed with a hash fragment.
func SafeName(identity string, budget int) string {
	if budget <= 0 {
		budget = DefaultNameBudget
	}

	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(identity) {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
		if ok && r != '-' {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	name := strings.Trim(b.String(), "-")
	if len(name) <= budget {
		return name
	}

	frag := HashFragment(identity)
	keep := budget - len(frag) - 1
	if keep < 1 {
		keep = 1
	}
	name = strings.TrimRight(name[:keep], "-")
	return name + "-" + frag
}

// Names derives the per-worktree resource name fragments from an
// identity: compose project, network and volume names built on the
// safe name. Like Allocate, a pure function of the identity.
func Names(identity string, budget int) map[string]string {
	safe := SafeName(identity, budget)
	return map[string]string{
		"project": safe,
		"network": safe + "-net",
		"volume":  safe + "-data",
	}
}

// ProbePort reports whether a TCP port can currently be bound on
// localhost. Advisory only: the allocator never reassigns on a busy
// port, callers surface the result as a warning.
func ProbePort(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
