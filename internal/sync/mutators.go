// pattern: Imperative Shell

package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// AppendOnce appends block to the text file at path unless the block's
// marker (its first non-empty line) is already present. The file is
// created if missing. Safe to call on every run; the block is never
// duplicated. Returns whether anything was written.
func AppendOnce(path, block string) (bool, error) {
	marker := markerLine(block)
	if marker == "" {
		return false, fmt.Errorf("block has no marker line")
	}

	current, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, line := range strings.Split(string(current), "\n") {
		if strings.TrimSpace(line) == marker {
			return false, nil
		}
	}

	content := string(current)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += strings.TrimRight(block, "\n") + "\n"

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, err
	}
	return true, nil
}

func markerLine(block string) string {
	for _, line := range strings.Split(block, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// KeyMergeStats reports what MergeKeys did per proposed key.
type KeyMergeStats struct {
	Added     []string
	Updated   []string
	Unchanged []string
}

// MergeKeys merges proposed key/value pairs into the flat string table
// at tableKey inside the JSON document at path (e.g. the "scripts"
// object of a package.json). Absent keys are added, differing values
// overwritten, identical values left alone. Keys already in the table
// but not proposed are never removed. The document is created if the
// file does not exist.
func MergeKeys(path, tableKey string, proposed map[string]string) (KeyMergeStats, error) {
	var stats KeyMergeStats

	doc := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return stats, err
		}
	} else if err := json.Unmarshal(data, &doc); err != nil {
		return stats, fmt.Errorf("parsing %s: %w", path, err)
	}

	table := map[string]any{}
	if existing, ok := doc[tableKey].(map[string]any); ok {
		table = existing
	}

	for key, value := range proposed {
		current, present := table[key]
		switch {
		case !present:
			table[key] = value
			stats.Added = append(stats.Added, key)
		case current == any(value):
			stats.Unchanged = append(stats.Unchanged, key)
		default:
			table[key] = value
			stats.Updated = append(stats.Updated, key)
		}
	}

	doc[tableKey] = table

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return stats, err
	}
	out = append(out, '\n')

	if err := os.WriteFile(path, out, 0644); err != nil {
		return stats, err
	}
	return stats, nil
}
