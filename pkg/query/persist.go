package query

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/owenleonard11/chronam-utils/pkg/chronam"
)

// DumpIDs writes the union of record ids across the given states to path,
// one id per line in sorted order. Duplicate ids across states are written
// once. It returns the number of ids written.
func DumpIDs(path string, states ...*State) (int, error) {
	ids := collectIDs(states)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(id)
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return 0, fmt.Errorf("failed to write id list: %w", err)
	}

	return len(ids), nil
}

// LoadIDs reads a newline-separated id list written by DumpIDs. Blank lines
// are skipped.
func LoadIDs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open id list: %w", err)
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read id list: %w", err)
	}

	return ids, nil
}

// DumpJSON writes the deduplicated records across the given states to path
// as a JSON array in wire format, sorted by id. When the same id appears in
// several states the earliest state's record wins. It returns the number of
// records written.
func DumpJSON(path string, states ...*State) (int, error) {
	merged := make(map[string]chronam.Record)
	for _, st := range states {
		for id, rec := range st.Results {
			if _, dup := merged[id]; !dup {
				merged[id] = rec
			}
		}
	}

	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]chronam.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, merged[id])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode records: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write records: %w", err)
	}

	return len(records), nil
}

// collectIDs merges ids across states, earliest state first, and sorts them
func collectIDs(states []*State) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, st := range states {
		for id := range st.Results {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}
