package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// ExportVersion is the current export format version.
const ExportVersion = "1.0"

// ExportFormat represents the JSON structure for cache export/import.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []KeyedEntry      `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Expired  int // Entries skipped because their TTL had already elapsed
}

// Export writes the cache contents to w, least recently used first.
func (c *Cache) Export(w io.Writer, metadata map[string]string) error {
	c.mu.Lock()
	entries := c.snapshot()
	c.mu.Unlock()

	export := ExportFormat{
		Version:    ExportVersion,
		ExportedAt: c.now().UTC().Format(time.RFC3339),
		Entries:    entries,
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

// ExportToFile exports the cache to a file.
// The path is provided by the caller and is intentionally user-controlled.
func (c *Cache) ExportToFile(path string, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return c.Export(f, metadata)
}

// Import loads exported entries into the cache, keeping their original
// timestamps and access counts. Expired entries are skipped. The imported
// entries become the most recently used, in file order, and the cache is
// persisted once afterwards.
func (c *Cache) Import(r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	live := make([]KeyedEntry, 0, len(export.Entries))
	for _, ke := range export.Entries {
		if c.expired(&ke.Entry, now) {
			result.Expired++
			continue
		}
		live = append(live, ke)
	}

	c.insert(live)
	result.Imported = len(live)
	c.persist()

	return result, nil
}

// ImportFromFile imports cache entries from a file.
// The path is provided by the caller and is intentionally user-controlled.
func (c *Cache) ImportFromFile(path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return c.Import(f)
}
