// Package cache keeps tool results on disk, keyed by file path, file
// content and tool invocations, so unchanged files skip the external tools.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/models"
)

// Cache provides file-based caching for tool results.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// ToolResults are the outputs of the three read-only tools for one file.
type ToolResults struct {
	Issues          models.Result[[]models.AnalysisIssue] `json:"issues"`
	Complexity      models.Result[models.Complexity]      `json:"complexity"`
	Maintainability models.Result[models.Maintainability] `json:"maintainability"`
}

// Complete reports whether every tool produced a result. Only complete
// results are worth caching: a tool installed later must get its chance.
func (r *ToolResults) Complete() bool {
	return r.Issues.OK() && r.Complexity.OK() && r.Maintainability.OK()
}

// Entry is one cached result on disk.
type Entry struct {
	Key       string      `json:"key"`
	Timestamp time.Time   `json:"timestamp"`
	Results   ToolResults `json:"results"`
}

// New creates a cache from cfg. A disabled cache misses every lookup and
// stores nothing.
func New(cfg config.CacheConfig) (*Cache, error) {
	if !cfg.Enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     cfg.Dir,
		ttl:     time.Duration(cfg.TTLHours) * time.Hour,
		enabled: true,
	}, nil
}

// Enabled reports whether lookups can hit.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// Key identifies the results for path with the given content digest under
// the configured tool invocations. The path is part of the key because
// the complexity and maintainability results are keyed by it.
func Key(path, digest string, tools config.ToolsConfig) string {
	parts := []string{path, digest}
	for _, tc := range []config.ToolConfig{tools.Style, tools.Complexity, tools.Maintainability} {
		parts = append(parts, tc.Command+" "+strings.Join(tc.Args, "\x1f"))
	}
	hash := blake3.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

// Get retrieves cached results if present and not expired.
func (c *Cache) Get(key string) (*ToolResults, bool) {
	if !c.Enabled() {
		return nil, false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key {
		return nil, false
	}

	// Zero TTL never expires
	if c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return nil, false
	}

	return &entry.Results, true
}

// Put stores results under key.
func (c *Cache) Put(key string, results *ToolResults) error {
	if !c.Enabled() {
		return nil
	}

	entryData, err := json.Marshal(Entry{
		Key:       key,
		Timestamp: time.Now(),
		Results:   *results,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(c.keyPath(key), entryData, 0600)
}

// Invalidate removes a cache entry.
func (c *Cache) Invalidate(key string) error {
	if !c.Enabled() {
		return nil
	}
	err := os.Remove(c.keyPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath converts a key to a filesystem path.
func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Dir       string        `json:"dir"`
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.Enabled() {
		return &Stats{}, nil
	}

	stats := &Stats{Dir: c.dir}
	var oldest, newest time.Time

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !oldest.IsZero() {
		stats.OldestAge = now.Sub(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = now.Sub(newest)
	}

	return stats, nil
}
