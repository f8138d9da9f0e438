package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

// DownloadCache indexes finished downloads by media identity so repeat
// requests for the same source skip the network entirely.
type DownloadCache struct {
	dir string
	log *slog.Logger
}

func NewDownloadCache(dir string, log *slog.Logger) (*DownloadCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download cache dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &DownloadCache{dir: dir, log: log.With("component", "download-cache")}, nil
}

func (c *DownloadCache) infoPath(id string) string {
	return filepath.Join(c.dir, id+"_info.json")
}

// Store writes the entry once; entries are never mutated afterwards.
func (c *DownloadCache) Store(e types.DownloadEntry) error {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal download entry: %w", err)
	}
	if err := writeFileAtomic(c.infoPath(e.Identity), b); err != nil {
		return fmt.Errorf("store download entry %s: %w", e.Identity, err)
	}
	c.log.Info("download cached", "identity", e.Identity, "title", e.Title)
	return nil
}

// FindByURL scans the cache for an entry recorded for the same source URL
// whose file is still present on disk. Unreadable entries are skipped.
func (c *DownloadCache) FindByURL(url string) (types.DownloadEntry, bool) {
	for _, e := range c.List() {
		if e.SourceURL != url {
			continue
		}
		if _, err := os.Stat(e.Filename); err != nil {
			c.log.Warn("cached download file missing", "identity", e.Identity, "file", e.Filename)
			continue
		}
		c.log.Info("download cache hit", "identity", e.Identity, "url", url)
		return e, true
	}
	c.log.Info("download cache miss", "url", url)
	return types.DownloadEntry{}, false
}

// List returns all readable entries, newest first.
func (c *DownloadCache) List() []types.DownloadEntry {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*_info.json"))
	if err != nil {
		return nil
	}
	out := make([]types.DownloadEntry, 0, len(matches))
	for _, p := range matches {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var e types.DownloadEntry
		if err := json.Unmarshal(b, &e); err != nil {
			c.log.Warn("corrupt download entry, skipping", "file", p, "error", err)
			continue
		}
		if strings.TrimSpace(e.Identity) == "" {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}
