// Package cache holds the on-disk caches that make the pipeline resumable:
// per-identity transcription records and download metadata. Records are
// whole-file replacements; a corrupt record degrades to a cache miss, never
// to a pipeline failure.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

type LookupState int

const (
	Miss LookupState = iota
	Partial
	Complete
)

// LookupResult carries the cached segments plus, for partial records, the
// index of the last chunk whose segments are fully present.
type LookupResult struct {
	State     LookupState
	Segments  []types.Segment
	LastChunk int
}

// partialRecord is the progress-file shape. The chunk index is persisted
// explicitly so resume never has to infer it from segment counts.
type partialRecord struct {
	LastCompletedChunk int             `json:"last_completed_chunk"`
	Segments           []types.Segment `json:"segments"`
}

type TranscriptionCache struct {
	dir string
	log *slog.Logger
}

func NewTranscriptionCache(dir string, log *slog.Logger) (*TranscriptionCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &TranscriptionCache{dir: dir, log: log.With("component", "transcription-cache")}, nil
}

func (c *TranscriptionCache) completePath(id string) string {
	return filepath.Join(c.dir, id+"_complete.json")
}

func (c *TranscriptionCache) progressPath(id string) string {
	return filepath.Join(c.dir, id+"_progress.json")
}

func (c *TranscriptionCache) textPath(id string) string {
	return filepath.Join(c.dir, id+"_transcript.txt")
}

// Lookup prefers a complete record and falls back to a partial one. Read or
// parse failures are logged and treated as a miss so corruption only costs
// recomputation.
func (c *TranscriptionCache) Lookup(id string) LookupResult {
	if segs, ok := c.readComplete(id); ok {
		c.log.Info("cache hit", "identity", id, "segments", len(segs))
		return LookupResult{State: Complete, Segments: segs}
	}
	if rec, ok := c.readPartial(id); ok {
		c.log.Info("cache resume", "identity", id,
			"segments", len(rec.Segments), "last_chunk", rec.LastCompletedChunk)
		return LookupResult{State: Partial, Segments: rec.Segments, LastChunk: rec.LastCompletedChunk}
	}
	c.log.Info("cache miss", "identity", id)
	return LookupResult{State: Miss, LastChunk: -1}
}

func (c *TranscriptionCache) readComplete(id string) ([]types.Segment, bool) {
	b, err := os.ReadFile(c.completePath(id))
	if err != nil {
		return nil, false
	}
	var segs []types.Segment
	if err := json.Unmarshal(b, &segs); err != nil {
		c.log.Warn("corrupt complete record, treating as miss", "identity", id, "error", err)
		return nil, false
	}
	if len(segs) == 0 {
		return nil, false
	}
	return segs, true
}

func (c *TranscriptionCache) readPartial(id string) (partialRecord, bool) {
	b, err := os.ReadFile(c.progressPath(id))
	if err != nil {
		return partialRecord{}, false
	}
	var rec partialRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		c.log.Warn("corrupt progress record, treating as miss", "identity", id, "error", err)
		return partialRecord{}, false
	}
	if len(rec.Segments) == 0 || rec.LastCompletedChunk < 0 {
		return partialRecord{}, false
	}
	return rec, true
}

// Checkpoint replaces the progress record with the full accumulated segment
// list. A crash between two checkpoints loses at most one chunk of work.
func (c *TranscriptionCache) Checkpoint(id string, lastChunk int, segs []types.Segment) error {
	b, err := json.Marshal(partialRecord{LastCompletedChunk: lastChunk, Segments: segs})
	if err != nil {
		return fmt.Errorf("marshal progress record: %w", err)
	}
	if err := writeFileAtomic(c.progressPath(id), b); err != nil {
		return fmt.Errorf("checkpoint %s: %w", id, err)
	}
	c.log.Debug("checkpoint written", "identity", id, "last_chunk", lastChunk, "segments", len(segs))
	return nil
}

// Commit writes the complete record plus the human-readable transcript and
// removes the progress record. After Commit, Lookup always returns the
// complete record.
func (c *TranscriptionCache) Commit(id string, segs []types.Segment) error {
	b, err := json.Marshal(segs)
	if err != nil {
		return fmt.Errorf("marshal complete record: %w", err)
	}
	if err := writeFileAtomic(c.completePath(id), b); err != nil {
		return fmt.Errorf("commit %s: %w", id, err)
	}
	if err := writeFileAtomic(c.textPath(id), []byte(formatTranscript(segs))); err != nil {
		return fmt.Errorf("write transcript text %s: %w", id, err)
	}
	if err := os.Remove(c.progressPath(id)); err != nil && !os.IsNotExist(err) {
		c.log.Warn("remove progress record", "identity", id, "error", err)
	}
	c.log.Info("transcript committed", "identity", id, "segments", len(segs))
	return nil
}

func formatTranscript(segs []types.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		fmt.Fprintf(&b, "%.2f - %.2f: %s\n", s.Start, s.End, s.Text)
	}
	return b.String()
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it into place, so readers never observe a torn record.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
