// Package transcribe turns an audio file into time-stamped text segments,
// chunk by chunk, checkpointing progress so an interrupted run resumes at
// the last fully-transcribed chunk.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/cache"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/identity"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/ports"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

const DefaultChunkDuration = 5 * time.Minute

type Transcriber struct {
	ASR   ports.ASR
	Media ports.MediaTool
	Cache *cache.TranscriptionCache
	Log   *slog.Logger

	// HashFile computes the media identity; overridable in tests.
	HashFile func(path string) (string, error)
}

func New(asr ports.ASR, media ports.MediaTool, c *cache.TranscriptionCache, log *slog.Logger) *Transcriber {
	if log == nil {
		log = slog.Default()
	}
	return &Transcriber{
		ASR:      asr,
		Media:    media,
		Cache:    c,
		Log:      log.With("component", "transcriber"),
		HashFile: identity.File,
	}
}

// Transcribe returns the ordered transcript for the audio file. Running it
// twice on the same bytes returns the committed result without invoking the
// ASR engine again.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string, chunkDur time.Duration) (types.Transcript, error) {
	if chunkDur <= 0 {
		chunkDur = DefaultChunkDuration
	}
	fi, err := os.Stat(audioPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("stat audio: %w", err)
	}
	if fi.Size() == 0 {
		return types.Transcript{}, fmt.Errorf("audio file %s is empty", audioPath)
	}

	id, err := t.HashFile(audioPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("compute audio identity: %w", err)
	}

	res := t.Cache.Lookup(id)
	if res.State == cache.Complete {
		return types.Transcript{Segments: res.Segments}, nil
	}

	info, err := t.Media.Probe(ctx, audioPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("probe audio: %w", err)
	}
	numChunks := int(math.Ceil(info.Duration / chunkDur.Seconds()))
	if numChunks < 1 {
		numChunks = 1
	}

	segs := res.Segments
	firstChunk := res.LastChunk + 1
	if res.State == cache.Partial {
		t.Log.Info("resuming transcription", "identity", id,
			"next_chunk", firstChunk, "total_chunks", numChunks)
	}

	for i := firstChunk; i < numChunks; i++ {
		chunkSegs, err := t.transcribeChunk(ctx, audioPath, i, chunkDur)
		if err != nil {
			// Durably keep what we have before surfacing the failure; the
			// next run resumes from this chunk.
			if cerr := t.Cache.Checkpoint(id, i-1, segs); cerr != nil {
				t.Log.Warn("checkpoint before failure", "identity", id, "error", cerr)
			}
			return types.Transcript{}, fmt.Errorf("transcribe chunk %d/%d: %w", i+1, numChunks, err)
		}
		segs = append(segs, chunkSegs...)
		if err := t.Cache.Checkpoint(id, i, segs); err != nil {
			return types.Transcript{}, err
		}
		t.Log.Info("chunk transcribed", "identity", id,
			"chunk", i+1, "total_chunks", numChunks, "segments", len(segs))
	}

	if err := t.Cache.Commit(id, segs); err != nil {
		return types.Transcript{}, err
	}
	return types.Transcript{Segments: segs}, nil
}

// transcribeChunk slices one window out of the audio, transcribes it, and
// shifts the returned timestamps onto the global timeline. Every segment
// ends up with start >= the chunk offset, which keeps the full transcript
// monotonically non-decreasing across chunk boundaries.
func (t *Transcriber) transcribeChunk(ctx context.Context, audioPath string, index int, chunkDur time.Duration) ([]types.Segment, error) {
	offset := time.Duration(index) * chunkDur
	chunkPath := filepath.Join(os.TempDir(), fmt.Sprintf("chunk-%s.wav", uuid.NewString()))
	defer os.Remove(chunkPath)

	if err := t.Media.SliceAudio(ctx, audioPath, offset, chunkDur, chunkPath); err != nil {
		return nil, fmt.Errorf("slice audio at %s: %w", offset, err)
	}

	segs, err := t.ASR.TranscribeChunk(ctx, chunkPath)
	if err != nil {
		return nil, err
	}

	shift := offset.Seconds()
	out := make([]types.Segment, 0, len(segs))
	for _, s := range segs {
		if s.End <= s.Start {
			continue
		}
		out = append(out, types.Segment{Text: s.Text, Start: s.Start + shift, End: s.End + shift})
	}
	return out, nil
}
