// Package usecase runs the staged pipeline: transcribe, select highlights,
// then cut/reframe/finish each clip. Stages are sequential because each
// depends on the previous stage's complete output; only per-clip work at
// the end runs concurrently.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/captions"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/highlights"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/ports"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/reframe"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

// Transcriber produces the full ordered transcript for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, chunkDur time.Duration) (types.Transcript, error)
}

// Selector returns exactly numClips highlight windows or an error.
type Selector interface {
	Select(ctx context.Context, tr types.Transcript, numClips, maxRetries int) ([]types.Highlight, error)
}

// Reframer converts one horizontal clip into a vertical one.
type Reframer interface {
	Reframe(ctx context.Context, inPath, outPath string) (reframe.Result, error)
}

type Deps struct {
	Media       ports.MediaTool
	Transcriber Transcriber
	Selector    Selector
	Reframer    Reframer
	Log         *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return Usecase{d: d}
}

type Input struct {
	InputVideo string
	OutDir     string
	WorkDir    string

	NumClips      int
	MaxRetries    int
	ChunkDuration time.Duration
	Workers       int

	// ManualJSON, when non-empty, bypasses the model and feeds raw
	// pre-validated segments JSON through the manual acceptance path.
	ManualJSON string

	BurnCaptions bool
	LogoPath     string
}

type Result struct {
	Manifest types.Manifest
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Log

	audioPath := filepath.Join(in.WorkDir, "audio.wav")
	if err := u.d.Media.ExtractAudioMono16k(ctx, in.InputVideo, audioPath); err != nil {
		return Result{}, fmt.Errorf("extract audio: %w", err)
	}

	tr, err := u.d.Transcriber.Transcribe(ctx, audioPath, in.ChunkDuration)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}
	if len(tr.Segments) == 0 {
		return Result{}, errors.New("transcription produced no segments")
	}

	hs, err := u.selectHighlights(ctx, tr, in)
	if err != nil {
		return Result{}, err
	}

	clips := u.processClips(ctx, tr, hs, in)

	m := types.Manifest{Input: in.InputVideo, Clips: clips}
	failed := 0
	for _, c := range clips {
		if c.Error != "" {
			failed++
		}
	}
	if failed == len(clips) {
		return Result{Manifest: m}, fmt.Errorf("all %d clips failed", len(clips))
	}
	if failed > 0 {
		log.Warn("some clips failed", "failed", failed, "total", len(clips))
	}
	return Result{Manifest: m}, nil
}

func (u Usecase) selectHighlights(ctx context.Context, tr types.Transcript, in Input) ([]types.Highlight, error) {
	if in.ManualJSON != "" {
		hs, err := highlights.ParseManualSegments(in.ManualJSON, in.NumClips)
		if err != nil {
			return nil, fmt.Errorf("manual segments: %w", err)
		}
		return hs, nil
	}

	hs, err := u.d.Selector.Select(ctx, tr, in.NumClips, in.MaxRetries)
	if errors.Is(err, highlights.ErrNoHighlights) {
		// Deterministic fallback keeps the pipeline producing output when
		// the model never yields a valid batch.
		w := highlights.DefaultWindow(tr)
		u.d.Log.Warn("selection exhausted, using default window", "start", w.Start, "end", w.End)
		return []types.Highlight{w}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select highlights: %w", err)
	}
	return hs, nil
}

// processClips runs the per-clip reframe/finish work on a bounded pool.
// Clips are independent: one clip's failure is recorded in its manifest
// entry and never aborts siblings.
func (u Usecase) processClips(ctx context.Context, tr types.Transcript, hs []types.Highlight, in Input) []types.ManifestClip {
	workers := in.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	out := make([]types.ManifestClip, len(hs))

	var wg sync.WaitGroup
	for i, h := range hs {
		wg.Add(1)
		go func(i int, h types.Highlight) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			id := fmt.Sprintf("%03d", i+1)
			clip := types.ManifestClip{
				ID:       id,
				StartSec: h.Start,
				EndSec:   h.End,
				Content:  h.Content,
			}
			file, err := u.processClip(ctx, tr, h, id, in)
			if err != nil {
				u.d.Log.Error("clip failed", "id", id, "error", err)
				clip.Error = err.Error()
			} else {
				clip.File = file
			}
			out[i] = clip
		}(i, h)
	}
	wg.Wait()
	return out
}

func (u Usecase) processClip(ctx context.Context, tr types.Transcript, h types.Highlight, id string, in Input) (string, error) {
	rawClip := filepath.Join(in.WorkDir, "clip_"+id+"_raw.mp4")
	vertical := filepath.Join(in.WorkDir, "clip_"+id+"_vertical.mp4")
	defer os.Remove(rawClip)
	defer os.Remove(vertical)

	if err := u.d.Media.CutClip(ctx, in.InputVideo, h.Start, h.End, rawClip); err != nil {
		return "", fmt.Errorf("cut clip: %w", err)
	}

	res, err := u.d.Reframer.Reframe(ctx, rawClip, vertical)
	if err != nil {
		return "", fmt.Errorf("reframe: %w", err)
	}
	u.d.Log.Info("clip reframed", "id", id, "frames", res.Frames, "fps", res.FPS)

	current := vertical
	if in.BurnCaptions {
		srtPath := filepath.Join(in.WorkDir, "clip_"+id+".srt")
		srt := captions.RenderSRT(tr, h.Start, h.End)
		if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
			return "", fmt.Errorf("write captions: %w", err)
		}
		defer os.Remove(srtPath)

		captioned := filepath.Join(in.WorkDir, "clip_"+id+"_captioned.mp4")
		if err := u.d.Media.BurnCaptions(ctx, current, srtPath, captioned); err != nil {
			return "", fmt.Errorf("burn captions: %w", err)
		}
		defer os.Remove(captioned)
		current = captioned
	}

	final := filepath.Join(in.OutDir, "short_"+id+".mp4")
	if in.LogoPath != "" {
		if err := u.d.Media.OverlayImage(ctx, current, in.LogoPath, final); err != nil {
			return "", fmt.Errorf("overlay logo: %w", err)
		}
	} else if err := copyFile(current, final); err != nil {
		return "", fmt.Errorf("place final clip: %w", err)
	}
	return final, nil
}

// copyFile moves src to dst, falling back to a stream copy when rename
// crosses filesystems.
func copyFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
