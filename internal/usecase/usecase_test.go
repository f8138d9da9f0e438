package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/highlights"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/reframe"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

type fakeMedia struct {
	mu       sync.Mutex
	cutCalls []string
	burnSRTs []string
	overlays int
	cutErrOn int // 1-based CutClip call that fails; 0 means never
}

func (f *fakeMedia) Probe(ctx context.Context, path string) (types.VideoInfo, error) {
	return types.VideoInfo{Width: 1920, Height: 1080, FPS: 30, Duration: 120, HasAudio: true}, nil
}

func (f *fakeMedia) ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error {
	return os.WriteFile(outWav, []byte("wav"), 0o644)
}

func (f *fakeMedia) SliceAudio(ctx context.Context, inWav string, offset, dur time.Duration, outWav string) error {
	return os.WriteFile(outWav, []byte("wav"), 0o644)
}

func (f *fakeMedia) CutClip(ctx context.Context, inVideo string, startSec, endSec int, outVideo string) error {
	f.mu.Lock()
	f.cutCalls = append(f.cutCalls, outVideo)
	n := len(f.cutCalls)
	f.mu.Unlock()
	if f.cutErrOn != 0 && n == f.cutErrOn {
		return errors.New("encoder exploded")
	}
	return os.WriteFile(outVideo, []byte("clip"), 0o644)
}

func (f *fakeMedia) BurnCaptions(ctx context.Context, inVideo, srtPath, outVideo string) error {
	b, err := os.ReadFile(srtPath)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.burnSRTs = append(f.burnSRTs, string(b))
	f.mu.Unlock()
	return os.WriteFile(outVideo, []byte("captioned"), 0o644)
}

func (f *fakeMedia) OverlayImage(ctx context.Context, inVideo, imagePath, outVideo string) error {
	f.mu.Lock()
	f.overlays++
	f.mu.Unlock()
	return os.WriteFile(outVideo, []byte("branded"), 0o644)
}

type fakeTranscriber struct {
	tr  types.Transcript
	err error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string, chunkDur time.Duration) (types.Transcript, error) {
	return f.tr, f.err
}

type fakeSelector struct {
	hs  []types.Highlight
	err error
}

func (f *fakeSelector) Select(ctx context.Context, tr types.Transcript, numClips, maxRetries int) ([]types.Highlight, error) {
	return f.hs, f.err
}

type fakeReframer struct {
	err error
}

func (f *fakeReframer) Reframe(ctx context.Context, inPath, outPath string) (reframe.Result, error) {
	if f.err != nil {
		return reframe.Result{}, f.err
	}
	if err := os.WriteFile(outPath, []byte("vertical"), 0o644); err != nil {
		return reframe.Result{}, err
	}
	return reframe.Result{Output: outPath, FPS: 30, Frames: 900, Width: 607, Height: 1080}, nil
}

func longTranscript() types.Transcript {
	return types.Transcript{Segments: []types.Segment{
		{Text: "opening words", Start: 0, End: 20},
		{Text: "the best part", Start: 20, End: 80},
		{Text: "wrap up", Start: 80, End: 120},
	}}
}

func testInput(t *testing.T) Input {
	t.Helper()
	work := t.TempDir()
	out := t.TempDir()
	video := filepath.Join(work, "input.mp4")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return Input{
		InputVideo:    video,
		OutDir:        out,
		WorkDir:       work,
		NumClips:      2,
		MaxRetries:    3,
		ChunkDuration: time.Minute,
		Workers:       2,
	}
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRun_ProducesFinalClips(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{}
	u := New(Deps{
		Media:       media,
		Transcriber: &fakeTranscriber{tr: longTranscript()},
		Selector: &fakeSelector{hs: []types.Highlight{
			{Start: 0, End: 30, Content: "first"},
			{Start: 40, End: 80, Content: "second"},
		}},
		Reframer: &fakeReframer{},
		Log:      quietLog(),
	})

	in := testInput(t)
	res, err := u.Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Manifest.Clips) != 2 {
		t.Fatalf("expected 2 manifest clips, got %d", len(res.Manifest.Clips))
	}
	for i, c := range res.Manifest.Clips {
		if c.Error != "" {
			t.Fatalf("clip %d unexpectedly failed: %s", i, c.Error)
		}
		if _, err := os.Stat(c.File); err != nil {
			t.Fatalf("clip %d output missing: %v", i, err)
		}
		if !strings.HasPrefix(filepath.Base(c.File), "short_") {
			t.Fatalf("clip %d has unexpected name %s", i, c.File)
		}
	}
	if res.Manifest.Clips[0].ID != "001" || res.Manifest.Clips[1].ID != "002" {
		t.Fatalf("unexpected clip ids: %+v", res.Manifest.Clips)
	}
}

func TestRun_ClipFailureDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{cutErrOn: 1}
	u := New(Deps{
		Media:       media,
		Transcriber: &fakeTranscriber{tr: longTranscript()},
		Selector: &fakeSelector{hs: []types.Highlight{
			{Start: 0, End: 30, Content: "fails"},
			{Start: 40, End: 80, Content: "survives"},
		}},
		Reframer: &fakeReframer{},
		Log:      quietLog(),
	})

	in := testInput(t)
	in.Workers = 1 // deterministic cut ordering
	res, err := u.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("one failing clip must not fail the run: %v", err)
	}

	failed, succeeded := 0, 0
	for _, c := range res.Manifest.Clips {
		if c.Error != "" {
			failed++
		} else {
			succeeded++
			if _, err := os.Stat(c.File); err != nil {
				t.Fatalf("surviving clip output missing: %v", err)
			}
		}
	}
	if failed != 1 || succeeded != 1 {
		t.Fatalf("expected 1 failed and 1 surviving clip, got %d/%d", failed, succeeded)
	}
}

func TestRun_AllClipsFailedIsAnError(t *testing.T) {
	t.Parallel()

	u := New(Deps{
		Media:       &fakeMedia{},
		Transcriber: &fakeTranscriber{tr: longTranscript()},
		Selector:    &fakeSelector{hs: []types.Highlight{{Start: 0, End: 30}}},
		Reframer:    &fakeReframer{err: errors.New("no faces, no frames, nothing")},
		Log:         quietLog(),
	})

	res, err := u.Run(context.Background(), testInput(t))
	if err == nil {
		t.Fatal("expected error when every clip fails")
	}
	if len(res.Manifest.Clips) != 1 || res.Manifest.Clips[0].Error == "" {
		t.Fatalf("manifest should still record the failure: %+v", res.Manifest.Clips)
	}
}

func TestRun_SelectorExhaustionFallsBackToDefaultWindow(t *testing.T) {
	t.Parallel()

	u := New(Deps{
		Media:       &fakeMedia{},
		Transcriber: &fakeTranscriber{tr: longTranscript()},
		Selector:    &fakeSelector{err: highlights.ErrNoHighlights},
		Reframer:    &fakeReframer{},
		Log:         quietLog(),
	})

	res, err := u.Run(context.Background(), testInput(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Manifest.Clips) != 1 {
		t.Fatalf("fallback should yield a single clip, got %d", len(res.Manifest.Clips))
	}
	c := res.Manifest.Clips[0]
	if c.StartSec != 0 || c.EndSec != 30 {
		t.Fatalf("fallback window = (%d,%d), want (0,30)", c.StartSec, c.EndSec)
	}
}

func TestRun_SelectorHardErrorAborts(t *testing.T) {
	t.Parallel()

	u := New(Deps{
		Media:       &fakeMedia{},
		Transcriber: &fakeTranscriber{tr: longTranscript()},
		Selector:    &fakeSelector{err: errors.New("model endpoint unreachable")},
		Reframer:    &fakeReframer{},
		Log:         quietLog(),
	})

	if _, err := u.Run(context.Background(), testInput(t)); err == nil {
		t.Fatal("non-exhaustion selector errors must abort the run")
	}
}

func TestRun_ManualSegmentsBypassSelector(t *testing.T) {
	t.Parallel()

	u := New(Deps{
		Media:       &fakeMedia{},
		Transcriber: &fakeTranscriber{tr: longTranscript()},
		Selector:    &fakeSelector{err: errors.New("selector must not be called")},
		Reframer:    &fakeReframer{},
		Log:         quietLog(),
	})

	in := testInput(t)
	in.NumClips = 1
	in.ManualJSON = `{"segments":[{"segment start":10,"segment end":40,"content":"hand picked"}]}`
	res, err := u.Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Manifest.Clips) != 1 || res.Manifest.Clips[0].StartSec != 10 {
		t.Fatalf("manual segment not used: %+v", res.Manifest.Clips)
	}
}

func TestRun_EmptyTranscriptAborts(t *testing.T) {
	t.Parallel()

	u := New(Deps{
		Media:       &fakeMedia{},
		Transcriber: &fakeTranscriber{tr: types.Transcript{}},
		Selector:    &fakeSelector{},
		Reframer:    &fakeReframer{},
		Log:         quietLog(),
	})

	if _, err := u.Run(context.Background(), testInput(t)); err == nil {
		t.Fatal("expected error for empty transcription")
	}
}

func TestRun_BurnsClipLocalCaptions(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{}
	u := New(Deps{
		Media:       media,
		Transcriber: &fakeTranscriber{tr: longTranscript()},
		Selector:    &fakeSelector{hs: []types.Highlight{{Start: 20, End: 80, Content: "best"}}},
		Reframer:    &fakeReframer{},
		Log:         quietLog(),
	})

	in := testInput(t)
	in.NumClips = 1
	in.BurnCaptions = true
	if _, err := u.Run(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if len(media.burnSRTs) != 1 {
		t.Fatalf("expected one caption burn, got %d", len(media.burnSRTs))
	}
	srt := media.burnSRTs[0]
	if !strings.Contains(srt, "the best part") {
		t.Fatalf("captions missing clip text:\n%s", srt)
	}
	if !strings.Contains(srt, "00:00:00,000") {
		t.Fatalf("captions not clip-local:\n%s", srt)
	}
}

func TestRun_LogoOverlayProducesFinal(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{}
	u := New(Deps{
		Media:       media,
		Transcriber: &fakeTranscriber{tr: longTranscript()},
		Selector:    &fakeSelector{hs: []types.Highlight{{Start: 0, End: 30}}},
		Reframer:    &fakeReframer{},
		Log:         quietLog(),
	})

	in := testInput(t)
	in.NumClips = 1
	in.LogoPath = filepath.Join(in.WorkDir, "logo.png")
	res, err := u.Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if media.overlays != 1 {
		t.Fatalf("expected one overlay call, got %d", media.overlays)
	}
	if _, err := os.Stat(res.Manifest.Clips[0].File); err != nil {
		t.Fatalf("final clip missing after overlay: %v", err)
	}
}
