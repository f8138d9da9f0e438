package ports

import (
	"context"
	"time"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

// MediaTool is the encoder boundary. Failures surface as errors the calling
// stage maps to a clip-level failure.
type MediaTool interface {
	Probe(ctx context.Context, path string) (types.VideoInfo, error)
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	SliceAudio(ctx context.Context, inWav string, offset, dur time.Duration, outWav string) error
	CutClip(ctx context.Context, inVideo string, startSec, endSec int, outVideo string) error
	BurnCaptions(ctx context.Context, inVideo, srtPath, outVideo string) error
	OverlayImage(ctx context.Context, inVideo, imagePath, outVideo string) error
}

// ASR transcribes one audio chunk; timestamps in the returned segments are
// relative to the chunk start.
type ASR interface {
	TranscribeChunk(ctx context.Context, wavPath string) ([]types.Segment, error)
}

// LLM issues a JSON-only completion and returns the raw response text.
// All structural validation is the caller's responsibility.
type LLM interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// FaceDetector runs on a single grayscale frame given as row-major pixels.
type FaceDetector interface {
	Detect(gray []uint8, rows, cols int) []types.Box
}

// Downloader fetches a remote source into destDir and reports the media
// title and the final file path.
type Downloader interface {
	Download(ctx context.Context, url, destDir string) (title, path string, err error)
}
