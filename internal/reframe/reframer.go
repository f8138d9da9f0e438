package reframe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/ports"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

// Reframer decodes a clip frame by frame, runs face detection, crops each
// frame to the tracked vertical window, and re-encodes the result muxed
// with the clip's original audio.
type Reframer struct {
	Detector ports.FaceDetector
	Media    ports.MediaTool
	FFmpeg   string
	Log      *slog.Logger
}

// Result reports the stream parameters of the produced video. FPS is an
// explicit return value, never shared state.
type Result struct {
	Output        string
	FPS           float64
	Frames        int
	Width         int
	Height        int
	AudioIncluded bool
}

func NewReframer(det ports.FaceDetector, media ports.MediaTool, ffmpegPath string, log *slog.Logger) *Reframer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reframer{Detector: det, Media: media, FFmpeg: ffmpegPath, Log: log.With("component", "reframe")}
}

// Reframe converts inPath into a vertical video at outPath. A source with
// no audio track produces video-only output and a warning, not a failure.
func (r *Reframer) Reframe(ctx context.Context, inPath, outPath string) (Result, error) {
	info, err := r.Media.Probe(ctx, inPath)
	if err != nil {
		return Result{}, fmt.Errorf("probe %s: %w", inPath, err)
	}
	tracker, err := NewTracker(info.Width, info.Height)
	if err != nil {
		return Result{}, err
	}
	if !info.HasAudio {
		r.Log.Warn("source has no audio track, producing video-only output", "input", inPath)
	}

	decode := exec.CommandContext(ctx, r.FFmpeg,
		"-v", "error",
		"-i", inPath,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
	frames, err := decode.StdoutPipe()
	if err != nil {
		return Result{}, err
	}
	var decodeErr bytes.Buffer
	decode.Stderr = &decodeErr

	encode := exec.CommandContext(ctx, r.FFmpeg, encodeArgs(inPath, outPath, info, tracker.CropWidth())...)
	sink, err := encode.StdinPipe()
	if err != nil {
		return Result{}, err
	}
	var encodeErr bytes.Buffer
	encode.Stderr = &encodeErr

	if err := decode.Start(); err != nil {
		return Result{}, fmt.Errorf("start decoder: %w", err)
	}
	if err := encode.Start(); err != nil {
		_ = decode.Process.Kill()
		_ = decode.Wait()
		return Result{}, fmt.Errorf("start encoder: %w", err)
	}

	count, copyErr := r.processFrames(frames, sink, info, tracker)
	sink.Close()
	if copyErr != nil {
		// An encoder death shows up here as a pipe write error while the
		// decoder is still producing frames nobody reads. Stop it so Wait
		// cannot block on a full pipe.
		_ = decode.Process.Kill()
	}

	decWait := decode.Wait()
	encWait := encode.Wait()
	if encWait != nil {
		return Result{}, fmt.Errorf("encoder: %w\n%s", encWait, encodeErr.String())
	}
	if copyErr != nil {
		return Result{}, fmt.Errorf("process frames: %w", copyErr)
	}
	if decWait != nil {
		return Result{}, fmt.Errorf("decoder: %w\n%s", decWait, decodeErr.String())
	}
	if _, err := os.Stat(outPath); err != nil {
		return Result{}, fmt.Errorf("reframed output missing: %w", err)
	}

	r.Log.Info("reframe complete", "input", inPath, "output", outPath,
		"frames", count, "fps", info.FPS, "audio", info.HasAudio)
	return Result{
		Output:        outPath,
		FPS:           info.FPS,
		Frames:        count,
		Width:         tracker.CropWidth(),
		Height:        info.Height,
		AudioIncluded: info.HasAudio,
	}, nil
}

// processFrames reads raw rgb24 frames, crops each to the tracked window,
// and streams the cropped frames to the encoder.
func (r *Reframer) processFrames(frames io.Reader, sink io.Writer, info types.VideoInfo, tracker *Tracker) (int, error) {
	frameSize := info.Width * info.Height * 3
	in := make([]byte, frameSize)
	gray := make([]uint8, info.Width*info.Height)
	out := make([]byte, tracker.CropWidth()*info.Height*3)

	count := 0
	for {
		if _, err := io.ReadFull(frames, in); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return count, nil
			}
			return count, err
		}
		grayscale(in, gray)
		win := tracker.Advance(r.Detector.Detect(gray, info.Height, info.Width))
		if win.Width <= 0 || win.XStart < 0 || win.XStart+win.Width > info.Width {
			win = tracker.Centered()
		}
		cropFrame(in, out, info.Width, info.Height, win)
		if _, err := sink.Write(out); err != nil {
			return count, err
		}
		count++
	}
}

func encodeArgs(inPath, outPath string, info types.VideoInfo, cropWidth int) []string {
	args := []string{
		"-y", "-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", cropWidth, info.Height),
		"-r", strconv.FormatFloat(info.FPS, 'f', -1, 64),
		"-i", "pipe:0",
	}
	if info.HasAudio {
		args = append(args,
			"-i", inPath,
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-c:a", "aac",
			"-b:a", "192k",
			"-shortest",
		)
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		outPath,
	)
	return args
}

func grayscale(rgb []byte, gray []uint8) {
	for i := range gray {
		r := int(rgb[i*3])
		g := int(rgb[i*3+1])
		b := int(rgb[i*3+2])
		gray[i] = uint8((299*r + 587*g + 114*b) / 1000)
	}
}

func cropFrame(in, out []byte, width, height int, win types.CropWindow) {
	rowIn := width * 3
	rowOut := win.Width * 3
	offset := win.XStart * 3
	for y := 0; y < height; y++ {
		copy(out[y*rowOut:(y+1)*rowOut], in[y*rowIn+offset:y*rowIn+offset+rowOut])
	}
}
