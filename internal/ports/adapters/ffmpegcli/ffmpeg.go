// Package ffmpegcli implements the encoder boundary on top of ffmpeg.
package ffmpegcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

const defaultOpTimeout = 30 * time.Minute

type Adapter struct {
	// OpTimeout bounds every ffmpeg/ffprobe invocation.
	OpTimeout time.Duration
}

func New() *Adapter {
	return &Adapter{OpTimeout: defaultOpTimeout}
}

func (a *Adapter) run(ctx context.Context, op string, s *ffmpeg.Stream) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var stderr bytes.Buffer
	err := s.OverWriteOutput().
		WithErrorOutput(&stderr).
		Silent(true).
		WithTimeout(a.OpTimeout).
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w\n%s", op, err, stderr.String())
	}
	return nil
}

func (a *Adapter) Probe(ctx context.Context, path string) (types.VideoInfo, error) {
	if err := ctx.Err(); err != nil {
		return types.VideoInfo{}, err
	}
	raw, err := ffmpeg.ProbeWithTimeout(path, a.OpTimeout, ffmpeg.KwArgs{})
	if err != nil {
		return types.VideoInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var probed struct {
		Streams []struct {
			CodecType    string `json:"codec_type"`
			Width        int    `json:"width"`
			Height       int    `json:"height"`
			AvgFrameRate string `json:"avg_frame_rate"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &probed); err != nil {
		return types.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info types.VideoInfo
	for _, s := range probed.Streams {
		switch s.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = s.Width
				info.Height = s.Height
				info.FPS = parseRate(s.AvgFrameRate)
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if d, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
		info.Duration = d
	}
	return info, nil
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error {
	return a.run(ctx, "extract audio",
		ffmpeg.Input(inVideo).
			Output(outWav, ffmpeg.KwArgs{"vn": "", "ac": 1, "ar": 16000, "f": "wav"}))
}

func (a *Adapter) SliceAudio(ctx context.Context, inWav string, offset, dur time.Duration, outWav string) error {
	return a.run(ctx, "slice audio",
		ffmpeg.Input(inWav, ffmpeg.KwArgs{"ss": fmtSeconds(offset)}).
			Output(outWav, ffmpeg.KwArgs{"t": fmtSeconds(dur), "ac": 1, "ar": 16000, "f": "wav"}))
}

func (a *Adapter) CutClip(ctx context.Context, inVideo string, startSec, endSec int, outVideo string) error {
	return a.run(ctx, "cut clip",
		ffmpeg.Input(inVideo, ffmpeg.KwArgs{"ss": startSec, "to": endSec}).
			Output(outVideo, ffmpeg.KwArgs{
				"c:v":    "libx264",
				"preset": "veryfast",
				"crf":    18,
				"c:a":    "aac",
				"b:a":    "192k",
			}))
}

func (a *Adapter) BurnCaptions(ctx context.Context, inVideo, srtPath, outVideo string) error {
	return a.run(ctx, "burn captions",
		ffmpeg.Input(inVideo).
			Output(outVideo, ffmpeg.KwArgs{
				"vf":  "subtitles=" + escapeFilterPath(srtPath),
				"c:a": "copy",
			}))
}

func (a *Adapter) OverlayImage(ctx context.Context, inVideo, imagePath, outVideo string) error {
	main := ffmpeg.Input(inVideo)
	logo := ffmpeg.Input(imagePath)
	return a.run(ctx, "overlay image",
		main.Overlay(logo, "", ffmpeg.KwArgs{"x": "W-w-10", "y": "10"}).
			Output(outVideo, ffmpeg.KwArgs{"map": "0:a?", "c:a": "copy"}))
}

// parseRate converts an ffprobe rational like "30000/1001" to a float.
func parseRate(r string) float64 {
	parts := strings.SplitN(r, "/", 2)
	if len(parts) == 2 {
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 == nil && err2 == nil && den != 0 {
			return num / den
		}
		return 0
	}
	v, err := strconv.ParseFloat(r, 64)
	if err != nil {
		return 0
	}
	return v
}

func fmtSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
