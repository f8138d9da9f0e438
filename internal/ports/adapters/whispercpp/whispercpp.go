// Package whispercpp adapts the whisper.cpp CLI as the speech-to-text
// engine. It is a black box to the pipeline; chunk-level failures propagate
// to the transcriber.
package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

type Adapter struct {
	bin      string
	model    string
	language string
}

func New(binPath, modelPath, language string) *Adapter {
	if language == "" {
		language = "en"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language}
}

func (a *Adapter) TranscribeChunk(ctx context.Context, wavPath string) ([]types.Segment, error) {
	outPrefix := filepath.Join(os.TempDir(), "whisper-"+uuid.NewString())
	defer os.Remove(outPrefix + ".json")

	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", a.language,
		"-oj",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	var out struct {
		Transcription []struct {
			Offsets struct {
				From int64 `json:"from"`
				To   int64 `json:"to"`
			} `json:"offsets"`
			Text string `json:"text"`
		} `json:"transcription"`
	}
	if err := json.Unmarshal(jb, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	segs := make([]types.Segment, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		segs = append(segs, types.Segment{
			Text:  text,
			Start: float64(t.Offsets.From) / 1000,
			End:   float64(t.Offsets.To) / 1000,
		})
	}
	return segs, nil
}
