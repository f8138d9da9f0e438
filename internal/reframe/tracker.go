// Package reframe converts horizontal video into a vertical 9:16 crop that
// follows the most relevant detected face, with hysteresis so the window
// does not jitter frame to frame.
package reframe

import (
	"fmt"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

// Tracker carries the crop window across frames. It is pure state: feed it
// the detections for each frame in order and it yields the window to crop.
type Tracker struct {
	frameWidth int
	cropWidth  int
	halfWidth  int
	xStart     int
	frame      int
}

func NewTracker(frameWidth, frameHeight int) (*Tracker, error) {
	cropWidth := frameHeight * 9 / 16
	if cropWidth > frameWidth {
		return nil, fmt.Errorf("source width %d is narrower than vertical target %d", frameWidth, cropWidth)
	}
	return &Tracker{
		frameWidth: frameWidth,
		cropWidth:  cropWidth,
		halfWidth:  cropWidth / 2,
		xStart:     (frameWidth - cropWidth) / 2,
	}, nil
}

// CropWidth is constant for the whole output stream.
func (t *Tracker) CropWidth() int { return t.cropWidth }

// Advance consumes one frame's detections and returns the crop window for
// that frame.
//
// Selection biases toward the incumbent: the first face whose horizontal
// center falls inside the current window wins, which keeps the crop from
// jumping between speakers. With no qualifying face the window stays put.
// Sub-pixel shifts (<1px) are treated as detection noise and ignored.
func (t *Tracker) Advance(faces []types.Box) types.CropWindow {
	defer func() { t.frame++ }()

	centerX := t.xStart + t.halfWidth
	found := false
	for _, f := range faces {
		c := f.X + f.W/2
		if c >= t.xStart && c < t.xStart+t.cropWidth {
			centerX = c
			found = true
			break
		}
	}

	if t.frame > 0 && found {
		shift := t.xStart - (centerX - t.halfWidth)
		if shift >= 1 || shift <= -1 {
			t.xStart = clamp(centerX-t.halfWidth, 0, t.frameWidth-t.cropWidth)
		}
	}

	return types.CropWindow{XStart: t.xStart, Width: t.cropWidth}
}

// Centered is the safety fallback window used when a computed window would
// produce an empty slice. It does not alter tracker state.
func (t *Tracker) Centered() types.CropWindow {
	return types.CropWindow{XStart: (t.frameWidth - t.cropWidth) / 2, Width: t.cropWidth}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
