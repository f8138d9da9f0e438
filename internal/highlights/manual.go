package highlights

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

// ParseManualSegments is the human-entry path: it consumes raw JSON in the
// same envelope the model produces and applies the same duration bound, but
// skips overlap checking and stops as soon as numClips valid entries have
// been parsed. It is stricter on format (the JSON must decode as-is) and
// looser on overlap than Select.
func ParseManualSegments(raw string, numClips int) ([]types.Highlight, error) {
	if numClips <= 0 {
		return nil, errors.New("highlights: numClips must be > 0")
	}
	var env responseEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("decode manual segments: %w", err)
	}

	var out []types.Highlight
	for _, s := range env.Segments {
		h := types.Highlight{Start: int(s.Start), End: int(s.End), Content: s.Content}
		if !ValidDuration(h) {
			continue
		}
		out = append(out, h)
		if len(out) == numClips {
			break
		}
	}
	if len(out) != numClips {
		return nil, fmt.Errorf("manual input has %d valid segments, need %d", len(out), numClips)
	}
	sortByStart(out)
	return out, nil
}
