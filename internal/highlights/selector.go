// Package highlights asks a generative model for clip windows and enforces
// the structural rules the model itself cannot be trusted with: duration
// bounds, overlap tolerance, and exact clip count.
package highlights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/ports"
	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

const (
	MinClipSeconds = 15
	MaxClipSeconds = 60

	// DefaultOverlapTolerance is the number of already-used seconds a new
	// window may intersect and still be accepted.
	DefaultOverlapTolerance = 3

	defaultRetryDelay = 5 * time.Second
)

// ErrNoHighlights signals retry exhaustion with no structurally valid
// result. The selector never returns a shorter-than-requested list instead.
var ErrNoHighlights = errors.New("highlights: no valid segments after retries")

type Selector struct {
	LLM ports.LLM
	Log *slog.Logger

	// OverlapTolerance defaults to DefaultOverlapTolerance when zero or
	// negative.
	OverlapTolerance int

	retryDelay time.Duration
	sleep      func(time.Duration)
}

func NewSelector(llm ports.LLM, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{
		LLM:              llm,
		Log:              log.With("component", "highlights"),
		OverlapTolerance: DefaultOverlapTolerance,
		retryDelay:       defaultRetryDelay,
		sleep:            time.Sleep,
	}
}

// Select returns exactly numClips windows sorted by start, or
// ErrNoHighlights once maxRetries attempts are spent. Malformed responses
// and constraint-violating proposals both consume a retry.
func (s *Selector) Select(ctx context.Context, tr types.Transcript, numClips, maxRetries int) ([]types.Highlight, error) {
	if numClips <= 0 {
		return nil, errors.New("highlights: numClips must be > 0")
	}
	rendered := RenderTranscript(tr)
	if strings.TrimSpace(rendered) == "" {
		return nil, errors.New("highlights: transcript has no usable content")
	}
	minTime, maxTime, _ := tr.TimeBounds()
	prompt := buildPrompt(rendered, numClips, minTime, maxTime)
	system := fmt.Sprintf(
		"You are a JSON generator that MUST return exactly %d clips inside a JSON object with a key 'segments'. Only return the JSON object in the required format. No extra text.",
		numClips)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			s.sleep(s.retryDelay)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.Log.Info("requesting highlights", "attempt", attempt, "max_retries", maxRetries, "clips", numClips)

		raw, err := s.LLM.CompleteJSON(ctx, system, prompt)
		if err != nil {
			s.Log.Warn("model call failed, retrying", "attempt", attempt, "error", err)
			continue
		}
		proposals, err := parseResponse(raw)
		if err != nil {
			s.Log.Warn("unparsable model response, retrying", "attempt", attempt, "error", err)
			continue
		}

		accepted := s.accept(proposals, numClips)
		if len(accepted) == numClips {
			sortByStart(accepted)
			return accepted, nil
		}
		s.Log.Warn("wrong number of valid clips, retrying",
			"attempt", attempt, "got", len(accepted), "want", numClips)
	}
	return nil, ErrNoHighlights
}

// accept applies the duration bound and the used-seconds overlap check,
// greedily in proposal order, stopping at numClips.
func (s *Selector) accept(proposals []types.Highlight, numClips int) []types.Highlight {
	tolerance := s.OverlapTolerance
	if tolerance <= 0 {
		tolerance = DefaultOverlapTolerance
	}
	used := make(map[int]struct{})
	var accepted []types.Highlight
	for _, p := range proposals {
		if !ValidDuration(p) {
			s.Log.Debug("rejected proposal", "start", p.Start, "end", p.End, "reason", "duration out of bounds")
			continue
		}
		overlap := 0
		for sec := p.Start; sec <= p.End; sec++ {
			if _, ok := used[sec]; ok {
				overlap++
			}
		}
		if overlap > tolerance {
			s.Log.Debug("rejected proposal", "start", p.Start, "end", p.End,
				"reason", "overlap", "overlap_seconds", overlap)
			continue
		}
		for sec := p.Start; sec <= p.End; sec++ {
			used[sec] = struct{}{}
		}
		accepted = append(accepted, p)
		if len(accepted) == numClips {
			break
		}
	}
	return accepted
}

// ValidDuration reports whether the window satisfies start < end and the
// clip duration bounds.
func ValidDuration(h types.Highlight) bool {
	if h.Start >= h.End {
		return false
	}
	d := h.Duration()
	return d >= MinClipSeconds && d <= MaxClipSeconds
}

// DefaultWindow is the deterministic fallback when selection is exhausted:
// a window from the first observed timestamp, capped at 30 seconds and
// clamped to the transcript's end.
func DefaultWindow(tr types.Transcript) types.Highlight {
	minTime, maxTime, ok := tr.TimeBounds()
	if !ok {
		return types.Highlight{Start: 0, End: 30, Content: "fallback"}
	}
	end := minTime + 30
	if end > maxTime {
		end = maxTime
	}
	if end <= minTime {
		end = minTime + 1
	}
	return types.Highlight{Start: minTime, End: end, Content: "fallback"}
}

// RenderTranscript formats segments as "[<startSecond>s] <text>" lines, the
// shape the prompt references.
func RenderTranscript(tr types.Transcript) string {
	var b strings.Builder
	for _, seg := range tr.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%ds] %s\n", int(seg.Start), text)
	}
	return b.String()
}

func buildPrompt(rendered string, numClips, minTime, maxTime int) string {
	return fmt.Sprintf(`You MUST select exactly %d of the most interesting clips from this video transcript.

VIDEO INFO:
- Length: %d seconds
- Contains timestamps from %ds to %ds

REQUIREMENTS:
1. Return a JSON object with a key "segments" containing an array of exactly %d clips.
2. Each clip must be %d - %d seconds long.
3. Clips must not overlap by more than %d seconds.
4. Select the most interesting/intense moments only.
5. Each clip carries "segment start" and "segment end" as integer seconds and a "content" description.

TRANSCRIPT:
%s`,
		numClips, maxTime-minTime, minTime, maxTime, numClips,
		MinClipSeconds, MaxClipSeconds, DefaultOverlapTolerance, rendered)
}

// flexInt tolerates the model returning seconds as either a JSON number or
// a quoted string.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return errors.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(int(v))
	return nil
}

type responseEnvelope struct {
	Segments []struct {
		Start   flexInt `json:"segment start"`
		End     flexInt `json:"segment end"`
		Content string  `json:"content"`
	} `json:"segments"`
}

func parseResponse(raw string) ([]types.Highlight, error) {
	clean, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	var env responseEnvelope
	if err := json.Unmarshal([]byte(clean), &env); err != nil {
		return nil, fmt.Errorf("decode segments envelope: %w", err)
	}
	if len(env.Segments) == 0 {
		return nil, errors.New("response has no segments")
	}
	out := make([]types.Highlight, 0, len(env.Segments))
	for _, s := range env.Segments {
		out = append(out, types.Highlight{
			Start:   int(s.Start),
			End:     int(s.End),
			Content: strings.TrimSpace(s.Content),
		})
	}
	return out, nil
}

// extractJSONObject strips markdown fences and takes the outermost JSON
// object, tolerating chatty model output around it.
func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("empty model response")
	}
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in model response (%d bytes)", len(s))
	}
	return t[start : end+1], nil
}

func sortByStart(hs []types.Highlight) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Start < hs[j].Start })
}
