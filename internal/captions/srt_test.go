package captions

import (
	"strings"
	"testing"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

func TestRenderSRT_ClipLocalTimes(t *testing.T) {
	t.Parallel()

	tr := types.Transcript{Segments: []types.Segment{
		{Text: "before the clip", Start: 0, End: 9},
		{Text: "inside", Start: 12, End: 15.5},
		{Text: "after the clip", Start: 45, End: 50},
	}}

	got := RenderSRT(tr, 10, 40)
	want := "1\n00:00:02,000 --> 00:00:05,500\ninside\n\n"
	if got != want {
		t.Fatalf("srt output = %q, want %q", got, want)
	}
}

func TestRenderSRT_ClampsSpanningSegments(t *testing.T) {
	t.Parallel()

	tr := types.Transcript{Segments: []types.Segment{
		{Text: "spans the start", Start: 8, End: 14},
		{Text: "spans the end", Start: 38, End: 44},
	}}

	got := RenderSRT(tr, 10, 40)
	if !strings.Contains(got, "00:00:00,000 --> 00:00:04,000\nspans the start") {
		t.Fatalf("start-spanning cue not clamped:\n%s", got)
	}
	if !strings.Contains(got, "00:00:28,000 --> 00:00:30,000\nspans the end") {
		t.Fatalf("end-spanning cue not clamped:\n%s", got)
	}
}

func TestRenderSRT_SkipsEmptyText(t *testing.T) {
	t.Parallel()

	tr := types.Transcript{Segments: []types.Segment{
		{Text: "   ", Start: 12, End: 14},
		{Text: "spoken", Start: 15, End: 18},
	}}

	got := RenderSRT(tr, 10, 40)
	if strings.Count(got, "-->") != 1 {
		t.Fatalf("expected a single cue, got:\n%s", got)
	}
	if !strings.HasPrefix(got, "1\n") {
		t.Fatalf("cue numbering should restart at 1:\n%s", got)
	}
}

func TestRenderSRT_EmptyWhenNothingIntersects(t *testing.T) {
	t.Parallel()

	tr := types.Transcript{Segments: []types.Segment{
		{Text: "elsewhere", Start: 100, End: 110},
	}}
	if got := RenderSRT(tr, 10, 40); got != "" {
		t.Fatalf("expected empty srt, got %q", got)
	}
}

func TestSrtTime(t *testing.T) {
	t.Parallel()

	cases := []struct {
		sec  float64
		want string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.25, "00:01:01,250"},
		{3661, "01:01:01,000"},
		{-2, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := srtTime(tc.sec); got != tc.want {
			t.Errorf("srtTime(%v) = %q, want %q", tc.sec, got, tc.want)
		}
	}
}
