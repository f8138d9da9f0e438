// Package captions renders per-clip SRT subtitles from the transcript, for
// burn-in by the encoder.
package captions

import (
	"fmt"
	"strings"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

// RenderSRT emits SRT cues for the transcript segments intersecting
// [startSec, endSec). Cue times are clip-local because the encoder burns
// subtitles into per-clip files, not the full timeline.
func RenderSRT(tr types.Transcript, startSec, endSec int) string {
	start := float64(startSec)
	end := float64(endSec)

	var b strings.Builder
	n := 0
	for _, s := range tr.Segments {
		if s.End <= start || s.Start >= end {
			continue
		}
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		cs := s.Start
		ce := s.End
		if cs < start {
			cs = start
		}
		if ce > end {
			ce = end
		}
		n++
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", n, srtTime(cs-start), srtTime(ce-start), text)
	}
	return b.String()
}

func srtTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	h := int(sec) / 3600
	m := (int(sec) % 3600) / 60
	s := int(sec) % 60
	ms := int((sec - float64(int(sec))) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
