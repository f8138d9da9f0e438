package types

import "time"

// Segment is one time-stamped piece of transcribed speech. Start and End are
// seconds on the global media timeline; Start < End always holds for
// segments produced by this pipeline.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type Transcript struct {
	Segments []Segment `json:"segments"`
}

// TimeBounds returns the minimum and maximum whole-second timestamps
// observed across the transcript. ok is false for an empty transcript.
func (t Transcript) TimeBounds() (minSec, maxSec int, ok bool) {
	if len(t.Segments) == 0 {
		return 0, 0, false
	}
	minSec = int(t.Segments[0].Start)
	maxSec = int(t.Segments[0].End)
	for _, s := range t.Segments[1:] {
		if int(s.Start) < minSec {
			minSec = int(s.Start)
		}
		if int(s.End) > maxSec {
			maxSec = int(s.End)
		}
	}
	return minSec, maxSec, true
}

// Highlight is a validated clip window in whole seconds.
type Highlight struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Content string `json:"content"`
}

func (h Highlight) Duration() int { return h.End - h.Start }

// Box is an axis-aligned face bounding box in frame pixels.
type Box struct {
	X int
	Y int
	W int
	H int
}

// CropWindow is the horizontal slice retained when reframing to vertical.
// Width is constant for the whole output stream.
type CropWindow struct {
	XStart int
	Width  int
}

type VideoInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
	HasAudio bool
}

// DownloadEntry records a completed download; entries are written once and
// never mutated.
type DownloadEntry struct {
	Identity  string    `json:"identity"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	SourceURL string    `json:"source_url"`
	Timestamp time.Time `json:"timestamp"`
}

type Manifest struct {
	Input string         `json:"input"`
	Clips []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	ID       string `json:"id"`
	StartSec int    `json:"start_sec"`
	EndSec   int    `json:"end_sec"`
	Content  string `json:"content"`
	File     string `json:"file"`
	Error    string `json:"error,omitempty"`
}
