// Package pigodet adapts the pigo face detector to the FaceDetector port.
package pigodet

import (
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/akeslo/AI-Youtube-Shorts-Generator/internal/types"
)

const (
	minFaceSize = 30
	// qualityThreshold filters low-confidence detections; pigo's docs
	// suggest values around 5.0 for frontal faces.
	qualityThreshold = 5.0
	iouThreshold     = 0.2
)

type Adapter struct {
	classifier *pigo.Pigo
}

// New loads the binary cascade file (the standard pigo "facefinder"
// cascade) from cascadePath.
func New(cascadePath string) (*Adapter, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read face cascade: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack face cascade: %w", err)
	}
	return &Adapter{classifier: classifier}, nil
}

// Detect runs the cascade over one grayscale frame and returns axis-aligned
// boxes. Pigo reports square detections centered on (Row, Col) with side
// Scale.
func (a *Adapter) Detect(gray []uint8, rows, cols int) []types.Box {
	maxSize := rows
	if cols < maxSize {
		maxSize = cols
	}
	params := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: gray,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := a.classifier.RunCascade(params, 0.0)
	dets = a.classifier.ClusterDetections(dets, iouThreshold)
	return toBoxes(dets)
}

// toBoxes converts pigo's center+side detections into corner boxes,
// dropping detections below the quality threshold.
func toBoxes(dets []pigo.Detection) []types.Box {
	out := make([]types.Box, 0, len(dets))
	for _, d := range dets {
		if d.Q < qualityThreshold {
			continue
		}
		out = append(out, types.Box{
			X: d.Col - d.Scale/2,
			Y: d.Row - d.Scale/2,
			W: d.Scale,
			H: d.Scale,
		})
	}
	return out
}
