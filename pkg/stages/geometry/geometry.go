// Package geometry resolves display-space crop selections into
// source-pixel crop bounds.
package geometry

import (
	"context"
	"math"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
)

// Output dimension ceiling. Larger regions are rejected to bound encode cost.
const (
	MaxOutputWidth  = 4000
	MaxOutputHeight = 4000
)

// Resolve converts a display-space selection into a source-pixel CropRect.
//
// Each axis is scaled independently by sourceDimension / displayDimension and
// rounded to integers. The result is clamped so it never extends past the
// source bounds, shrinking from the far edge rather than shifting the origin.
func Resolve(input pipeline.GeometryInput) (pipeline.CropRect, error) {
	if input.DisplayWidth <= 0 || input.DisplayHeight <= 0 {
		return pipeline.CropRect{}, pipeline.NewError(pipeline.KindInvalidCrop,
			"display bounding box is empty (%gx%g)", input.DisplayWidth, input.DisplayHeight)
	}
	if input.SourceWidth <= 0 || input.SourceHeight <= 0 {
		return pipeline.CropRect{}, pipeline.NewError(pipeline.KindInvalidCrop,
			"source dimensions are empty (%dx%d)", input.SourceWidth, input.SourceHeight)
	}

	scaleX := float64(input.SourceWidth) / input.DisplayWidth
	scaleY := float64(input.SourceHeight) / input.DisplayHeight

	rect := pipeline.CropRect{
		X:      int(math.Round(input.Selection.X * scaleX)),
		Y:      int(math.Round(input.Selection.Y * scaleY)),
		Width:  int(math.Round(input.Selection.Width * scaleX)),
		Height: int(math.Round(input.Selection.Height * scaleY)),
	}

	// Clamp the origin into the frame, shrinking the rect by the clipped
	// amount so the far edge stays where the user put it.
	if rect.X < 0 {
		rect.Width += rect.X
		rect.X = 0
	}
	if rect.Y < 0 {
		rect.Height += rect.Y
		rect.Y = 0
	}

	// Shrink from the far edge on overflow.
	if rect.X+rect.Width > input.SourceWidth {
		rect.Width = input.SourceWidth - rect.X
	}
	if rect.Y+rect.Height > input.SourceHeight {
		rect.Height = input.SourceHeight - rect.Y
	}

	if rect.Empty() {
		return pipeline.CropRect{}, pipeline.NewError(pipeline.KindInvalidCrop,
			"selection resolves to an empty region")
	}
	if rect.Width > MaxOutputWidth || rect.Height > MaxOutputHeight {
		return pipeline.CropRect{}, pipeline.NewError(pipeline.KindInvalidCrop,
			"output %dx%d exceeds the %dx%d ceiling", rect.Width, rect.Height,
			MaxOutputWidth, MaxOutputHeight)
	}

	return rect, nil
}

// LockAspect re-derives the dependent dimension of a selection from a fixed
// width/height ratio. Width is authoritative during interactive drags so the
// rect does not drift when both axes are clamped independently.
func LockAspect(sel pipeline.DisplayRect, ratio float64) pipeline.DisplayRect {
	if ratio <= 0 {
		return sel
	}
	sel.Height = sel.Width / ratio
	return sel
}

// Stage wraps Resolve as a pipeline stage.
type Stage struct{}

// NewStage creates a new geometry stage.
func NewStage() *Stage {
	return &Stage{}
}

// Execute resolves the selection, applying the aspect lock first when one is
// configured.
func (s *Stage) Execute(ctx context.Context, input pipeline.GeometryInput) (pipeline.CropRect, error) {
	if input.AspectRatio > 0 {
		input.Selection = LockAspect(input.Selection, input.AspectRatio)
	}
	return Resolve(input)
}

var _ pipeline.Stage[pipeline.GeometryInput, pipeline.CropRect] = (*Stage)(nil)
