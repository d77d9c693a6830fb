// Package cpubackend provides the CPU raster transform backend.
//
// It is the universal fallback: a direct sub-region blit-and-scale that never
// fails for valid inputs.
package cpubackend

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Backend implements ports.TransformBackend with golang.org/x/image/draw.
type Backend struct{}

// New creates a new CPU backend. It cannot fail.
func New() *Backend {
	return &Backend{}
}

// Name identifies the backend.
func (b *Backend) Name() string {
	return "cpu"
}

// Transform draws the crop sub-rectangle of src into a width x height buffer
// using bilinear filtering.
func (b *Backend) Transform(src image.Image, crop image.Rectangle, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("cpubackend: invalid output size %dx%d", width, height)
	}
	// Crop coordinates are in source-pixel space with origin (0,0);
	// shift into the image's own coordinate space.
	region := crop.Add(src.Bounds().Min)
	if region.Empty() || !region.In(src.Bounds()) {
		return nil, fmt.Errorf("cpubackend: crop %v outside source bounds %v", crop, src.Bounds())
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, region, draw.Src, nil)
	return dst, nil
}

// Close is a no-op; the CPU backend holds no context.
func (b *Backend) Close() {}

var _ ports.TransformBackend = (*Backend)(nil)
