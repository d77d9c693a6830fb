package ports

import (
	"image"
)

// TransformBackend crops a decoded frame and scales the sub-region to the
// output size.
//
// Crop coordinates and output size are integers. Scaling uses the backend's
// native linear filtering; color values pass through untouched.
type TransformBackend interface {
	// Name identifies the backend for diagnostic display.
	Name() string

	// Transform renders the crop sub-rectangle of src into a width x height
	// buffer.
	Transform(src image.Image, crop image.Rectangle, width, height int) (*image.RGBA, error)

	// Close releases any backend context. Idempotent.
	Close()
}
