package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate pipeline results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveGeometryJSON saves the resolved crop geometry as JSON.
	SaveGeometryJSON(data []byte) error

	// SaveCaptureFrame saves a raw captured screencast frame.
	SaveCaptureFrame(index int, data []byte) error

	// SaveCroppedFrame saves a transformed frame.
	SaveCroppedFrame(index int, img image.Image) error

	// SavePreview saves the crop marker preview image.
	SavePreview(img image.Image) error
}
