package ports

import (
	"image"
)

// SinkOptions configures encode sink parameters.
type SinkOptions struct {
	Quality int // codec quality (JPEG quality or CRF depending on sink)
	Bitrate int // target bitrate in kbps, 0 for codec default
}

// EncodeSink accepts rendered frames at a fixed target frame rate and muxes
// them into a container.
//
// Push blocks until the sink has accepted the frame; that blocking is the
// backpressure signal. Frames must be pushed with strictly increasing
// presentation times.
type EncodeSink interface {
	// Begin initializes the sink for the given output dimensions and rate.
	Begin(width, height int, fps float64, opts SinkOptions) error

	// Push encodes a single frame at the given presentation time in seconds.
	Push(img image.Image, pts float64) error

	// Finish finalizes the container and returns its bytes.
	Finish() ([]byte, error)

	// MimeType returns the mime type of the produced container, reflecting
	// the codec actually in use.
	MimeType() string

	// Close abandons the encode, dropping buffered samples and terminating
	// any encoder process. Idempotent; a no-op after a successful Finish.
	Close() error
}
