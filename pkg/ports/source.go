// Package ports defines interfaces for external dependencies.
package ports

import (
	"image"
)

// SourceFrame is a single decoded frame with its presentation time.
type SourceFrame struct {
	Image image.Image
	PTS   float64 // presentation time in seconds from start
	Dur   float64 // frame duration in seconds
}

// FrameSource wraps a decodable video resource and yields decoded frames
// in presentation order.
//
// The session that acquires a FrameSource owns it exclusively and must call
// Close exactly once; Close must be safe to call after a failed Next.
type FrameSource interface {
	// Bounds returns the natural pixel dimensions of the source.
	Bounds() (width, height int)

	// Duration returns the total duration in seconds.
	Duration() float64

	// Next returns the next decoded frame. It returns io.EOF when the
	// stream is exhausted.
	Next() (*SourceFrame, error)

	// Close releases the decoder resource. Idempotent.
	Close() error
}
