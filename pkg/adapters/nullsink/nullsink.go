// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Sink discards all debug output.
type Sink struct{}

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveGeometryJSON does nothing.
func (s *Sink) SaveGeometryJSON(data []byte) error {
	return nil
}

// SaveCaptureFrame does nothing.
func (s *Sink) SaveCaptureFrame(index int, data []byte) error {
	return nil
}

// SaveCroppedFrame does nothing.
func (s *Sink) SaveCroppedFrame(index int, img image.Image) error {
	return nil
}

// SavePreview does nothing.
func (s *Sink) SavePreview(img image.Image) error {
	return nil
}

var _ ports.DebugSink = (*Sink)(nil)
