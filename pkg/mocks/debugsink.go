package mocks

import (
	"image"
	"sync"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	GeometryJSON  []byte
	CaptureFrames map[int][]byte
	CroppedFrames map[int]image.Image
	Preview       image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:       enabled,
		CaptureFrames: make(map[int][]byte),
		CroppedFrames: make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveGeometryJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GeometryJSON = data
	return nil
}

func (m *DebugSink) SaveCaptureFrame(index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CaptureFrames[index] = data
	return nil
}

func (m *DebugSink) SaveCroppedFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CroppedFrames[index] = img
	return nil
}

func (m *DebugSink) SavePreview(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Preview = img
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
