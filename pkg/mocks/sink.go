package mocks

import (
	"image"
	"sync"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// PushedFrame records one Push call on the EncodeSink mock.
type PushedFrame struct {
	Image image.Image
	PTS   float64
}

// EncodeSink is a mock implementation of ports.EncodeSink. It records calls
// and returns Output from Finish.
type EncodeSink struct {
	mu sync.Mutex

	BeginFunc  func(width, height int, fps float64, opts ports.SinkOptions) error
	PushFunc   func(img image.Image, pts float64) error
	FinishFunc func() ([]byte, error)

	Output []byte
	Mime   string

	BegunWidth  int
	BegunHeight int
	BegunFPS    float64
	BegunOpts   ports.SinkOptions
	Pushed      []PushedFrame
	Finished    bool
	CloseCalls  int
}

func (m *EncodeSink) Begin(width, height int, fps float64, opts ports.SinkOptions) error {
	m.mu.Lock()
	m.BegunWidth = width
	m.BegunHeight = height
	m.BegunFPS = fps
	m.BegunOpts = opts
	m.mu.Unlock()

	if m.BeginFunc != nil {
		return m.BeginFunc(width, height, fps, opts)
	}
	return nil
}

func (m *EncodeSink) Push(img image.Image, pts float64) error {
	m.mu.Lock()
	m.Pushed = append(m.Pushed, PushedFrame{Image: img, PTS: pts})
	m.mu.Unlock()

	if m.PushFunc != nil {
		return m.PushFunc(img, pts)
	}
	return nil
}

func (m *EncodeSink) Finish() ([]byte, error) {
	m.mu.Lock()
	m.Finished = true
	m.mu.Unlock()

	if m.FinishFunc != nil {
		return m.FinishFunc()
	}
	return m.Output, nil
}

func (m *EncodeSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

func (m *EncodeSink) MimeType() string {
	if m.Mime != "" {
		return m.Mime
	}
	return "video/mp4"
}

// PushCount returns the number of pushed frames.
func (m *EncodeSink) PushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Pushed)
}

var _ ports.EncodeSink = (*EncodeSink)(nil)
