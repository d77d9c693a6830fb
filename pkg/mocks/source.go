package mocks

import (
	"io"
	"sync"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource. By default it
// plays back the Frames slice in order and then returns io.EOF.
type FrameSource struct {
	Width      int
	Height     int
	TotalSec   float64
	Frames     []*ports.SourceFrame
	NextFunc   func() (*ports.SourceFrame, error)
	CloseFunc  func() error
	NextCalls  int
	CloseCalls int

	mu  sync.Mutex
	idx int
}

func (m *FrameSource) Bounds() (int, int) {
	return m.Width, m.Height
}

func (m *FrameSource) Duration() float64 {
	return m.TotalSec
}

func (m *FrameSource) Next() (*ports.SourceFrame, error) {
	m.mu.Lock()
	m.NextCalls++
	m.mu.Unlock()

	if m.NextFunc != nil {
		return m.NextFunc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idx >= len(m.Frames) {
		return nil, io.EOF
	}
	frame := m.Frames[m.idx]
	m.idx++
	return frame, nil
}

func (m *FrameSource) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ ports.FrameSource = (*FrameSource)(nil)
