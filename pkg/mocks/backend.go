package mocks

import (
	"image"
	"sync"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// TransformBackend is a mock implementation of ports.TransformBackend. The
// default Transform returns a blank buffer of the requested size.
type TransformBackend struct {
	BackendName   string
	TransformFunc func(src image.Image, crop image.Rectangle, width, height int) (*image.RGBA, error)
	CloseFunc     func()

	mu             sync.Mutex
	TransformCalls int
	CloseCalls     int
}

func (m *TransformBackend) Name() string {
	if m.BackendName != "" {
		return m.BackendName
	}
	return "mock"
}

func (m *TransformBackend) Transform(src image.Image, crop image.Rectangle, width, height int) (*image.RGBA, error) {
	m.mu.Lock()
	m.TransformCalls++
	m.mu.Unlock()

	if m.TransformFunc != nil {
		return m.TransformFunc(src, crop, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height)), nil
}

func (m *TransformBackend) Close() {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()

	if m.CloseFunc != nil {
		m.CloseFunc()
	}
}

var _ ports.TransformBackend = (*TransformBackend)(nil)
