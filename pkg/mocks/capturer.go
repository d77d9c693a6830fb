// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Capturer is a mock implementation of ports.ScreenCapturer.
type Capturer struct {
	LaunchFunc          func(ctx context.Context, opts ports.CaptureOptions) error
	NavigateFunc        func(url string) error
	StartScreencastFunc func(quality int, maxFPS float64) (<-chan ports.ScreenFrame, error)
	StopScreencastFunc  func() error
	CloseFunc           func() error
}

func (m *Capturer) Launch(ctx context.Context, opts ports.CaptureOptions) error {
	if m.LaunchFunc != nil {
		return m.LaunchFunc(ctx, opts)
	}
	return nil
}

func (m *Capturer) Navigate(url string) error {
	if m.NavigateFunc != nil {
		return m.NavigateFunc(url)
	}
	return nil
}

func (m *Capturer) StartScreencast(quality int, maxFPS float64) (<-chan ports.ScreenFrame, error) {
	if m.StartScreencastFunc != nil {
		return m.StartScreencastFunc(quality, maxFPS)
	}
	ch := make(chan ports.ScreenFrame)
	close(ch)
	return ch, nil
}

func (m *Capturer) StopScreencast() error {
	if m.StopScreencastFunc != nil {
		return m.StopScreencastFunc()
	}
	return nil
}

func (m *Capturer) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ ports.ScreenCapturer = (*Capturer)(nil)
