package ports

import (
	"context"
)

// CaptureOptions configures a screen capturer.
type CaptureOptions struct {
	Headless       bool
	BrowserPath    string // path to the browser executable, empty for default
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
}

// ScreenFrame is a single captured frame of a live tab.
type ScreenFrame struct {
	TimestampMs int    // milliseconds since capture start
	Data        []byte // JPEG image data
}

// ScreenCapturer captures a live browser tab as a stream of frames.
type ScreenCapturer interface {
	// Launch starts the browser with the given options.
	Launch(ctx context.Context, opts CaptureOptions) error

	// Navigate loads the specified URL in the captured tab.
	Navigate(url string) error

	// StartScreencast begins capturing frames. quality is the JPEG quality
	// (0-100); maxFPS bounds the capture rate. The returned channel is
	// closed when the screencast stops.
	StartScreencast(quality int, maxFPS float64) (<-chan ScreenFrame, error)

	// StopScreencast stops frame capture.
	StopScreencast() error

	// Close shuts down the browser.
	Close() error
}
