// Package mjpegsink provides a pure-Go encode sink that muxes JPEG-compressed
// frames into a fragmented MP4 container.
//
// It is the universal encode fallback: it has no external dependencies and
// never fails to initialize, at the cost of a larger output than a real
// inter-frame codec.
package mjpegsink

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/codecdetect"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

const defaultQuality = 85

// Sink implements ports.EncodeSink with JPEG samples in fragmented MP4.
type Sink struct {
	mu sync.Mutex

	width   int
	height  int
	fps     float64
	quality int
	begun   bool

	samples []sample
	lastPTS float64
}

type sample struct {
	data   []byte
	timeMs int64
}

// New creates a new MJPEG sink.
func New() *Sink {
	return &Sink{}
}

// Begin initializes the sink.
func (s *Sink) Begin(width, height int, fps float64, opts ports.SinkOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("mjpegsink: invalid dimensions %dx%d", width, height)
	}
	if fps <= 0 {
		return fmt.Errorf("mjpegsink: invalid frame rate %g", fps)
	}

	s.width = width
	s.height = height
	s.fps = fps
	s.quality = opts.Quality
	if s.quality <= 0 || s.quality > 100 {
		s.quality = defaultQuality
	}
	s.samples = nil
	s.lastPTS = -1
	s.begun = true
	return nil
}

// Push compresses one frame and appends it to the sample list.
// Presentation times must be strictly increasing.
func (s *Sink) Push(img image.Image, pts float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.begun {
		return fmt.Errorf("mjpegsink: push before begin")
	}
	if pts <= s.lastPTS {
		return fmt.Errorf("mjpegsink: non-increasing pts %g after %g", pts, s.lastPTS)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return fmt.Errorf("mjpegsink: encode frame: %w", err)
	}

	s.samples = append(s.samples, sample{
		data:   buf.Bytes(),
		timeMs: int64(pts * 1000),
	})
	s.lastPTS = pts
	return nil
}

// Finish builds the MP4 container. With no pushed frames it returns an empty
// byte slice so the caller can distinguish empty output from a mux fault.
func (s *Sink) Finish() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.begun {
		return nil, fmt.Errorf("mjpegsink: finish before begin")
	}
	s.begun = false

	if len(s.samples) == 0 {
		return []byte{}, nil
	}

	data, err := s.buildMP4()
	s.samples = nil
	if err != nil {
		return nil, fmt.Errorf("mjpegsink: build mp4: %w", err)
	}
	return data, nil
}

// MimeType returns the container mime type.
func (s *Sink) MimeType() string {
	return codecdetect.MimeType(codecdetect.CodecMJPEG)
}

// Close drops any buffered samples. Idempotent.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = nil
	s.begun = false
	return nil
}

var _ ports.EncodeSink = (*Sink)(nil)
