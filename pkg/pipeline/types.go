package pipeline

import (
	"image"
	"math"
)

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height in pixels.
type Dimension struct {
	Width  int
	Height int
}

// DisplayRect is a user-drawn selection rectangle in on-screen pixels.
// Coordinates are fractional because they come from a display element whose
// bounding box is not pixel-aligned.
type DisplayRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// CropRect is a crop region in source-pixel space.
// A valid rect has positive width and height and lies fully inside the
// source frame.
type CropRect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Bounds returns the rect as an image.Rectangle.
func (r CropRect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the rect has no area.
func (r CropRect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Within reports whether the rect lies fully inside a width x height frame.
func (r CropRect) Within(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.X+r.Width <= width && r.Y+r.Height <= height
}

// FrameTask identifies one unit of transform work and keys the frame cache.
// Presentation time is quantized to milliseconds so that Get and Put agree
// on the key for the same frame.
type FrameTask struct {
	TimeMs int64
	Crop   CropRect
}

// NewFrameTask builds a cache key from a presentation time in seconds.
func NewFrameTask(pts float64, crop CropRect) FrameTask {
	return FrameTask{TimeMs: int64(math.Floor(pts * 1000)), Crop: crop}
}

// =============================================================================
// Geometry Stage Types
// =============================================================================

// GeometryInput contains everything needed to resolve a display-space
// selection into source-pixel crop bounds.
type GeometryInput struct {
	Selection     DisplayRect // user-drawn rect in display pixels
	DisplayWidth  float64     // bounding box of the displayed element
	DisplayHeight float64
	SourceWidth   int // natural pixel dimensions of the source
	SourceHeight  int
	AspectRatio   float64 // fixed width/height ratio when locked, 0 when free
}

// =============================================================================
// Record Stage Types
// =============================================================================

// RecordInput contains parameters for live tab recording.
type RecordInput struct {
	URLs           []string
	ViewportWidth  int
	ViewportHeight int
	FPS            float64
	Quality        int // JPEG quality for screencast frames (0-100)
	DurationMs     int // recording length per tab
	Headless       bool
}

// DefaultRecordInput returns RecordInput with default values.
func DefaultRecordInput() RecordInput {
	return RecordInput{
		ViewportWidth:  1280,
		ViewportHeight: 720,
		FPS:            30.0,
		Quality:        80,
		DurationMs:     10000,
		Headless:       true,
	}
}

// TabRecording is the encoded recording of a single tab.
type TabRecording struct {
	URL        string
	Data       []byte
	MimeType   string
	FrameCount int
	DurationMs int
}

// RecordResult contains one recording per requested URL, in input order.
type RecordResult struct {
	Tabs []TabRecording
}

// =============================================================================
// Crop Session Types
// =============================================================================

// CropResult is the terminal output of a successful crop session.
type CropResult struct {
	Data       []byte
	MimeType   string
	Backend    string // active transform backend, for diagnostics
	Codec      string
	DurationMs int
	OutputSize Dimension
}
