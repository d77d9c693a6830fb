// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Sink saves debug output to files under a base directory.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new Sink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveGeometryJSON saves the resolved crop geometry as JSON.
func (s *Sink) SaveGeometryJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "geometry.json")
	return s.fs.WriteFile(path, data)
}

// SaveCaptureFrame saves a raw captured screencast frame.
func (s *Sink) SaveCaptureFrame(index int, data []byte) error {
	dir := filepath.Join(s.baseDir, "frames", "capture")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.jpg", index))
	return s.fs.WriteFile(path, data)
}

// SaveCroppedFrame saves a transformed frame.
func (s *Sink) SaveCroppedFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames", "cropped")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := encodePNG(img)
	if err != nil {
		return fmt.Errorf("encode cropped frame: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index))
	return s.fs.WriteFile(path, data)
}

// SavePreview saves the crop marker preview image.
func (s *Sink) SavePreview(img image.Image) error {
	data, err := encodePNG(img)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	path := filepath.Join(s.baseDir, "preview.png")
	return s.fs.WriteFile(path, data)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ ports.DebugSink = (*Sink)(nil)
