// Package vipsbackend provides the accelerated raster transform backend
// using libvips via govips.
//
// Initialization is fallible: when libvips cannot start (missing library,
// unsupported platform) New returns a backend_unavailable error and the
// caller is expected to fall back to the CPU backend.
package vipsbackend

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

var (
	startupOnce sync.Once
	startupErr  error
)

// startup initializes libvips once for the process. A panic inside the
// library (e.g. missing shared objects at dlopen time) is converted into an
// error instead of taking the process down.
func startup() error {
	startupOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				startupErr = fmt.Errorf("libvips startup panic: %v", r)
			}
		}()
		vips.LoggingSettings(nil, vips.LogLevelError)
		vips.Startup(&vips.Config{ReportLeaks: false})
	})
	return startupErr
}

// Shutdown releases the libvips context. Call at most once, at process exit.
func Shutdown() {
	vips.Shutdown()
}

// Backend implements ports.TransformBackend on libvips.
type Backend struct{}

// New initializes libvips and verifies it with a tiny probe transform.
func New() (*Backend, error) {
	if err := startup(); err != nil {
		return nil, pipeline.WrapError(pipeline.KindBackendUnavailable, err,
			"accelerated backend init failed")
	}

	b := &Backend{}
	probe := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if _, err := b.Transform(probe, image.Rect(0, 0, 2, 2), 2, 2); err != nil {
		return nil, pipeline.WrapError(pipeline.KindBackendUnavailable, err,
			"accelerated backend probe failed")
	}
	return b, nil
}

// Name identifies the backend.
func (b *Backend) Name() string {
	return "vips"
}

// Transform extracts the crop area and scales it to the output size with
// libvips linear resampling.
func (b *Backend) Transform(src image.Image, crop image.Rectangle, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("vipsbackend: invalid output size %dx%d", width, height)
	}
	region := crop.Add(src.Bounds().Min)
	if region.Empty() || !region.In(src.Bounds()) {
		return nil, fmt.Errorf("vipsbackend: crop %v outside source bounds %v", crop, src.Bounds())
	}

	// PNG round-trip keeps color values untouched across the cgo boundary.
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("vipsbackend: encode source: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("vipsbackend: load source: %w", err)
	}
	defer ref.Close()

	if err := ref.ExtractArea(crop.Min.X, crop.Min.Y, crop.Dx(), crop.Dy()); err != nil {
		return nil, fmt.Errorf("vipsbackend: extract area: %w", err)
	}

	hscale := float64(width) / float64(crop.Dx())
	vscale := float64(height) / float64(crop.Dy())
	if err := ref.ResizeWithVScale(hscale, vscale, vips.KernelLinear); err != nil {
		return nil, fmt.Errorf("vipsbackend: resize: %w", err)
	}

	out, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vipsbackend: export: %w", err)
	}
	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("vipsbackend: decode output: %w", err)
	}

	rgba, ok := decoded.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(decoded.Bounds())
		for y := rgba.Rect.Min.Y; y < rgba.Rect.Max.Y; y++ {
			for x := rgba.Rect.Min.X; x < rgba.Rect.Max.X; x++ {
				rgba.Set(x, y, decoded.At(x, y))
			}
		}
	}
	return rgba, nil
}

// Close is a no-op per backend instance; the libvips context is process-wide
// and released by Shutdown.
func (b *Backend) Close() {}

var _ ports.TransformBackend = (*Backend)(nil)
