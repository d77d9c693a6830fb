// Package preview renders crop-selection poster images using the gg library.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
)

// Options controls poster rendering.
type Options struct {
	// MaxWidth/MaxHeight bound the poster size; the frame is fit inside while
	// preserving aspect ratio. Zero means no bound on that axis.
	MaxWidth  int
	MaxHeight int
	// ShowLabel draws the crop dimensions next to the marker.
	ShowLabel bool
}

// DefaultOptions fits posters into 1280x720 with the dimension label on.
func DefaultOptions() Options {
	return Options{MaxWidth: 1280, MaxHeight: 720, ShowLabel: true}
}

var (
	maskColor    = color.NRGBA{R: 0, G: 0, B: 0, A: 128}
	outlineColor = color.NRGBA{R: 255, G: 196, B: 0, A: 255}
	labelBack    = color.NRGBA{R: 0, G: 0, B: 0, A: 180}
	labelText    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Render draws the crop marker over a source frame: the area outside the crop
// is dimmed, the crop itself is outlined and optionally labeled with its
// pixel dimensions.
func Render(frame image.Image, crop pipeline.CropRect, opts Options) (image.Image, error) {
	bounds := frame.Bounds()
	if !crop.Within(bounds.Dx(), bounds.Dy()) {
		return nil, pipeline.NewError(pipeline.KindInvalidCrop,
			"crop %dx%d+%d+%d outside frame %dx%d",
			crop.Width, crop.Height, crop.X, crop.Y, bounds.Dx(), bounds.Dy())
	}

	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	dc.DrawImage(frame, 0, 0)

	x := float64(crop.X)
	y := float64(crop.Y)
	w := float64(crop.Width)
	h := float64(crop.Height)
	fw := float64(bounds.Dx())
	fh := float64(bounds.Dy())

	// Dim everything outside the crop with four rectangles
	dc.SetColor(maskColor)
	dc.DrawRectangle(0, 0, fw, y)
	dc.DrawRectangle(0, y+h, fw, fh-y-h)
	dc.DrawRectangle(0, y, x, h)
	dc.DrawRectangle(x+w, y, fw-x-w, h)
	dc.Fill()

	dc.SetColor(outlineColor)
	dc.SetLineWidth(2)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	if opts.ShowLabel {
		label := fmt.Sprintf("%dx%d", crop.Width, crop.Height)
		tw, th := dc.MeasureString(label)
		lx, ly := x, y-th-8
		if ly < 0 {
			ly = y + 4
		}
		dc.SetColor(labelBack)
		dc.DrawRectangle(lx, ly, tw+8, th+6)
		dc.Fill()
		dc.SetColor(labelText)
		dc.DrawString(label, lx+4, ly+th+1)
	}

	poster := dc.Image()
	if opts.MaxWidth > 0 || opts.MaxHeight > 0 {
		maxW := opts.MaxWidth
		maxH := opts.MaxHeight
		if maxW <= 0 {
			maxW = bounds.Dx()
		}
		if maxH <= 0 {
			maxH = bounds.Dy()
		}
		if bounds.Dx() > maxW || bounds.Dy() > maxH {
			poster = imaging.Fit(poster, maxW, maxH, imaging.Lanczos)
		}
	}

	return poster, nil
}

// EncodePNG renders the poster and encodes it as PNG.
func EncodePNG(frame image.Image, crop pipeline.CropRect, opts Options) ([]byte, error) {
	poster, err := Render(frame, crop, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, poster); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
