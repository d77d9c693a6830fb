package mjpegsink

import (
	"context"
	"image"
	"image/color"
	"io"
	"math"
	"testing"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/codecdetect"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/mjpegsource"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

func testFrame(width, height int, shade uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}
	return img
}

func TestSink_RoundTripThroughSource(t *testing.T) {
	sink := New()
	if err := sink.Begin(32, 24, 10, ports.SinkOptions{Quality: 90}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	wantPTS := []float64{0, 0.1, 0.2}
	for i, pts := range wantPTS {
		if err := sink.Push(testFrame(32, 24, uint8(40*i)), pts); err != nil {
			t.Fatalf("Push %d failed: %v", i, err)
		}
	}

	data, err := sink.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty container")
	}

	codec, err := codecdetect.DetectFromBytes(data)
	if err != nil {
		t.Fatalf("DetectFromBytes failed: %v", err)
	}
	if codec != codecdetect.CodecMJPEG {
		t.Errorf("expected mjpeg codec, got %s", codec)
	}

	src, err := mjpegsource.OpenBytes(context.Background(), data)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	defer src.Close()

	if w, h := src.Bounds(); w != 32 || h != 24 {
		t.Errorf("expected 32x24 source, got %dx%d", w, h)
	}
	if d := src.Duration(); math.Abs(d-0.3) > 0.001 {
		t.Errorf("expected 0.3s duration, got %g", d)
	}

	for i, pts := range wantPTS {
		frame, err := src.Next()
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if math.Abs(frame.PTS-pts) > 0.001 {
			t.Errorf("frame %d: expected pts %g, got %g", i, pts, frame.PTS)
		}
		if b := frame.Image.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
			t.Errorf("frame %d: unexpected size %dx%d", i, b.Dx(), b.Dy())
		}
	}

	if _, err := src.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
}

func TestSink_FinishWithoutFramesReturnsEmpty(t *testing.T) {
	sink := New()
	if err := sink.Begin(32, 24, 30, ports.SinkOptions{}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	data, err := sink.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty output, got %d bytes", len(data))
	}
}

func TestSink_RejectsNonIncreasingPTS(t *testing.T) {
	sink := New()
	if err := sink.Begin(16, 16, 30, ports.SinkOptions{}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if err := sink.Push(testFrame(16, 16, 0), 0.5); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if err := sink.Push(testFrame(16, 16, 0), 0.5); err == nil {
		t.Error("expected error for repeated pts")
	}
	if err := sink.Push(testFrame(16, 16, 0), 0.2); err == nil {
		t.Error("expected error for decreasing pts")
	}
}

func TestSink_LifecycleErrors(t *testing.T) {
	sink := New()
	if err := sink.Push(testFrame(16, 16, 0), 0); err == nil {
		t.Error("expected error for push before begin")
	}
	if _, err := sink.Finish(); err == nil {
		t.Error("expected error for finish before begin")
	}
	if err := sink.Begin(0, 16, 30, ports.SinkOptions{}); err == nil {
		t.Error("expected error for zero width")
	}
	if err := sink.Begin(16, 16, 0, ports.SinkOptions{}); err == nil {
		t.Error("expected error for zero fps")
	}
}

func TestSink_CloseDropsBufferedSamples(t *testing.T) {
	sink := New()
	if err := sink.Begin(16, 16, 30, ports.SinkOptions{}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := sink.Push(testFrame(16, 16, 0), 0); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if _, err := sink.Finish(); err == nil {
		t.Error("expected error for finish after close")
	}

	// The sink is reusable after an abandoned encode.
	if err := sink.Begin(16, 16, 30, ports.SinkOptions{}); err != nil {
		t.Fatalf("Begin after Close failed: %v", err)
	}
	data, err := sink.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("closed samples must not leak into the next encode, got %d bytes", len(data))
	}
}

func TestSink_MimeType(t *testing.T) {
	if mime := New().MimeType(); mime != codecdetect.MimeType(codecdetect.CodecMJPEG) {
		t.Errorf("unexpected mime type %q", mime)
	}
}
