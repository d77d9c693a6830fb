package filesink

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/mocks"
)

func TestSink_Enabled(t *testing.T) {
	fs := mocks.NewFileSystem()
	if !New("debug", fs).Enabled() {
		t.Error("file sink should report enabled")
	}
}

func TestSink_SaveGeometryJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New("debug", fs)

	if err := sink.SaveGeometryJSON([]byte(`{"x":1}`)); err != nil {
		t.Fatalf("SaveGeometryJSON failed: %v", err)
	}

	data, err := fs.ReadFile(filepath.Join("debug", "geometry.json"))
	if err != nil {
		t.Fatalf("expected geometry.json to be written: %v", err)
	}
	if string(data) != `{"x":1}` {
		t.Errorf("unexpected content %q", data)
	}
}

func TestSink_SaveCaptureFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New("debug", fs)

	if err := sink.SaveCaptureFrame(3, []byte("jpegdata")); err != nil {
		t.Fatalf("SaveCaptureFrame failed: %v", err)
	}

	path := filepath.Join("debug", "frames", "capture", "frame-0003.jpg")
	if _, err := fs.ReadFile(path); err != nil {
		t.Errorf("expected %s to be written: %v", path, err)
	}
}

func TestSink_SaveCroppedFrameAndPreview(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New("debug", fs)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	if err := sink.SaveCroppedFrame(0, img); err != nil {
		t.Fatalf("SaveCroppedFrame failed: %v", err)
	}
	if err := sink.SavePreview(img); err != nil {
		t.Fatalf("SavePreview failed: %v", err)
	}

	cropped := filepath.Join("debug", "frames", "cropped", "frame-0000.png")
	if _, err := fs.ReadFile(cropped); err != nil {
		t.Errorf("expected %s to be written: %v", cropped, err)
	}
	if _, err := fs.ReadFile(filepath.Join("debug", "preview.png")); err != nil {
		t.Errorf("expected preview.png to be written: %v", err)
	}
}
