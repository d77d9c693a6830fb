package smartsink

import (
	"errors"
	"strings"
	"testing"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/ffmpegutil"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/mocks"
)

func TestNegotiate_MJPEGAlwaysSupported(t *testing.T) {
	sink, info, err := Negotiate([]string{CodecMJPEG}, Options{})
	if err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}
	if sink == nil {
		t.Fatal("expected a sink")
	}
	if info.Negotiated != CodecMJPEG {
		t.Errorf("expected mjpeg, got %s", info.Negotiated)
	}
	if info.FallbackUsed {
		t.Error("first preference satisfied, fallback flag should be false")
	}
	if !strings.Contains(info.MimeType, "jpeg") {
		t.Errorf("mime type should reflect the negotiated codec, got %q", info.MimeType)
	}
}

func TestNegotiate_SkipsUnsupportedPreference(t *testing.T) {
	log := mocks.NewLogger()

	sink, info, err := Negotiate([]string{"bogus", CodecMJPEG}, Options{Logger: log})
	if err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}
	if sink == nil {
		t.Fatal("expected a sink")
	}
	if info.Requested != "bogus" {
		t.Errorf("expected requested bogus, got %s", info.Requested)
	}
	if info.Negotiated != CodecMJPEG {
		t.Errorf("expected mjpeg fallback, got %s", info.Negotiated)
	}
	if !info.FallbackUsed {
		t.Error("expected fallback flag")
	}
	if !log.Contains("not supported") {
		t.Error("expected a warning about the skipped codec")
	}
}

func TestNegotiate_NoCandidateLeft(t *testing.T) {
	_, _, err := Negotiate([]string{"bogus"}, Options{})
	if !errors.Is(err, ErrNoEncoderAvailable) {
		t.Errorf("expected ErrNoEncoderAvailable, got %v", err)
	}
}

func TestNegotiate_CustomFFmpegPath(t *testing.T) {
	defer ffmpegutil.SetFFmpegPath("")

	// A bogus ffmpeg path must take effect: h264 probes against it, fails,
	// and negotiation falls through to the pure-Go codec.
	sink, info, err := Negotiate([]string{CodecH264, CodecMJPEG}, Options{
		FFmpegPath: "/definitely/not/here/ffmpeg",
	})
	if err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}
	if sink == nil {
		t.Fatal("expected a sink")
	}
	if info.Negotiated != CodecMJPEG {
		t.Errorf("expected mjpeg fallback, got %s", info.Negotiated)
	}
	if !info.FallbackUsed {
		t.Error("expected fallback flag")
	}

	if _, err := ffmpegutil.FindFFmpeg(); !errors.Is(err, ffmpegutil.ErrFFmpegNotFound) {
		t.Errorf("expected the custom path to be applied, got %v", err)
	}
}

func TestDefaultPreferences_EndWithMJPEG(t *testing.T) {
	// The guaranteed pure-Go codec must terminate the default list so
	// negotiation can never fail on a host without ffmpeg.
	if DefaultPreferences[len(DefaultPreferences)-1] != CodecMJPEG {
		t.Errorf("default preferences must end with mjpeg, got %v", DefaultPreferences)
	}
}
