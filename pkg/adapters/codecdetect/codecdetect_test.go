package codecdetect

import (
	"strings"
	"testing"
)

func TestDetectFromBytes_RejectsGarbage(t *testing.T) {
	if _, err := DetectFromBytes([]byte("definitely not mp4")); err == nil {
		t.Error("expected error for non-MP4 input")
	}
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		codec Codec
		want  string
	}{
		{CodecH264, `video/mp4; codecs="avc1.42E01E"`},
		{CodecVP9, `video/mp4; codecs="vp09.00.10.08"`},
		{CodecMJPEG, `video/mp4; codecs="jpeg"`},
	}

	for _, tt := range tests {
		if got := MimeType(tt.codec); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.codec, tt.want, got)
		}
	}
}

func TestMimeType_UnknownFallsBackToPlainMP4(t *testing.T) {
	got := MimeType(CodecUnknown)
	if !strings.HasPrefix(got, "video/mp4") {
		t.Errorf("expected a video/mp4 type, got %q", got)
	}
	if strings.Contains(got, "codecs=") {
		t.Errorf("unknown codec should not claim a codecs parameter, got %q", got)
	}
}
