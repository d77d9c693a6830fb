// Package smartsink negotiates an encode sink from an ordered codec
// preference list.
//
// Each preference is probed for host support; the first supported codec
// wins. "mjpeg" is always supported (pure Go), so negotiation cannot run out
// of candidates as long as it appears in the list.
package smartsink

import (
	"errors"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/ffmpegsink"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/ffmpegutil"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/mjpegsink"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Codec identifiers accepted in preference lists.
const (
	CodecH264  = "h264"
	CodecVP9   = "vp9"
	CodecMJPEG = "mjpeg"
)

// DefaultPreferences is the default codec preference order.
var DefaultPreferences = []string{CodecH264, CodecVP9, CodecMJPEG}

// ErrNoEncoderAvailable is returned when no preference is supported.
var ErrNoEncoderAvailable = errors.New("smartsink: no encoder available")

// Info describes the outcome of codec negotiation.
type Info struct {
	// Requested is the first codec in the preference list.
	Requested string
	// Negotiated is the codec actually selected.
	Negotiated string
	// MimeType is the mime type of the negotiated container.
	MimeType string
	// FallbackUsed indicates the first preference was not supported.
	FallbackUsed bool
}

// Options configures negotiation behavior.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// Logger is used to log fallback warnings.
	Logger ports.Logger
}

// Negotiate walks the preference list and returns the first supported sink.
func Negotiate(preferences []string, opts Options) (ports.EncodeSink, Info, error) {
	if len(preferences) == 0 {
		preferences = DefaultPreferences
	}
	if opts.FFmpegPath != "" {
		ffmpegutil.SetFFmpegPath(opts.FFmpegPath)
	}

	supported := func(codec string) bool {
		switch codec {
		case CodecMJPEG:
			return true
		case CodecH264, CodecVP9:
			return ffmpegsink.Supported(codec)
		default:
			return false
		}
	}

	requested := preferences[0]
	for i, codec := range preferences {
		if !supported(codec) {
			if opts.Logger != nil {
				opts.Logger.Warn("Codec %s not supported, trying next preference", codec)
			}
			continue
		}

		sink, err := newSink(codec)
		if err != nil {
			return nil, Info{}, err
		}
		return sink, Info{
			Requested:    requested,
			Negotiated:   codec,
			MimeType:     sink.MimeType(),
			FallbackUsed: i > 0,
		}, nil
	}

	return nil, Info{}, ErrNoEncoderAvailable
}

func newSink(codec string) (ports.EncodeSink, error) {
	switch codec {
	case CodecMJPEG:
		return mjpegsink.New(), nil
	default:
		return ffmpegsink.New(codec)
	}
}
