// Package smartsource opens a frame source by detecting the codec and
// selecting the appropriate decoder.
package smartsource

import (
	"context"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/codecdetect"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/ffmpegsource"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/ffmpegutil"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/mjpegsource"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Backend identifies the decoding backend in use.
type Backend string

const (
	// BackendNative is the pure-Go MJPEG decoder.
	BackendNative Backend = "native"
	// BackendFFmpeg is the external ffmpeg process decoder.
	BackendFFmpeg Backend = "ffmpeg"
)

// Info describes the selected decoder.
type Info struct {
	Codec   codecdetect.Codec
	Backend Backend
}

// Open detects the codec of the file and opens a matching frame source.
//
// The selection flow:
//   - MJPEG (our own recordings): pure-Go decoder
//   - anything else ffmpeg can read: ffmpeg decoder
func Open(ctx context.Context, path string) (ports.FrameSource, Info, error) {
	codec, err := codecdetect.DetectFromFile(path)
	if err != nil {
		return nil, Info{}, pipeline.WrapError(pipeline.KindLoad, err, "detect codec of %s", path)
	}

	switch codec {
	case codecdetect.CodecMJPEG:
		src, err := mjpegsource.Open(ctx, path)
		if err != nil {
			return nil, Info{}, err
		}
		return src, Info{Codec: codec, Backend: BackendNative}, nil

	case codecdetect.CodecH264, codecdetect.CodecVP9, codecdetect.CodecAV1:
		if !ffmpegutil.IsAvailable() {
			return nil, Info{}, pipeline.NewError(pipeline.KindLoad,
				"no decoder available for %s (ffmpeg not found)", codec)
		}
		src, err := ffmpegsource.Open(ctx, path)
		if err != nil {
			return nil, Info{}, err
		}
		return src, Info{Codec: codec, Backend: BackendFFmpeg}, nil

	default:
		return nil, Info{}, pipeline.NewError(pipeline.KindLoad, "unsupported codec in %s", path)
	}
}
