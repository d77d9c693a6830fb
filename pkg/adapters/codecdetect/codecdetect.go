// Package codecdetect provides utilities for detecting the video codec of
// an MP4 file.
package codecdetect

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecVP9     Codec = "vp9"
	CodecAV1     Codec = "av1"
	CodecMJPEG   Codec = "mjpeg"
	CodecUnknown Codec = "unknown"
)

// DetectFromFile detects the video codec used in an MP4 file.
func DetectFromFile(path string) (Codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return CodecUnknown, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader detects the video codec from an io.ReadSeeker.
func DetectFromReader(reader io.ReadSeeker) (Codec, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return CodecUnknown, fmt.Errorf("decode mp4: %w", err)
	}

	// Reset reader position for subsequent reads
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return CodecUnknown, fmt.Errorf("seek: %w", err)
	}

	return detectFromMP4File(mp4File)
}

// DetectFromBytes detects the video codec from MP4 data bytes.
func DetectFromBytes(data []byte) (Codec, error) {
	return DetectFromReader(bytes.NewReader(data))
}

func detectFromMP4File(mp4File *mp4.File) (Codec, error) {
	if mp4File.IsFragmented() {
		if mp4File.Init != nil && mp4File.Init.Moov != nil {
			for _, trak := range mp4File.Init.Moov.Traks {
				codec := detectCodecFromTrack(trak)
				if codec != CodecUnknown {
					return codec, nil
				}
			}
		}
	}

	if mp4File.Moov != nil {
		for _, trak := range mp4File.Moov.Traks {
			codec := detectCodecFromTrack(trak)
			if codec != CodecUnknown {
				return codec, nil
			}
		}
	}

	return CodecUnknown, fmt.Errorf("no video track found")
}

func detectCodecFromTrack(trak *mp4.TrakBox) Codec {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return CodecUnknown
	}
	if trak.Mdia.Hdlr.HandlerType != "vide" {
		return CodecUnknown
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "vp09":
			return CodecVP9
		case "av01":
			return CodecAV1
		case "jpeg", "mjpa":
			// QuickTime-style motion JPEG, produced by our own recorder
			return CodecMJPEG
		}
	}

	return CodecUnknown
}

// MimeType returns the mime type of an MP4 container carrying the codec.
func MimeType(codec Codec) string {
	switch codec {
	case CodecH264:
		return `video/mp4; codecs="avc1.42E01E"`
	case CodecVP9:
		return `video/mp4; codecs="vp09.00.10.08"`
	case CodecAV1:
		return `video/mp4; codecs="av01.0.08M.08"`
	case CodecMJPEG:
		return `video/mp4; codecs="jpeg"`
	default:
		return "video/mp4"
	}
}
