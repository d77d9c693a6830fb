// Package mjpegsource provides a pure-Go frame source for the fragmented
// MJPEG MP4 files produced by the recorder.
//
// Container parsing happens once at open; the JPEG payload of each sample is
// decoded lazily on Next so decoded-frame memory stays bounded.
package mjpegsource

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Source implements ports.FrameSource for MJPEG-in-MP4 clips.
type Source struct {
	samples  []sample
	idx      int
	width    int
	height   int
	duration float64
	closed   bool
}

type sample struct {
	data   []byte
	timeMs int64
	durMs  int64
}

// Open reads an MJPEG MP4 file and prepares it for frame iteration.
// Cancellation through ctx maps to an abort error; undecodable input maps to
// a load error.
func Open(ctx context.Context, path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeline.WrapError(pipeline.KindLoad, err, "open %s", path)
	}
	defer f.Close()

	return OpenReader(ctx, f)
}

// OpenReader reads an MJPEG MP4 stream from an io.ReadSeeker.
func OpenReader(ctx context.Context, reader io.ReadSeeker) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, pipeline.WrapError(pipeline.KindAbort, err, "load cancelled")
	}

	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, pipeline.WrapError(pipeline.KindLoad, err, "decode mp4")
	}
	if !mp4File.IsFragmented() {
		return nil, pipeline.NewError(pipeline.KindLoad,
			"progressive MP4 not supported, expected a fragmented recording")
	}

	src := &Source{}
	if err := src.readInit(mp4File); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, pipeline.WrapError(pipeline.KindAbort, err, "load cancelled")
	}
	return src, nil
}

// OpenBytes reads an MJPEG MP4 from an in-memory blob.
func OpenBytes(ctx context.Context, data []byte) (*Source, error) {
	return OpenReader(ctx, bytes.NewReader(data))
}

func (s *Source) readInit(mp4File *mp4.File) error {
	var videoTrackID uint32
	var trex *mp4.TrexBox
	var trackTimescale uint32 = 1000

	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return pipeline.NewError(pipeline.KindLoad, "missing init segment")
	}

	for _, trak := range mp4File.Init.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if !hasJPEGEntry(trak) {
			continue
		}
		videoTrackID = trak.Tkhd.TrackID
		s.width = int(uint32(trak.Tkhd.Width) >> 16)
		s.height = int(uint32(trak.Tkhd.Height) >> 16)
		if trak.Mdia.Mdhd != nil {
			trackTimescale = trak.Mdia.Mdhd.Timescale
		}
		break
	}
	if videoTrackID == 0 {
		return pipeline.NewError(pipeline.KindLoad, "no MJPEG video track found")
	}

	if mp4File.Init.Moov.Mvex != nil {
		for _, t := range mp4File.Init.Moov.Mvex.Trexs {
			if t.TrackID == videoTrackID {
				trex = t
				break
			}
		}
	}

	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != videoTrackID {
					continue
				}

				var baseDecodeTime uint64
				if traf.Tfdt != nil {
					baseDecodeTime = traf.Tfdt.BaseMediaDecodeTime()
				}

				fullSamples, err := frag.GetFullSamples(trex)
				if err != nil {
					return pipeline.WrapError(pipeline.KindLoad, err, "read samples")
				}

				currentTime := baseDecodeTime
				for _, fs := range fullSamples {
					s.samples = append(s.samples, sample{
						data:   fs.Data,
						timeMs: int64(currentTime * 1000 / uint64(trackTimescale)),
						durMs:  int64(uint64(fs.Dur) * 1000 / uint64(trackTimescale)),
					})
					currentTime += uint64(fs.Dur)
				}
			}
		}
	}

	if len(s.samples) == 0 {
		return pipeline.NewError(pipeline.KindLoad, "video track has no samples")
	}

	last := s.samples[len(s.samples)-1]
	s.duration = float64(last.timeMs+last.durMs) / 1000
	return nil
}

func hasJPEGEntry(trak *mp4.TrakBox) bool {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return false
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "jpeg", "mjpa":
			return true
		}
	}
	return false
}

// Bounds returns the natural pixel dimensions.
func (s *Source) Bounds() (int, int) {
	return s.width, s.height
}

// Duration returns the clip duration in seconds.
func (s *Source) Duration() float64 {
	return s.duration
}

// Next decodes and returns the next frame, or io.EOF past the last sample.
func (s *Source) Next() (*ports.SourceFrame, error) {
	if s.closed {
		return nil, fmt.Errorf("mjpegsource: source closed")
	}
	if s.idx >= len(s.samples) {
		return nil, io.EOF
	}

	sm := s.samples[s.idx]
	s.idx++

	img, err := jpeg.Decode(bytes.NewReader(sm.data))
	if err != nil {
		return nil, pipeline.WrapError(pipeline.KindLoad, err,
			"decode frame at %dms", sm.timeMs)
	}

	return &ports.SourceFrame{
		Image: img,
		PTS:   float64(sm.timeMs) / 1000,
		Dur:   float64(sm.durMs) / 1000,
	}, nil
}

// Close releases the sample buffers. Idempotent.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.samples = nil
	return nil
}

var _ ports.FrameSource = (*Source)(nil)
