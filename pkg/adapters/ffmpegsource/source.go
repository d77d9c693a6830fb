// Package ffmpegsource provides a frame source backed by an external ffmpeg
// process, used for inputs our pure-Go decoder cannot read (H.264, VP9, AV1).
//
// Container metadata is read with mp4ff; the pixel data is streamed from
// ffmpeg as raw RGBA, one frame per Next call, so memory stays bounded for
// arbitrary-length sources.
package ffmpegsource

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/ffmpegutil"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

const defaultFrameDur = 1.0 / 30

// Source implements ports.FrameSource on an ffmpeg child process.
type Source struct {
	width    int
	height   int
	duration float64
	frameDur float64

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr ffmpegutil.StderrBuffer
	buf    []byte
	idx    int

	closeOnce sync.Once
	closed    bool
}

// Open probes the container and starts the decoder process.
func Open(ctx context.Context, path string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, pipeline.WrapError(pipeline.KindAbort, err, "load cancelled")
	}

	src := &Source{}
	if err := src.probe(path); err != nil {
		return nil, err
	}

	ffmpegPath, err := ffmpegutil.FindFFmpeg()
	if err != nil {
		return nil, pipeline.WrapError(pipeline.KindLoad, err, "no decoder available for %s", path)
	}

	cmd := exec.Command(ffmpegPath,
		"-hide_banner",
		"-i", path,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, pipeline.WrapError(pipeline.KindLoad, err, "stdout pipe")
	}
	cmd.Stderr = &src.stderr

	if err := cmd.Start(); err != nil {
		return nil, pipeline.WrapError(pipeline.KindLoad, err, "start ffmpeg")
	}

	if err := ctx.Err(); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, pipeline.WrapError(pipeline.KindAbort, err, "load cancelled")
	}

	src.cmd = cmd
	src.stdout = stdout
	src.buf = make([]byte, src.width*src.height*4)
	return src, nil
}

// probe reads dimensions, duration and nominal frame duration from the MP4
// structure without touching the media data.
func (s *Source) probe(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return pipeline.WrapError(pipeline.KindLoad, err, "open %s", path)
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f)
	if err != nil {
		return pipeline.WrapError(pipeline.KindLoad, err, "decode mp4")
	}

	moov := mp4File.Moov
	if moov == nil && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return pipeline.NewError(pipeline.KindLoad, "missing moov box")
	}

	var sampleCount int
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		s.width = int(uint32(trak.Tkhd.Width) >> 16)
		s.height = int(uint32(trak.Tkhd.Height) >> 16)
		if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
			s.duration = float64(trak.Mdia.Mdhd.Duration) / float64(trak.Mdia.Mdhd.Timescale)
		}
		if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsz != nil {
			sampleCount = int(trak.Mdia.Minf.Stbl.Stsz.SampleNumber)
		}
		break
	}

	if s.width <= 0 || s.height <= 0 {
		return pipeline.NewError(pipeline.KindLoad, "no video track with valid dimensions")
	}

	if sampleCount > 0 && s.duration > 0 {
		s.frameDur = s.duration / float64(sampleCount)
	} else {
		// Fragmented inputs don't carry a sample table; assume 30 fps.
		s.frameDur = defaultFrameDur
	}
	return nil
}

// Bounds returns the natural pixel dimensions.
func (s *Source) Bounds() (int, int) {
	return s.width, s.height
}

// Duration returns the clip duration in seconds, 0 when the container does
// not declare one.
func (s *Source) Duration() float64 {
	return s.duration
}

// Next reads one raw RGBA frame from the decoder.
func (s *Source) Next() (*ports.SourceFrame, error) {
	if s.closed {
		return nil, fmt.Errorf("ffmpegsource: source closed")
	}

	n, err := io.ReadFull(s.stdout, s.buf)
	if err == io.EOF || (err == io.ErrUnexpectedEOF && n == 0) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, pipeline.WrapError(pipeline.KindLoad, err,
			"read frame %d: %s", s.idx, s.stderr.Tail())
	}

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	copy(img.Pix, s.buf)

	frame := &ports.SourceFrame{
		Image: img,
		PTS:   float64(s.idx) * s.frameDur,
		Dur:   s.frameDur,
	}
	s.idx++
	return frame, nil
}

// Close terminates the decoder process. Idempotent.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		if s.stdout != nil {
			s.stdout.Close()
		}
		if s.cmd != nil && s.cmd.Process != nil {
			s.cmd.Process.Kill()
			s.cmd.Wait()
		}
	})
	return nil
}

var _ ports.FrameSource = (*Source)(nil)
