// Package ffmpegsink provides an encode sink backed by an external ffmpeg
// process. Raw RGBA frames are piped to stdin; a fragmented MP4 comes back
// on stdout.
package ffmpegsink

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"sync"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/codecdetect"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/ffmpegutil"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Codec identifiers accepted by New.
const (
	CodecH264 = "h264"
	CodecVP9  = "vp9"
)

// encoderName maps a codec identifier to the ffmpeg encoder that serves it.
func encoderName(codec string) (string, error) {
	switch codec {
	case CodecH264:
		return "libx264", nil
	case CodecVP9:
		return "libvpx-vp9", nil
	default:
		return "", fmt.Errorf("ffmpegsink: unsupported codec %q", codec)
	}
}

// Supported reports whether the local ffmpeg can encode the codec.
func Supported(codec string) bool {
	enc, err := encoderName(codec)
	if err != nil {
		return false
	}
	return ffmpegutil.EncoderSupported(enc)
}

// Sink implements ports.EncodeSink on an ffmpeg child process.
type Sink struct {
	codec string

	mu      sync.Mutex
	width   int
	height  int
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  bytes.Buffer
	stderr  ffmpegutil.StderrBuffer
	lastPTS float64
	pushed  int
	begun   bool
}

// New creates a sink for the given codec identifier.
func New(codec string) (*Sink, error) {
	if _, err := encoderName(codec); err != nil {
		return nil, err
	}
	return &Sink{codec: codec}, nil
}

// Begin starts the ffmpeg process.
func (s *Sink) Begin(width, height int, fps float64, opts ports.SinkOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("ffmpegsink: invalid dimensions %dx%d", width, height)
	}
	if fps <= 0 {
		return fmt.Errorf("ffmpegsink: invalid frame rate %g", fps)
	}

	ffmpegPath, err := ffmpegutil.FindFFmpeg()
	if err != nil {
		return fmt.Errorf("ffmpegsink: %w", err)
	}
	enc, err := encoderName(s.codec)
	if err != nil {
		return err
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprintf("%.3f", fps),
		"-i", "pipe:0",
		"-an",
		"-c:v", enc,
		"-pix_fmt", "yuv420p",
	}

	switch s.codec {
	case CodecH264:
		args = append(args, "-preset", "veryfast")
		crf := 23
		if opts.Quality > 0 {
			crf = opts.Quality * 51 / 100
			if crf > 51 {
				crf = 51
			}
		}
		args = append(args, "-crf", fmt.Sprintf("%d", crf))
	case CodecVP9:
		args = append(args, "-deadline", "realtime", "-cpu-used", "5")
	}
	if opts.Bitrate > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", opts.Bitrate))
	}

	// Fragmented output so the container is valid without a seekable sink.
	args = append(args,
		"-movflags", "frag_keyframe+empty_moov",
		"-f", "mp4",
		"pipe:1",
	)

	cmd := exec.Command(ffmpegPath, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpegsink: stdin pipe: %w", err)
	}
	s.stdout.Reset()
	s.stderr.Reset()
	cmd.Stdout = &s.stdout
	cmd.Stderr = &s.stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpegsink: start ffmpeg: %w", err)
	}

	s.width = width
	s.height = height
	s.cmd = cmd
	s.stdin = stdin
	s.lastPTS = -1
	s.pushed = 0
	s.begun = true
	return nil
}

// Push writes one RGBA frame to the encoder.
func (s *Sink) Push(img image.Image, pts float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.begun {
		return fmt.Errorf("ffmpegsink: push before begin")
	}
	if pts <= s.lastPTS {
		return fmt.Errorf("ffmpegsink: non-increasing pts %g after %g", pts, s.lastPTS)
	}

	rgba := toRGBA(img, s.width, s.height)
	if _, err := s.stdin.Write(rgba.Pix); err != nil {
		return pipeline.WrapError(pipeline.KindEncode, err,
			"encoder rejected frame at %.3fs: %s", pts, s.stderr.Tail())
	}

	s.lastPTS = pts
	s.pushed++
	return nil
}

// Finish closes the input stream and collects the container bytes.
func (s *Sink) Finish() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.begun {
		return nil, fmt.Errorf("ffmpegsink: finish before begin")
	}
	s.begun = false

	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		s.cmd = nil
		return nil, pipeline.WrapError(pipeline.KindEncode, err,
			"ffmpeg exited with error: %s", s.stderr.Tail())
	}
	s.cmd = nil

	return s.stdout.Bytes(), nil
}

// Close abandons the encode and reaps the child process. Idempotent; a no-op
// after a successful Finish.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.begun = false
	if s.cmd == nil {
		return nil
	}

	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	s.cmd = nil
	s.stdout.Reset()
	return nil
}

// MimeType returns the container mime type for the configured codec.
func (s *Sink) MimeType() string {
	switch s.codec {
	case CodecVP9:
		return codecdetect.MimeType(codecdetect.CodecVP9)
	default:
		return codecdetect.MimeType(codecdetect.CodecH264)
	}
}

// toRGBA normalizes the frame to a tightly packed RGBA buffer of the sink's
// dimensions so the rawvideo stream stays aligned.
func toRGBA(img image.Image, width, height int) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		b := rgba.Bounds()
		if b.Dx() == width && b.Dy() == height && rgba.Stride == width*4 && b.Min == (image.Point{}) {
			return rgba
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}

var _ ports.EncodeSink = (*Sink)(nil)
