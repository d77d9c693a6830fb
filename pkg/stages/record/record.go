// Package record implements the live tab recording stage.
//
// Each requested URL is captured in its own browser instance concurrently;
// screencast frames are encoded on the fly so memory stays proportional to
// the encoder state, not the recording length.
package record

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// CapturerFactory creates a fresh browser capturer for one tab.
type CapturerFactory func() ports.ScreenCapturer

// SinkFactory creates a fresh encode sink for one tab.
type SinkFactory func() (ports.EncodeSink, error)

// Stage records one or more tabs into encoded videos.
type Stage struct {
	newCapturer CapturerFactory
	newSink     SinkFactory
	debug       ports.DebugSink
	logger      ports.Logger
	captureOpts ports.CaptureOptions
}

// New creates a new record stage.
func New(newCapturer CapturerFactory, newSink SinkFactory, debug ports.DebugSink, logger ports.Logger, opts ports.CaptureOptions) *Stage {
	return &Stage{
		newCapturer: newCapturer,
		newSink:     newSink,
		debug:       debug,
		logger:      logger.WithComponent("record"),
		captureOpts: opts,
	}
}

// Execute records every URL concurrently and returns recordings in input order.
func (s *Stage) Execute(ctx context.Context, input pipeline.RecordInput) (pipeline.RecordResult, error) {
	if len(input.URLs) == 0 {
		return pipeline.RecordResult{}, fmt.Errorf("record: no URLs given")
	}
	if input.DurationMs <= 0 {
		return pipeline.RecordResult{}, fmt.Errorf("record: duration must be positive, got %d ms", input.DurationMs)
	}

	tabs := make([]pipeline.TabRecording, len(input.URLs))
	errs := make([]error, len(input.URLs))

	var wg sync.WaitGroup
	for i, url := range input.URLs {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			tab, err := s.recordTab(ctx, url, input, i == 0)
			tabs[i] = tab
			errs[i] = err
		}(i, url)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return pipeline.RecordResult{}, fmt.Errorf("record %s: %w", input.URLs[i], err)
		}
	}

	return pipeline.RecordResult{Tabs: tabs}, nil
}

// recordTab captures a single URL. Debug frames are saved for the first tab
// only to keep the debug directory layout flat.
func (s *Stage) recordTab(ctx context.Context, url string, input pipeline.RecordInput, saveDebug bool) (pipeline.TabRecording, error) {
	tab := pipeline.TabRecording{URL: url}

	capturer := s.newCapturer()

	opts := s.captureOpts
	opts.Headless = input.Headless
	opts.ViewportWidth = input.ViewportWidth
	opts.ViewportHeight = input.ViewportHeight

	if opts.Headless {
		s.logger.Debug("Launching browser in headless mode")
	} else {
		s.logger.Debug("Launching browser")
	}
	if err := capturer.Launch(ctx, opts); err != nil {
		return tab, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		capturer.Close()
		s.logger.Debug("Browser closed")
	}()

	s.logger.Debug("Navigating to %s", url)
	if err := capturer.Navigate(url); err != nil {
		return tab, fmt.Errorf("navigate: %w", err)
	}

	quality := input.Quality
	if quality <= 0 {
		quality = 80
	}
	fps := input.FPS
	if fps <= 0 {
		fps = 30
	}

	s.logger.Debug("Starting screencast")
	frames, err := capturer.StartScreencast(quality, fps)
	if err != nil {
		return tab, fmt.Errorf("start screencast: %w", err)
	}

	sink, err := s.newSink()
	if err != nil {
		return tab, fmt.Errorf("create sink: %w", err)
	}
	defer sink.Close()

	recordCtx, cancel := context.WithTimeout(ctx, time.Duration(input.DurationMs)*time.Millisecond)
	defer cancel()

	navStart := time.Now()
	frameCount := 0
	lastPTS := -1.0
	begun := false

collect:
	for {
		select {
		case <-recordCtx.Done():
			break collect
		case frame, ok := <-frames:
			if !ok {
				break collect
			}

			img, err := jpeg.Decode(bytes.NewReader(frame.Data))
			if err != nil {
				// Corrupt frame from the wire, skip it
				continue
			}

			if !begun {
				b := img.Bounds()
				if err := sink.Begin(b.Dx(), b.Dy(), fps, ports.SinkOptions{Quality: quality}); err != nil {
					return tab, fmt.Errorf("begin encode: %w", err)
				}
				begun = true
			}

			pts := float64(frame.TimestampMs) / 1000
			if pts <= lastPTS {
				continue
			}
			if err := sink.Push(img, pts); err != nil {
				return tab, fmt.Errorf("encode frame: %w", err)
			}
			lastPTS = pts

			if saveDebug && s.debug.Enabled() {
				s.debug.SaveCaptureFrame(frameCount, frame.Data)
			}
			frameCount++
		}
	}

	capturer.StopScreencast()
	s.logger.Debug("Captured %d frames from %s", frameCount, url)

	if !begun {
		s.logger.Warn("No frames captured for %s", url)
		return tab, fmt.Errorf("no frames captured")
	}

	data, err := sink.Finish()
	if err != nil {
		return tab, fmt.Errorf("finalize encode: %w", err)
	}

	tab.Data = data
	tab.MimeType = sink.MimeType()
	tab.FrameCount = frameCount
	tab.DurationMs = int(time.Since(navStart).Milliseconds())
	s.logger.Debug("Recording completed in %d ms", tab.DurationMs)
	return tab, nil
}

var _ pipeline.Stage[pipeline.RecordInput, pipeline.RecordResult] = (*Stage)(nil)
