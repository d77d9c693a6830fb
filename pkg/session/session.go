// Package session coordinates a crop re-encode from source load to encoded
// output.
//
// A session is a one-shot state machine:
//
//	Idle -> Loading -> Rendering -> Finalizing -> Completed
//
// Failed and Cancelled are reachable from any non-terminal state. All
// resources held by a session (decoder, transform backend, frame cache
// contents) are released exactly once, whichever way the session ends.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/nullsink"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/preview"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/smartbackend"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/smartsink"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/smartsource"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/framecache"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/stages/geometry"
)

// State is a session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateRendering
	StateFinalizing
	StateCompleted
	StateFailed
	StateCancelled
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateRendering:
		return "rendering"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Config describes one crop session.
type Config struct {
	InputPath string

	// Selection geometry in display space.
	Selection     pipeline.DisplayRect
	DisplayWidth  float64
	DisplayHeight float64
	AspectRatio   float64 // 0 means free-form

	FPS     float64
	Quality int
	Bitrate int

	// CodecPreferences is tried in order; empty uses the default order.
	CodecPreferences []string
}

// SourceOpener opens a frame source for a path.
type SourceOpener func(ctx context.Context, path string) (ports.FrameSource, smartsource.Info, error)

// SinkNegotiator selects an encode sink from codec preferences.
type SinkNegotiator func(prefs []string, logger ports.Logger) (ports.EncodeSink, smartsink.Info, error)

// BackendSelector picks a transform backend.
type BackendSelector func(logger ports.Logger) (ports.TransformBackend, smartbackend.Info)

// Deps carries the session's pluggable collaborators. Zero fields are filled
// with production defaults by New.
type Deps struct {
	OpenSource SourceOpener
	Negotiate  SinkNegotiator
	Backend    BackendSelector
	Cache      *framecache.Cache
	Debug      ports.DebugSink
	Logger     ports.Logger
}

func (d *Deps) fillDefaults() {
	if d.OpenSource == nil {
		d.OpenSource = smartsource.Open
	}
	if d.Negotiate == nil {
		d.Negotiate = func(prefs []string, logger ports.Logger) (ports.EncodeSink, smartsink.Info, error) {
			return smartsink.Negotiate(prefs, smartsink.Options{Logger: logger})
		}
	}
	if d.Backend == nil {
		d.Backend = smartbackend.Default
	}
	if d.Cache == nil {
		d.Cache = framecache.New(framecache.DefaultCapacity)
	}
	if d.Debug == nil {
		d.Debug = nullsink.New()
	}
}

// Session runs one crop re-encode.
type Session struct {
	cfg  Config
	deps Deps

	mu         sync.Mutex
	state      State
	progress   int
	onProgress func(int)
	started    bool

	cancelCh   chan struct{}
	cancelOnce sync.Once

	releaseOnce sync.Once
	source      ports.FrameSource
	backend     ports.TransformBackend
	sink        ports.EncodeSink
}

// New creates a session in the Idle state.
func New(cfg Config, deps Deps, logger ports.Logger) *Session {
	deps.Logger = logger
	deps.fillDefaults()

	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.Quality <= 0 {
		cfg.Quality = 80
	}

	return &Session{
		cfg:      cfg,
		deps:     deps,
		state:    StateIdle,
		cancelCh: make(chan struct{}),
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the current progress percentage, 0 to 100.
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// OnProgress registers a callback invoked on every progress change.
// Progress is monotonic and ends at exactly 100 on success.
func (s *Session) OnProgress(fn func(int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onProgress = fn
}

// Cancel requests cancellation. The session observes the request within one
// render iteration; Cancel itself never blocks.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.cancelCh)
	})
}

// Run drives the session to a terminal state. It may be called once.
func (s *Session) Run(ctx context.Context) (pipeline.CropResult, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return pipeline.CropResult{}, fmt.Errorf("session: already run")
	}
	s.started = true
	s.mu.Unlock()

	logger := s.componentLogger()
	defer s.release()

	result, err := s.run(ctx, logger)
	if err != nil {
		switch pipeline.KindOf(err) {
		case pipeline.KindCancelled:
			s.setState(StateCancelled)
			logger.Info("Session cancelled")
		default:
			s.setState(StateFailed)
			logger.Error("%s", err)
		}
		return pipeline.CropResult{}, err
	}

	s.setProgress(100)
	s.setState(StateCompleted)
	logger.Info("Session completed: %d bytes", len(result.Data))
	return result, nil
}

func (s *Session) run(ctx context.Context, logger ports.Logger) (pipeline.CropResult, error) {
	s.setState(StateLoading)
	logger.Info("Starting crop session for %s", s.cfg.InputPath)
	logger.Debug("Loading source video")

	if err := s.interrupted(ctx); err != nil {
		return pipeline.CropResult{}, err
	}

	source, srcInfo, err := s.deps.OpenSource(ctx, s.cfg.InputPath)
	if err != nil {
		return pipeline.CropResult{}, err
	}
	s.mu.Lock()
	s.source = source
	s.mu.Unlock()

	width, height := source.Bounds()
	duration := source.Duration()
	logger.Info("Source loaded: %dx%d, %.1fs", width, height, duration)
	logger.Debug("Negotiated codec: %s", srcInfo.Codec)

	// Geometry is resolved before any frame is pulled so an invalid
	// selection fails without decoding work.
	geo := geometry.NewStage()
	crop, err := geo.Execute(ctx, pipeline.GeometryInput{
		Selection:     s.cfg.Selection,
		DisplayWidth:  s.cfg.DisplayWidth,
		DisplayHeight: s.cfg.DisplayHeight,
		SourceWidth:   width,
		SourceHeight:  height,
		AspectRatio:   s.cfg.AspectRatio,
	})
	if err != nil {
		return pipeline.CropResult{}, err
	}

	if s.deps.Debug.Enabled() {
		if data, err := json.MarshalIndent(crop, "", "  "); err == nil {
			s.deps.Debug.SaveGeometryJSON(data)
		}
	}

	backend, backendInfo := s.deps.Backend(logger)
	s.mu.Lock()
	s.backend = backend
	s.mu.Unlock()
	logger.Info("Using %s transform backend", backendInfo.Active)

	sink, sinkInfo, err := s.deps.Negotiate(s.cfg.CodecPreferences, logger)
	if err != nil {
		return pipeline.CropResult{}, pipeline.WrapError(pipeline.KindEncode, err, "negotiate codec")
	}
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()

	if err := sink.Begin(crop.Width, crop.Height, s.cfg.FPS, ports.SinkOptions{
		Quality: s.cfg.Quality,
		Bitrate: s.cfg.Bitrate,
	}); err != nil {
		return pipeline.CropResult{}, pipeline.WrapError(pipeline.KindEncode, err, "begin encode")
	}

	if err := s.renderLoop(ctx, logger, source, backend, sink, crop, duration); err != nil {
		return pipeline.CropResult{}, err
	}

	s.setState(StateFinalizing)
	logger.Debug("Finalizing output")
	data, err := sink.Finish()
	if err != nil {
		return pipeline.CropResult{}, err
	}
	if len(data) == 0 {
		return pipeline.CropResult{}, pipeline.NewError(pipeline.KindEmptyOutput,
			"no frames were encoded")
	}

	durationMs := int(duration * 1000)
	return pipeline.CropResult{
		Data:       data,
		MimeType:   sink.MimeType(),
		Backend:    backendInfo.Active,
		Codec:      sinkInfo.Negotiated,
		DurationMs: durationMs,
		OutputSize: pipeline.Dimension{Width: crop.Width, Height: crop.Height},
	}, nil
}

// renderLoop pulls, transforms and encodes frames paced at the target rate.
// The ticker wait is the only suspension point, so cancellation takes effect
// within one iteration.
func (s *Session) renderLoop(ctx context.Context, logger ports.Logger, source ports.FrameSource,
	backend ports.TransformBackend, sink ports.EncodeSink, crop pipeline.CropRect, duration float64) error {

	s.setState(StateRendering)
	logger.Info("Rendering %dx%d crop at %.1f fps", crop.Width, crop.Height, s.cfg.FPS)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.cfg.FPS))
	defer ticker.Stop()

	frameIndex := 0
	for {
		select {
		case <-ctx.Done():
			return pipeline.WrapError(pipeline.KindCancelled, ctx.Err(), "session cancelled")
		case <-s.cancelCh:
			return pipeline.NewError(pipeline.KindCancelled, "session cancelled")
		case <-ticker.C:
		}

		frame, err := source.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		task := pipeline.NewFrameTask(frame.PTS, crop)
		cached, ok := s.deps.Cache.Get(task)
		if !ok {
			pixels, err := backend.Transform(frame.Image, crop.Bounds(), crop.Width, crop.Height)
			if err != nil {
				return err
			}
			cached = framecache.CachedFrame{Pixels: pixels, Width: crop.Width, Height: crop.Height}
			s.deps.Cache.Put(task, cached)
		}

		if err := sink.Push(cached.Pixels, frame.PTS); err != nil {
			return err
		}

		if s.deps.Debug.Enabled() {
			if frameIndex == 0 {
				if poster, err := preview.Render(frame.Image, crop, preview.DefaultOptions()); err == nil {
					s.deps.Debug.SavePreview(poster)
				}
			}
			s.deps.Debug.SaveCroppedFrame(frameIndex, cached.Pixels)
		}
		frameIndex++

		// Progress tracks presentation time. Sources without a declared
		// duration stay below 100 until finalization.
		if duration > 0 {
			pct := int(frame.PTS / duration * 100)
			if pct > 99 {
				pct = 99
			}
			s.setProgress(pct)
		}
	}
}

// interrupted maps an early cancellation to the load-phase error kind.
func (s *Session) interrupted(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return pipeline.WrapError(pipeline.KindCancelled, ctx.Err(), "session cancelled")
	case <-s.cancelCh:
		return pipeline.NewError(pipeline.KindCancelled, "session cancelled")
	default:
		return nil
	}
}

// release frees the decoder, the transform backend, the encode sink and the
// cache contents. Safe to call from any path; runs once. Closing the sink
// after a successful Finish is a no-op, so the terminal result is unaffected.
func (s *Session) release() {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		source := s.source
		backend := s.backend
		sink := s.sink
		s.mu.Unlock()

		if source != nil {
			source.Close()
		}
		if backend != nil {
			backend.Close()
		}
		if sink != nil {
			sink.Close()
		}
		s.deps.Cache.Clear()
	})
}

func (s *Session) componentLogger() ports.Logger {
	if s.deps.Logger == nil {
		return noopLogger{}
	}
	return s.deps.Logger.WithComponent("session")
}

// setState applies a transition unless the session already terminated.
func (s *Session) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = next
}

// setProgress raises the progress value; decreases are ignored so the
// reported value is monotonic.
func (s *Session) setProgress(pct int) {
	s.mu.Lock()
	if pct <= s.progress {
		s.mu.Unlock()
		return
	}
	s.progress = pct
	fn := s.onProgress
	s.mu.Unlock()

	if fn != nil {
		fn(pct)
	}
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...interface{}) {}
func (noopLogger) Info(msg string, args ...interface{})  {}
func (noopLogger) Warn(msg string, args ...interface{})  {}
func (noopLogger) Error(msg string, args ...interface{}) {}
func (noopLogger) WithComponent(string) ports.Logger     { return noopLogger{} }
