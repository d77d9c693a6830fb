package session

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/smartbackend"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/smartsink"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/smartsource"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/framecache"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/mocks"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// sourceFrames builds n frames of the given duration each.
func sourceFrames(n int, frameDur float64) []*ports.SourceFrame {
	frames := make([]*ports.SourceFrame, n)
	for i := range frames {
		frames[i] = &ports.SourceFrame{
			Image: image.NewRGBA(image.Rect(0, 0, 64, 48)),
			PTS:   float64(i) * frameDur,
			Dur:   frameDur,
		}
	}
	return frames
}

type testEnv struct {
	source  *mocks.FrameSource
	sink    *mocks.EncodeSink
	backend *mocks.TransformBackend
	cache   *framecache.Cache
	logger  *mocks.Logger
}

func (e *testEnv) deps() Deps {
	return Deps{
		OpenSource: func(ctx context.Context, path string) (ports.FrameSource, smartsource.Info, error) {
			return e.source, smartsource.Info{Codec: "mjpeg", Backend: smartsource.BackendNative}, nil
		},
		Negotiate: func(prefs []string, logger ports.Logger) (ports.EncodeSink, smartsink.Info, error) {
			return e.sink, smartsink.Info{Negotiated: "mjpeg", MimeType: e.sink.MimeType()}, nil
		},
		Backend: func(logger ports.Logger) (ports.TransformBackend, smartbackend.Info) {
			return e.backend, smartbackend.Info{Active: e.backend.Name()}
		},
		Cache: e.cache,
		Debug: mocks.NewDebugSink(false),
	}
}

func newTestEnv(frames []*ports.SourceFrame, duration float64) *testEnv {
	return &testEnv{
		source:  &mocks.FrameSource{Width: 64, Height: 48, TotalSec: duration, Frames: frames},
		sink:    &mocks.EncodeSink{Output: []byte("encoded"), Mime: `video/mp4; codecs="jpeg"`},
		backend: &mocks.TransformBackend{BackendName: "cpu"},
		cache:   framecache.New(10),
		logger:  mocks.NewLogger(),
	}
}

// testConfig selects the left half of the source at a fast test rate.
func testConfig() Config {
	return Config{
		InputPath:     "recording.mp4",
		Selection:     pipeline.DisplayRect{X: 0, Y: 0, Width: 50, Height: 50},
		DisplayWidth:  100,
		DisplayHeight: 100,
		FPS:           250,
		Quality:       80,
	}
}

func TestSession_CompletesWithMonotonicProgress(t *testing.T) {
	env := newTestEnv(sourceFrames(5, 0.04), 0.2)
	s := New(testConfig(), env.deps(), env.logger)

	var mu sync.Mutex
	var seen []int
	s.OnProgress(func(pct int) {
		mu.Lock()
		seen = append(seen, pct)
		mu.Unlock()
	})

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if s.State() != StateCompleted {
		t.Errorf("expected completed state, got %s", s.State())
	}
	if string(result.Data) != "encoded" {
		t.Error("expected sink output in result")
	}
	if result.OutputSize.Width != 32 || result.OutputSize.Height != 24 {
		t.Errorf("expected 32x24 output, got %dx%d", result.OutputSize.Width, result.OutputSize.Height)
	}
	if result.Backend != "cpu" || result.Codec != "mjpeg" {
		t.Errorf("unexpected diagnostics %q %q", result.Backend, result.Codec)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatal("expected progress callbacks")
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("progress not monotonic: %v", seen)
		}
	}
	if seen[len(seen)-1] != 100 {
		t.Errorf("expected final progress 100, got %d", seen[len(seen)-1])
	}
	if s.Progress() != 100 {
		t.Errorf("expected progress 100, got %d", s.Progress())
	}
}

func TestSession_ReleasesResources(t *testing.T) {
	env := newTestEnv(sourceFrames(3, 0.04), 0.12)
	s := New(testConfig(), env.deps(), env.logger)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if env.source.CloseCalls != 1 {
		t.Errorf("expected one source close, got %d", env.source.CloseCalls)
	}
	if env.backend.CloseCalls != 1 {
		t.Errorf("expected one backend close, got %d", env.backend.CloseCalls)
	}
	if env.cache.Len() != 0 {
		t.Errorf("expected cleared cache, got %d entries", env.cache.Len())
	}
	if !env.sink.Finished {
		t.Error("expected the sink to be finalized")
	}
	if env.sink.CloseCalls != 1 {
		t.Errorf("expected one sink close, got %d", env.sink.CloseCalls)
	}
}

func TestSession_ReleasesSinkOnFailure(t *testing.T) {
	env := newTestEnv(nil, 0)
	env.source.NextFunc = func() (*ports.SourceFrame, error) {
		return nil, pipeline.NewError(pipeline.KindLoad, "decode fault")
	}
	s := New(testConfig(), env.deps(), env.logger)

	if _, err := s.Run(context.Background()); err == nil {
		t.Fatal("expected the session to fail")
	}

	if env.sink.Finished {
		t.Error("Finish must not run on the failure path")
	}
	if env.sink.CloseCalls != 1 {
		t.Errorf("expected the sink to be released, got %d closes", env.sink.CloseCalls)
	}
}

func TestSession_SavesDebugArtifacts(t *testing.T) {
	env := newTestEnv(sourceFrames(3, 0.04), 0.12)
	deps := env.deps()
	debug := mocks.NewDebugSink(true)
	deps.Debug = debug

	s := New(testConfig(), deps, env.logger)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if debug.GeometryJSON == nil {
		t.Error("expected geometry to be saved")
	}
	if len(debug.CroppedFrames) != 3 {
		t.Errorf("expected 3 cropped frames, got %d", len(debug.CroppedFrames))
	}
	if debug.Preview == nil {
		t.Error("expected the crop marker preview to be saved")
	}
}

func TestSession_CacheReadThrough(t *testing.T) {
	// Two frames land in the same millisecond bucket: the second must hit
	// the cache instead of the backend.
	frames := []*ports.SourceFrame{
		{Image: image.NewRGBA(image.Rect(0, 0, 64, 48)), PTS: 0.0301, Dur: 0.0001},
		{Image: image.NewRGBA(image.Rect(0, 0, 64, 48)), PTS: 0.0302, Dur: 0.0001},
	}
	env := newTestEnv(frames, 0.1)
	s := New(testConfig(), env.deps(), env.logger)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if env.backend.TransformCalls != 1 {
		t.Errorf("expected 1 transform for 2 same-bucket frames, got %d", env.backend.TransformCalls)
	}
	if env.sink.PushCount() != 2 {
		t.Errorf("expected both frames pushed, got %d", env.sink.PushCount())
	}
}

func TestSession_InvalidCropFailsWithoutPullingFrames(t *testing.T) {
	env := newTestEnv(sourceFrames(3, 0.04), 0.12)
	cfg := testConfig()
	cfg.Selection = pipeline.DisplayRect{X: 10, Y: 10, Width: 0, Height: 0}
	s := New(cfg, env.deps(), env.logger)

	_, err := s.Run(context.Background())
	if !pipeline.IsKind(err, pipeline.KindInvalidCrop) {
		t.Fatalf("expected invalid_crop error, got %v", err)
	}
	if s.State() != StateFailed {
		t.Errorf("expected failed state, got %s", s.State())
	}
	if env.source.NextCalls != 0 {
		t.Errorf("expected no frame pulls, got %d", env.source.NextCalls)
	}
	if env.source.CloseCalls != 1 {
		t.Errorf("expected the source to be released, got %d closes", env.source.CloseCalls)
	}
}

func TestSession_EmptyOutputFails(t *testing.T) {
	env := newTestEnv(nil, 0)
	env.sink.Output = nil
	s := New(testConfig(), env.deps(), env.logger)

	_, err := s.Run(context.Background())
	if !pipeline.IsKind(err, pipeline.KindEmptyOutput) {
		t.Fatalf("expected empty_output error, got %v", err)
	}
	if s.State() != StateFailed {
		t.Errorf("expected failed state, got %s", s.State())
	}
}

func TestSession_CancelDuringRender(t *testing.T) {
	env := newTestEnv(nil, 0)

	var mu sync.Mutex
	pts := 0.0
	env.source.NextFunc = func() (*ports.SourceFrame, error) {
		mu.Lock()
		defer mu.Unlock()
		pts += 0.04
		return &ports.SourceFrame{
			Image: image.NewRGBA(image.Rect(0, 0, 64, 48)),
			PTS:   pts,
			Dur:   0.04,
		}, nil
	}

	s := New(testConfig(), env.deps(), env.logger)

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()

	// Wait until frames are flowing, then cancel.
	deadline := time.After(2 * time.Second)
	for env.sink.PushCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for frames")
		case <-time.After(time.Millisecond):
		}
	}
	s.Cancel()

	var err error
	select {
	case err = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if !pipeline.IsKind(err, pipeline.KindCancelled) {
		t.Errorf("expected cancelled error, got %v", err)
	}
	if s.State() != StateCancelled {
		t.Errorf("expected cancelled state, got %s", s.State())
	}

	// No further pulls once the session has terminated.
	calls := env.source.NextCalls
	time.Sleep(20 * time.Millisecond)
	if env.source.NextCalls != calls {
		t.Error("expected no frame pulls after cancellation")
	}
	if env.source.CloseCalls != 1 {
		t.Errorf("expected the source to be released, got %d closes", env.source.CloseCalls)
	}
	if env.sink.CloseCalls != 1 {
		t.Errorf("expected the sink to be released, got %d closes", env.sink.CloseCalls)
	}
}

func TestSession_ContextCancellation(t *testing.T) {
	env := newTestEnv(nil, 0)
	env.source.NextFunc = func() (*ports.SourceFrame, error) {
		return &ports.SourceFrame{Image: image.NewRGBA(image.Rect(0, 0, 64, 48)), PTS: 0, Dur: 0.04}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := New(testConfig(), env.deps(), env.logger)

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(ctx)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !pipeline.IsKind(err, pipeline.KindCancelled) {
			t.Errorf("expected cancelled error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestSession_SourceErrorFails(t *testing.T) {
	env := newTestEnv(nil, 0)
	env.source.NextFunc = func() (*ports.SourceFrame, error) {
		return nil, pipeline.NewError(pipeline.KindLoad, "decode fault")
	}
	s := New(testConfig(), env.deps(), env.logger)

	_, err := s.Run(context.Background())
	if !pipeline.IsKind(err, pipeline.KindLoad) {
		t.Errorf("expected load error, got %v", err)
	}
	if s.State() != StateFailed {
		t.Errorf("expected failed state, got %s", s.State())
	}
}

func TestSession_UnknownDurationKeepsProgressBelow100UntilDone(t *testing.T) {
	// A fragmented foreign file may not declare a duration; progress must
	// still end at exactly 100 on success.
	env := newTestEnv(sourceFrames(3, 0.04), 0)
	s := New(testConfig(), env.deps(), env.logger)

	var mu sync.Mutex
	var seen []int
	s.OnProgress(func(pct int) {
		mu.Lock()
		seen = append(seen, pct)
		mu.Unlock()
	})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, pct := range seen[:len(seen)-1] {
		if pct >= 100 {
			t.Errorf("intermediate progress reached %d", pct)
		}
	}
	if seen[len(seen)-1] != 100 {
		t.Errorf("expected final progress 100, got %v", seen)
	}
}

func TestSession_RunTwiceFails(t *testing.T) {
	env := newTestEnv(sourceFrames(1, 0.04), 0.04)
	s := New(testConfig(), env.deps(), env.logger)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if _, err := s.Run(context.Background()); err == nil {
		t.Error("expected error on second Run")
	}
}
