package session

import (
	"context"
	"image"
	"io"
	"testing"
	"time"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

func TestManager_RejectsConcurrentSessions(t *testing.T) {
	env := newTestEnv(nil, 0)

	release := make(chan struct{})
	env.source.NextFunc = func() (*ports.SourceFrame, error) {
		select {
		case <-release:
			return nil, io.EOF
		default:
			return &ports.SourceFrame{
				Image: image.NewRGBA(image.Rect(0, 0, 64, 48)),
				PTS:   0,
				Dur:   0.04,
			}, nil
		}
	}

	m := NewManager(env.deps(), env.logger)

	first, err := m.Start(testConfig())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		first.Run(context.Background())
		close(done)
	}()

	// Wait for the first session to leave Idle.
	deadline := time.After(2 * time.Second)
	for first.State() == StateIdle {
		select {
		case <-deadline:
			t.Fatal("session never started")
		case <-time.After(time.Millisecond):
		}
	}

	if _, err := m.Start(testConfig()); !pipeline.IsKind(err, pipeline.KindAlreadyRunning) {
		t.Errorf("expected already_running error, got %v", err)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first session did not finish")
	}

	// The slot frees once the first session is terminal.
	if _, err := m.Start(testConfig()); err != nil {
		t.Errorf("expected start to succeed after first session ended, got %v", err)
	}
}

func TestManager_RunClearsActiveSlot(t *testing.T) {
	env := newTestEnv(sourceFrames(2, 0.04), 0.08)
	m := NewManager(env.deps(), env.logger)

	if _, err := m.Run(context.Background(), testConfig()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if m.Active() != nil {
		t.Error("expected the active slot to be cleared")
	}
}

func TestManager_CancelTargetsActiveSession(t *testing.T) {
	env := newTestEnv(nil, 0)
	env.source.NextFunc = func() (*ports.SourceFrame, error) {
		return &ports.SourceFrame{
			Image: image.NewRGBA(image.Rect(0, 0, 64, 48)),
			PTS:   0,
			Dur:   0.04,
		}, nil
	}

	m := NewManager(env.deps(), env.logger)
	s, err := m.Start(testConfig())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	m.Cancel()

	select {
	case err := <-done:
		if !pipeline.IsKind(err, pipeline.KindCancelled) {
			t.Errorf("expected cancelled error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop after manager cancel")
	}
}

func TestManager_CancelWithoutActiveSessionIsNoop(t *testing.T) {
	env := newTestEnv(nil, 0)
	m := NewManager(env.deps(), env.logger)
	m.Cancel()
}
