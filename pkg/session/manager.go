package session

import (
	"context"
	"sync"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Manager enforces the single-active-session rule. Starting a session while
// another is still live fails with an already_running error; finished
// sessions free their slot for the next one.
type Manager struct {
	deps   Deps
	logger ports.Logger

	mu     sync.Mutex
	active *Session
}

// NewManager creates a manager sharing one set of collaborators across
// sessions. The frame cache in deps is reused (and cleared) per session.
func NewManager(deps Deps, logger ports.Logger) *Manager {
	deps.Logger = logger
	deps.fillDefaults()
	return &Manager{deps: deps, logger: logger}
}

// Start creates and registers a session. The caller drives it with Run.
func (m *Manager) Start(cfg Config) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && !m.active.State().Terminal() {
		return nil, pipeline.NewError(pipeline.KindAlreadyRunning,
			"a crop session is already running")
	}

	s := New(cfg, m.deps, m.logger)
	m.active = s
	return s, nil
}

// Run starts a session and drives it to completion.
func (m *Manager) Run(ctx context.Context, cfg Config) (pipeline.CropResult, error) {
	s, err := m.Start(cfg)
	if err != nil {
		return pipeline.CropResult{}, err
	}
	defer m.clear(s)
	return s.Run(ctx)
}

// Active returns the registered session, terminal or not, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Cancel cancels the active session, if any.
func (m *Manager) Cancel() {
	if s := m.Active(); s != nil {
		s.Cancel()
	}
}

func (m *Manager) clear(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == s {
		m.active = nil
	}
}
