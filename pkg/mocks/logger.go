package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Logger is a mock implementation of ports.Logger that records messages.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

// NewLogger creates a new mock Logger.
func NewLogger() *Logger {
	return &Logger{}
}

func (m *Logger) record(level, msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, level+": "+fmt.Sprintf(msg, args...))
}

func (m *Logger) Debug(msg string, args ...interface{}) { m.record("DEBUG", msg, args...) }
func (m *Logger) Info(msg string, args ...interface{})  { m.record("INFO", msg, args...) }
func (m *Logger) Warn(msg string, args ...interface{})  { m.record("WARN", msg, args...) }
func (m *Logger) Error(msg string, args ...interface{}) { m.record("ERROR", msg, args...) }

// WithComponent returns the same logger so tests see all messages.
func (m *Logger) WithComponent(component string) ports.Logger {
	return m
}

// Contains reports whether any recorded message contains substr.
func (m *Logger) Contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.Messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

var _ ports.Logger = (*Logger)(nil)
