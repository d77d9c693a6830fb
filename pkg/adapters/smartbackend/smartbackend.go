// Package smartbackend selects a raster transform backend, preferring the
// accelerated path and falling back to the CPU path when it is unavailable.
package smartbackend

import (
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/cpubackend"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/vipsbackend"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Factory creates an accelerated backend. It returns a backend_unavailable
// error when the accelerated context cannot be created.
type Factory func() (ports.TransformBackend, error)

// Info describes the outcome of backend selection.
type Info struct {
	// Active is the name of the backend in use.
	Active string
	// Requested is the name of the preferred backend.
	Requested string
	// FallbackUsed indicates the CPU fallback replaced the requested backend.
	FallbackUsed bool
}

// Select tries the accelerated factory first. Any initialization error is
// recovered locally by falling back to the CPU backend; it is never surfaced
// to the caller as a failure.
func Select(accel Factory, logger ports.Logger) (ports.TransformBackend, Info) {
	backend, err := accel()
	if err == nil {
		return backend, Info{Active: backend.Name(), Requested: backend.Name()}
	}

	if logger != nil {
		logger.Warn("Accelerated backend unavailable, using CPU fallback: %s", err)
	}
	cpu := cpubackend.New()
	return cpu, Info{Active: cpu.Name(), Requested: "vips", FallbackUsed: true}
}

// Default selects with the libvips accelerated backend.
func Default(logger ports.Logger) (ports.TransformBackend, Info) {
	return Select(func() (ports.TransformBackend, error) {
		return vipsbackend.New()
	}, logger)
}

// CPUOnly skips accelerated selection entirely.
func CPUOnly() (ports.TransformBackend, Info) {
	cpu := cpubackend.New()
	return cpu, Info{Active: cpu.Name(), Requested: cpu.Name()}
}
