package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"avatard/internal/gpu"
)

// Engine is the memory-aware inference scheduler: it owns the operating
// tier, the residency of model components, single-flight admission and
// the end-to-end execution of one generation request at a time.
type Engine struct {
	mu      sync.RWMutex
	state   State
	lastErr string

	tier      Tier
	baseCfg   RunConfig
	overrides Overrides

	residency  *Residency
	monitor    *Monitor
	gate       *Gate
	pipeline   Pipeline
	muxer      Muxer
	probe      gpu.Probe
	collective Collective
	publisher  EventPublisher
	log        zerolog.Logger

	memoryFraction float64
	cleanupEvery   int

	// Request-scoped accounting. Mutated only under mu.
	requestsSinceCleanup int
	generations          uint64
	oomRecoveries        uint64
	busyRejections       uint64

	startTime time.Time
}

// Tier returns the operating tier selected at construction.
func (e *Engine) Tier() Tier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tier
}

// BaseConfig returns the resolved baseline run configuration.
func (e *Engine) BaseConfig() RunConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.baseCfg
}

// Residency exposes the residency manager for placement inspection.
func (e *Engine) Residency() *Residency { return e.residency }

// Ready reports whether the engine can accept requests.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state != StateError
}

func (e *Engine) setState(s State, errMsg string) {
	e.mu.Lock()
	e.state = s
	if errMsg != "" {
		e.lastErr = errMsg
	}
	e.mu.Unlock()
}

// ResetResidency puts every component back into the resting placement of
// the baseline configuration. Called at startup and shutdown.
func (e *Engine) ResetResidency(ctx context.Context) {
	e.residency.ResetToResting(ctx, e.BaseConfig())
}

// Close returns every component to host memory and runs a final cleanup.
func (e *Engine) Close() error {
	ctx := context.Background()
	e.residency.ReleaseAllExcept(ctx, nil)
	e.monitor.standardCleanup()
	return nil
}
