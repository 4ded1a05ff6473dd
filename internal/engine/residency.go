package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Residency owns the placement of model components across accelerator and
// host memory. Placements are mutated only through Ensure/Release (and the
// resting reset), only while the caller holds the admission permit; the
// internal mutex exists so /status can read placements concurrently.
type Residency struct {
	mu         sync.RWMutex
	placements map[Component]Placement
	mover      Mover
	cleaner    Cleaner
	publisher  EventPublisher
	log        zerolog.Logger
}

// newResidency creates placements for every component. Default placement
// is accelerator-resident unless the offload policy says otherwise; the
// executor applies the resting placement right after construction.
func newResidency(mover Mover, cleaner Cleaner, pub EventPublisher, log zerolog.Logger) *Residency {
	r := &Residency{
		placements: make(map[Component]Placement, len(Components())),
		mover:      mover,
		cleaner:    cleaner,
		publisher:  pub,
		log:        log,
	}
	for _, c := range Components() {
		r.placements[c] = OnAccelerator
	}
	return r
}

// Placement returns the current placement of one component.
func (r *Residency) Placement(c Component) Placement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.placements[c]
}

// Placements returns a snapshot of all placements.
func (r *Residency) Placements() map[Component]Placement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Component]Placement, len(r.placements))
	for c, p := range r.placements {
		out[c] = p
	}
	return out
}

// EnsureResident moves a component onto the accelerator if it is not
// already there. No-op when already resident. A failed move is fatal for
// the current request only and carries the component id.
func (r *Residency) EnsureResident(ctx context.Context, c Component) error {
	if r.Placement(c) == OnAccelerator {
		return nil
	}
	if err := r.mover.MoveToAccelerator(ctx, c); err != nil {
		return residencyError{component: c, err: err}
	}
	r.setPlacement(c, OnAccelerator)
	r.cleanupAfterMove()
	r.publisher.Publish(Event{Name: "component_loaded", Fields: map[string]any{"component": string(c)}})
	return nil
}

// Release moves a component to host memory unless its id is in keep.
// Used to free accelerator memory for a subsequent stage.
func (r *Residency) Release(ctx context.Context, c Component, keep map[Component]bool) error {
	if keep[c] || r.Placement(c) == OnHost {
		return nil
	}
	if err := r.mover.MoveToHost(ctx, c); err != nil {
		return residencyError{component: c, err: err}
	}
	r.setPlacement(c, OnHost)
	r.cleanupAfterMove()
	r.publisher.Publish(Event{Name: "component_offloaded", Fields: map[string]any{"component": string(c)}})
	return nil
}

// ReleaseAllExcept offloads every component not in keep. Move failures
// during a release sweep are logged and skipped: leaving a component on
// the accelerator is strictly safer than aborting the sweep.
func (r *Residency) ReleaseAllExcept(ctx context.Context, keep map[Component]bool) {
	for _, c := range Components() {
		if err := r.Release(ctx, c, keep); err != nil {
			r.log.Warn().Err(err).Str("component", string(c)).Msg("release failed, component stays resident")
		}
	}
}

// OffloadPolicy returns the set of components that rest on host memory
// between requests under the given configuration: all of them when cpu
// offload is on, none otherwise.
func (r *Residency) OffloadPolicy(cfg RunConfig) map[Component]bool {
	out := make(map[Component]bool, len(Components()))
	if !cfg.CPUOffload {
		return out
	}
	for _, c := range Components() {
		out[c] = true
	}
	return out
}

// ResetToResting restores every component to its resting placement under
// cfg. Called on every executor exit path regardless of outcome.
func (r *Residency) ResetToResting(ctx context.Context, cfg RunConfig) {
	offload := r.OffloadPolicy(cfg)
	for _, c := range Components() {
		var err error
		if offload[c] {
			err = r.Release(ctx, c, nil)
		} else {
			err = r.EnsureResident(ctx, c)
		}
		if err != nil {
			r.log.Warn().Err(err).Str("component", string(c)).Msg("resting placement reset failed")
		}
	}
}

func (r *Residency) setPlacement(c Component, p Placement) {
	r.mu.Lock()
	r.placements[c] = p
	r.mu.Unlock()
}

// cleanupAfterMove forces a cache release and one GC pass after every
// placement change. Pessimistic on purpose: it costs throughput but bounds
// worst-case fragmentation across many sequential requests.
func (r *Residency) cleanupAfterMove() {
	r.cleaner.ReleaseCache()
	r.cleaner.CollectGarbage()
}
