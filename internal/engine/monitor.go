package engine

import (
	"context"

	"github.com/rs/zerolog"

	"avatard/internal/gpu"
)

// PressureLevel classifies accelerator memory pressure.
type PressureLevel string

const (
	PressureNormal   PressureLevel = "normal"
	PressureElevated PressureLevel = "elevated"
	PressureCritical PressureLevel = "critical"
)

// Usage-fraction thresholds for pressure classification.
const (
	elevatedUsageFraction = 0.75
	criticalUsageFraction = 0.85
)

// Monitor samples accelerator memory and reacts to pressure. It is driven
// synchronously by the executor at fixed checkpoints; there is no
// background timer, so behavior stays deterministic and testable.
// Pressure is measured against the share of the card this process is
// permitted to claim (memoryFraction), not the raw capacity.
type Monitor struct {
	probe          gpu.Probe
	residency      *Residency
	cleaner        Cleaner
	memoryFraction float64
	log            zerolog.Logger
}

func newMonitor(probe gpu.Probe, residency *Residency, cleaner Cleaner, memoryFraction float64, log zerolog.Logger) *Monitor {
	if memoryFraction <= 0 || memoryFraction > 1 {
		memoryFraction = 1
	}
	return &Monitor{probe: probe, residency: residency, cleaner: cleaner, memoryFraction: memoryFraction, log: log}
}

// Sample takes a best-effort memory snapshot. A probe failure yields a
// zero sample rather than an error surface; pressure on a zero sample is
// normal, which is the conservative no-op reaction.
func (m *Monitor) Sample() gpu.MemorySample {
	s, err := m.probe.Sample()
	if err != nil {
		m.log.Debug().Err(err).Msg("memory sample failed")
		return gpu.MemorySample{}
	}
	return s
}

// PressureLevelOf classifies a sample by the fraction of the permitted
// memory share in use: allocated over memoryFraction times capacity.
func (m *Monitor) PressureLevelOf(s gpu.MemorySample) PressureLevel {
	var frac float64
	if s.CapacityBytes > 0 {
		frac = float64(s.AllocatedBytes) / (m.memoryFraction * float64(s.CapacityBytes))
	}
	switch {
	case frac > criticalUsageFraction:
		return PressureCritical
	case frac >= elevatedUsageFraction:
		return PressureElevated
	default:
		return PressureNormal
	}
}

// React performs the cleanup appropriate to the pressure level. pinned
// names the components required by the in-flight stage; on critical
// pressure everything else is forced off the accelerator.
func (m *Monitor) React(ctx context.Context, level PressureLevel, pinned map[Component]bool) {
	switch level {
	case PressureNormal:
	case PressureElevated:
		m.standardCleanup()
	case PressureCritical:
		m.log.Warn().Msg("critical accelerator memory pressure, emergency cleanup")
		m.emergencyCleanup(ctx, pinned)
	}
}

// Checkpoint samples, classifies and reacts in one step. Returns the
// observed level so callers can record it.
func (m *Monitor) Checkpoint(ctx context.Context, stage string, pinned map[Component]bool) PressureLevel {
	s := m.Sample()
	level := m.PressureLevelOf(s)
	if level != PressureNormal {
		m.log.Info().Str("stage", stage).Str("pressure", string(level)).
			Uint64("allocated", s.AllocatedBytes).Uint64("capacity", s.CapacityBytes).
			Msg("memory checkpoint")
	}
	m.React(ctx, level, pinned)
	return level
}

// standardCleanup is one cache release plus one GC pass.
func (m *Monitor) standardCleanup() {
	m.cleaner.ReleaseCache()
	m.cleaner.CollectGarbage()
	cleanupPassesTotal.WithLabelValues("standard").Inc()
}

// emergencyCleanup runs multiple GC passes and forces every component not
// pinned by the in-flight stage off the accelerator.
func (m *Monitor) emergencyCleanup(ctx context.Context, pinned map[Component]bool) {
	m.cleaner.ReleaseCache()
	for i := 0; i < 3; i++ {
		m.cleaner.CollectGarbage()
	}
	m.residency.ReleaseAllExcept(ctx, pinned)
	m.cleaner.ReleaseCache()
	cleanupPassesTotal.WithLabelValues("emergency").Inc()
}
