package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"avatard/internal/gpu"
)

// DefaultMemoryFraction is the share of accelerator memory the process
// may claim when no cap is configured.
const DefaultMemoryFraction = 0.85

// Defaults applied when corresponding EngineConfig fields are unset.
const (
	defaultCleanupInterval = 5
	defaultFrameRate       = 25
)

// EngineConfig encapsulates all tunables and collaborators for Engine
// construction. Zero-valued fields get package defaults.
type EngineConfig struct {
	// Collaborators. Pipeline and Muxer are required for generation;
	// Probe, Mover, Cleaner, Collective and Publisher default to no-ops.
	Probe      gpu.Probe
	Pipeline   Pipeline
	Mover      Mover
	Cleaner    Cleaner
	Muxer      Muxer
	Collective Collective
	Publisher  EventPublisher

	// ForcedTier pins the operating tier instead of auto-detection.
	ForcedTier Tier
	// Overrides are deployment-level run-configuration overrides,
	// clamped per tier at resolve time.
	Overrides Overrides
	// MemoryFraction caps the share of accelerator memory the process
	// may claim. Clamped to (0,1]; default 0.85.
	MemoryFraction float64
	// CleanupInterval triggers a periodic monitor checkpoint every N
	// processed requests. Default 5.
	CleanupInterval int

	Logger zerolog.Logger
}

// NewWithConfig constructs an Engine from EngineConfig: classifies the
// operating tier once, resolves the baseline run configuration and puts
// every component into its resting placement.
func NewWithConfig(cfg EngineConfig) *Engine {
	if cfg.Probe == nil {
		cfg.Probe = gpu.NullProbe{}
	}
	if cfg.Mover == nil {
		cfg.Mover = noopMover{}
	}
	if cfg.Cleaner == nil {
		cfg.Cleaner = noopCleaner{}
	}
	if cfg.Collective == nil {
		cfg.Collective = SingleProcess()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	if cfg.MemoryFraction <= 0 || cfg.MemoryFraction > 1 {
		cfg.MemoryFraction = DefaultMemoryFraction
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}

	e := &Engine{
		state:          StateIdle,
		pipeline:       cfg.Pipeline,
		muxer:          cfg.Muxer,
		probe:          cfg.Probe,
		collective:     cfg.Collective,
		publisher:      cfg.Publisher,
		gate:           newGate(),
		overrides:      cfg.Overrides,
		memoryFraction: cfg.MemoryFraction,
		cleanupEvery:   cfg.CleanupInterval,
		log:            cfg.Logger,
		startTime:      time.Now(),
	}
	e.residency = newResidency(cfg.Mover, cfg.Cleaner, cfg.Publisher, cfg.Logger)
	e.monitor = newMonitor(cfg.Probe, e.residency, cfg.Cleaner, cfg.MemoryFraction, cfg.Logger)

	e.tier = e.selectTier(cfg.ForcedTier)
	e.baseCfg = ResolveConfig(e.tier, e.overrides, e.log)
	e.ResetResidency(context.Background())
	if cap, ok := cfg.Probe.Capacity(); ok {
		vramCapacityBytes.Set(float64(cap))
	}
	e.publisher.Publish(Event{Name: "tier_selected", Fields: map[string]any{"tier": string(e.tier)}})
	e.log.Info().Str("tier", string(e.tier)).
		Int("resolution", e.baseCfg.Resolution).
		Int("clip_length", e.baseCfg.ClipLength).
		Int("steps", e.baseCfg.Steps).
		Bool("cpu_offload", e.baseCfg.CPUOffload).
		Msg("operating tier selected")
	return e
}

// selectTier applies the forced override or classifies from the probe.
// Never panics: a failed probe classifies to the most conservative tier.
func (e *Engine) selectTier(forced Tier) Tier {
	if forced != "" && forced.Valid() {
		return forced
	}
	capBytes, hasAccel := e.probe.Capacity()
	if !hasAccel {
		return TierCPUOnly
	}
	s, err := e.probe.Sample()
	if err != nil {
		return ClassifyTier(capBytes, true, 0, false)
	}
	return ClassifyTier(capBytes, true, s.FreeBytes(), true)
}
