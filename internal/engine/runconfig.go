package engine

import (
	"github.com/rs/zerolog"
)

// Precision selects the numeric precision of model weights.
type Precision string

const (
	PrecisionInt8 Precision = "int8"
	PrecisionHalf Precision = "half"
	PrecisionFull Precision = "full"
)

// RunConfig is the concrete, internally consistent configuration one
// generation runs with. Derived from a tier; higher tiers never carry a
// strictly worse value on any field.
type RunConfig struct {
	Resolution      int
	ClipLength      int
	Steps           int
	GuidanceScale   float64
	BatchSize       int
	Precision       Precision
	CPUOffload      bool
	MaxAudioSeconds int
}

// Emergency downgrade bounds. The resolution floor equals the smallest
// tier's resolution; clip length is clamped to a conservative ceiling on
// retry.
const (
	minResolution    = 128
	emergencyClipCap = 64
)

// baselines maps each tier to its baseline run configuration.
var baselines = map[Tier]RunConfig{
	TierCPUOnly:         {Resolution: 128, ClipLength: 8, Steps: 10, GuidanceScale: 7.5, BatchSize: 1, Precision: PrecisionInt8, CPUOffload: true, MaxAudioSeconds: 4},
	TierUltraMinimal:    {Resolution: 192, ClipLength: 12, Steps: 15, GuidanceScale: 7.5, BatchSize: 1, Precision: PrecisionInt8, CPUOffload: true, MaxAudioSeconds: 6},
	TierUltraLow:        {Resolution: 256, ClipLength: 16, Steps: 20, GuidanceScale: 7.5, BatchSize: 1, Precision: PrecisionHalf, CPUOffload: true, MaxAudioSeconds: 10},
	TierLow:             {Resolution: 384, ClipLength: 32, Steps: 25, GuidanceScale: 7.5, BatchSize: 1, Precision: PrecisionHalf, CPUOffload: true, MaxAudioSeconds: 15},
	TierBalanced:        {Resolution: 512, ClipLength: 64, Steps: 30, GuidanceScale: 7.5, BatchSize: 1, Precision: PrecisionHalf, CPUOffload: false, MaxAudioSeconds: 30},
	TierHighPerformance: {Resolution: 640, ClipLength: 96, Steps: 40, GuidanceScale: 7.5, BatchSize: 2, Precision: PrecisionHalf, CPUOffload: false, MaxAudioSeconds: 45},
	TierMaximumQuality:  {Resolution: 704, ClipLength: 129, Steps: 50, GuidanceScale: 7.5, BatchSize: 2, Precision: PrecisionFull, CPUOffload: false, MaxAudioSeconds: 60},
}

// Overrides carries per-request or deployment-level configuration
// overrides. Zero values mean "not overridden". ForceOffload only ever
// turns offloading on; it never disables a tier's own offload policy.
type Overrides struct {
	Resolution      int
	ClipLength      int
	Steps           int
	BatchSize       int
	MaxAudioSeconds int
	ForceOffload    bool
}

// ResolveConfig maps a tier plus optional overrides to a RunConfig.
// Unknown tiers resolve to the cpu_only baseline. Each overridden field
// is validated against the tier ceiling and clamped to the nearest valid
// value; clamping is logged, never an error. Pure and deterministic.
func ResolveConfig(tier Tier, ov Overrides, log zerolog.Logger) RunConfig {
	base, ok := baselines[tier]
	if !ok {
		base = baselines[TierCPUOnly]
	}
	cfg := base
	cfg.Resolution = clampField(log, tier, "resolution", ov.Resolution, minResolution, base.Resolution)
	cfg.ClipLength = clampField(log, tier, "clip_length", ov.ClipLength, 1, base.ClipLength)
	cfg.Steps = clampField(log, tier, "steps", ov.Steps, 1, base.Steps)
	cfg.BatchSize = clampField(log, tier, "batch_size", ov.BatchSize, 1, base.BatchSize)
	cfg.MaxAudioSeconds = clampField(log, tier, "max_audio_seconds", ov.MaxAudioSeconds, 1, base.MaxAudioSeconds)
	if ov.ForceOffload {
		cfg.CPUOffload = true
	}
	return cfg
}

// clampField applies one override bounded by [floor, ceiling]. A zero
// override keeps the baseline value (which doubles as the ceiling).
func clampField(log zerolog.Logger, tier Tier, name string, v, floor, ceiling int) int {
	if v <= 0 {
		return ceiling
	}
	if v > ceiling {
		log.Warn().Str("tier", string(tier)).Str("field", name).
			Int("requested", v).Int("clamped", ceiling).
			Msg("override exceeds tier ceiling, clamping")
		return ceiling
	}
	if v < floor {
		log.Warn().Str("tier", string(tier)).Str("field", name).
			Int("requested", v).Int("clamped", floor).
			Msg("override below floor, clamping")
		return floor
	}
	return v
}

// emergencyDowngrade derives the retry configuration after an accelerator
// OOM: halve the resolution down to the floor and cap the clip length.
// Returns ok=false when the configuration is already at the floor, in
// which case no retry is attempted.
func emergencyDowngrade(cfg RunConfig) (RunConfig, bool) {
	atFloor := cfg.Resolution <= minResolution && cfg.ClipLength <= emergencyClipCap
	if atFloor {
		return cfg, false
	}
	out := cfg
	out.Resolution = cfg.Resolution / 2
	if out.Resolution < minResolution {
		out.Resolution = minResolution
	}
	if out.ClipLength > emergencyClipCap {
		out.ClipLength = emergencyClipCap
	}
	if out.MaxAudioSeconds > emergencyClipCap/8 {
		out.MaxAudioSeconds = emergencyClipCap / 8
	}
	out.CPUOffload = true
	return out, true
}
