package engine

// Tier is a discrete bucket of accelerator capability. Tiers are totally
// ordered by capability; the order below is ascending.
type Tier string

const (
	TierCPUOnly         Tier = "cpu_only"
	TierUltraMinimal    Tier = "ultra_minimal"
	TierUltraLow        Tier = "ultra_low"
	TierLow             Tier = "low"
	TierBalanced        Tier = "balanced"
	TierHighPerformance Tier = "high_performance"
	TierMaximumQuality  Tier = "maximum_quality"
)

// tierOrder lists all tiers ascending by capability.
var tierOrder = []Tier{
	TierCPUOnly,
	TierUltraMinimal,
	TierUltraLow,
	TierLow,
	TierBalanced,
	TierHighPerformance,
	TierMaximumQuality,
}

// Tiers returns all tiers ascending by capability.
func Tiers() []Tier {
	out := make([]Tier, len(tierOrder))
	copy(out, tierOrder)
	return out
}

// rank returns the position of t in the capability order, or -1.
func (t Tier) rank() int {
	for i, o := range tierOrder {
		if o == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t is a known tier name.
func (t Tier) Valid() bool { return t.rank() >= 0 }

// Less reports whether t is strictly less capable than other.
func (t Tier) Less(other Tier) bool { return t.rank() < other.rank() }

// Capacity thresholds for tier classification, ascending.
const (
	gib                    = uint64(1) << 30
	capUltraMinimal        = 6 * gib
	capUltraLow            = 8 * gib
	capLow                 = 12 * gib
	capBalanced            = 16 * gib
	capHighPerformance     = 24 * gib
	severePressureFreeByte = 2 * gib
)

// ClassifyTier buckets total accelerator capacity into an operating tier.
// hasAccelerator=false always yields cpu_only. When freeBytes is known
// (freeKnown) and indicates severe live pressure, the nominal tier is
// downgraded by one step, never below ultra_minimal while an accelerator
// is present.
func ClassifyTier(capacityBytes uint64, hasAccelerator bool, freeBytes uint64, freeKnown bool) Tier {
	if !hasAccelerator {
		return TierCPUOnly
	}
	if capacityBytes == 0 {
		// Accelerator present but capacity unreadable: most conservative
		// accelerator tier.
		return TierUltraMinimal
	}
	var t Tier
	switch {
	case capacityBytes <= capUltraMinimal:
		t = TierUltraMinimal
	case capacityBytes <= capUltraLow:
		t = TierUltraLow
	case capacityBytes <= capLow:
		t = TierLow
	case capacityBytes <= capBalanced:
		t = TierBalanced
	case capacityBytes <= capHighPerformance:
		t = TierHighPerformance
	default:
		t = TierMaximumQuality
	}
	if freeKnown && freeBytes < severePressureFreeByte {
		t = downgradeTier(t)
	}
	return t
}

// downgradeTier steps one tier down, stopping at ultra_minimal. cpu_only
// is a deployment mode, not a pressure response.
func downgradeTier(t Tier) Tier {
	r := t.rank()
	if r <= TierUltraMinimal.rank() {
		return TierUltraMinimal
	}
	return tierOrder[r-1]
}
