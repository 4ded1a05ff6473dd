package engine

import "testing"

func TestClassifyTierByCapacity(t *testing.T) {
	cases := []struct {
		name     string
		capacity uint64
		hasAccel bool
		want     Tier
	}{
		{"no accelerator", 0, false, TierCPUOnly},
		{"no accelerator big capacity", 32 * gib, false, TierCPUOnly},
		{"unreadable capacity", 0, true, TierUltraMinimal},
		{"4gb", 4 * gib, true, TierUltraMinimal},
		{"6gb boundary", 6 * gib, true, TierUltraMinimal},
		{"8gb boundary", 8 * gib, true, TierUltraLow},
		{"10gb", 10 * gib, true, TierLow},
		{"12gb boundary", 12 * gib, true, TierLow},
		{"16gb boundary", 16 * gib, true, TierBalanced},
		{"24gb boundary", 24 * gib, true, TierHighPerformance},
		{"48gb", 48 * gib, true, TierMaximumQuality},
	}
	for _, c := range cases {
		got := ClassifyTier(c.capacity, c.hasAccel, 0, false)
		if got != c.want {
			t.Fatalf("%s: ClassifyTier=%s, want %s", c.name, got, c.want)
		}
	}
}

func TestClassifyTierSeverePressureDowngrade(t *testing.T) {
	// 16 GB card with only 1.5 GB free steps one tier down.
	got := ClassifyTier(16*gib, true, gib+gib/2, true)
	if got != TierLow {
		t.Fatalf("pressured 16gb: got %s, want %s", got, TierLow)
	}
	// Plenty free: no downgrade.
	got = ClassifyTier(16*gib, true, 10*gib, true)
	if got != TierBalanced {
		t.Fatalf("unpressured 16gb: got %s, want %s", got, TierBalanced)
	}
	// Downgrade never goes below ultra_minimal while an accelerator exists.
	got = ClassifyTier(4*gib, true, 0, true)
	if got != TierUltraMinimal {
		t.Fatalf("pressured 4gb: got %s, want %s", got, TierUltraMinimal)
	}
}

func TestClassifyTierNeverInvalid(t *testing.T) {
	// Classification must always return a known tier, for any input.
	caps := []uint64{0, 1, gib, 6 * gib, 8 * gib, 100 * gib, ^uint64(0)}
	frees := []uint64{0, gib, 50 * gib}
	for _, cp := range caps {
		for _, fr := range frees {
			for _, accel := range []bool{true, false} {
				for _, known := range []bool{true, false} {
					got := ClassifyTier(cp, accel, fr, known)
					if !got.Valid() {
						t.Fatalf("ClassifyTier(%d,%v,%d,%v)=%q is not a valid tier", cp, accel, fr, known, got)
					}
				}
			}
		}
	}
}

func TestTierOrdering(t *testing.T) {
	tiers := Tiers()
	if len(tiers) != 7 {
		t.Fatalf("got %d tiers, want 7", len(tiers))
	}
	for i := 1; i < len(tiers); i++ {
		if !tiers[i-1].Less(tiers[i]) {
			t.Fatalf("%s should be less capable than %s", tiers[i-1], tiers[i])
		}
	}
	if Tier("turbo").Valid() {
		t.Fatalf("unknown tier reported valid")
	}
}

func TestDowngradeTierFloor(t *testing.T) {
	if got := downgradeTier(TierBalanced); got != TierLow {
		t.Fatalf("downgrade balanced: got %s, want %s", got, TierLow)
	}
	if got := downgradeTier(TierUltraMinimal); got != TierUltraMinimal {
		t.Fatalf("downgrade ultra_minimal: got %s, want %s", got, TierUltraMinimal)
	}
	if got := downgradeTier(TierCPUOnly); got != TierUltraMinimal {
		t.Fatalf("downgrade cpu_only: got %s, want %s", got, TierUltraMinimal)
	}
}
