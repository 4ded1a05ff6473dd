package engine

import (
	"context"
	"errors"
	"testing"
)

func TestResidencyEnsureResident(t *testing.T) {
	mv := &fakeMover{}
	cl := &countingCleaner{}
	r := newResidency(mv, cl, noopPublisher{}, testLogger())
	ctx := context.Background()

	// All components start accelerator-resident: ensure is a no-op.
	if err := r.EnsureResident(ctx, ComponentTransformer); err != nil {
		t.Fatal(err)
	}
	if len(mv.toAccel) != 0 {
		t.Fatalf("ensure on resident component moved anyway: %v", mv.toAccel)
	}

	// After a release, ensure moves it back and cleans up.
	if err := r.Release(ctx, ComponentTransformer, nil); err != nil {
		t.Fatal(err)
	}
	if r.Placement(ComponentTransformer) != OnHost {
		t.Fatalf("placement after release: %s", r.Placement(ComponentTransformer))
	}
	if err := r.EnsureResident(ctx, ComponentTransformer); err != nil {
		t.Fatal(err)
	}
	if r.Placement(ComponentTransformer) != OnAccelerator {
		t.Fatalf("placement after ensure: %s", r.Placement(ComponentTransformer))
	}
	rel, gcs := cl.counts()
	if rel != 2 || gcs != 2 {
		t.Fatalf("cleanup after moves: releases=%d gcs=%d, want 2/2", rel, gcs)
	}
}

func TestResidencyReleaseKeepsPinned(t *testing.T) {
	mv := &fakeMover{}
	r := newResidency(mv, &countingCleaner{}, noopPublisher{}, testLogger())
	ctx := context.Background()

	keep := map[Component]bool{ComponentTransformer: true, ComponentVAE: true}
	r.ReleaseAllExcept(ctx, keep)

	for _, c := range Components() {
		want := OnHost
		if keep[c] {
			want = OnAccelerator
		}
		if got := r.Placement(c); got != want {
			t.Fatalf("%s: placement %s, want %s", c, got, want)
		}
	}
}

func TestResidencyMoveFailureIsScoped(t *testing.T) {
	boom := errors.New("cuda transfer failed")
	mv := &fakeMover{failMove: map[Component]error{ComponentVAE: boom}}
	r := newResidency(mv, &countingCleaner{}, noopPublisher{}, testLogger())
	ctx := context.Background()

	// A sweep skips the failing component and still offloads the rest.
	r.ReleaseAllExcept(ctx, nil)
	if r.Placement(ComponentVAE) != OnAccelerator {
		t.Fatalf("failed move must leave the component resident")
	}
	if r.Placement(ComponentTransformer) != OnHost {
		t.Fatalf("sweep aborted early on failure")
	}

	// A direct ensure surfaces a typed residency error naming the component.
	r.setPlacement(ComponentVAE, OnHost)
	err := r.EnsureResident(ctx, ComponentVAE)
	if err == nil || !IsResidencyFailure(err) {
		t.Fatalf("want residency error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("residency error must wrap the cause, got %v", err)
	}
}

func TestResidencyRestingPlacement(t *testing.T) {
	mv := &fakeMover{}
	r := newResidency(mv, &countingCleaner{}, noopPublisher{}, testLogger())
	ctx := context.Background()

	offloaded := RunConfig{CPUOffload: true}
	r.ResetToResting(ctx, offloaded)
	for _, c := range Components() {
		if r.Placement(c) != OnHost {
			t.Fatalf("offload resting: %s still on accelerator", c)
		}
	}

	resident := RunConfig{CPUOffload: false}
	r.ResetToResting(ctx, resident)
	for _, c := range Components() {
		if r.Placement(c) != OnAccelerator {
			t.Fatalf("resident resting: %s still on host", c)
		}
	}
}

func TestOffloadPolicy(t *testing.T) {
	r := newResidency(&fakeMover{}, &countingCleaner{}, noopPublisher{}, testLogger())
	if got := r.OffloadPolicy(RunConfig{CPUOffload: false}); len(got) != 0 {
		t.Fatalf("no-offload policy offloads %v", got)
	}
	got := r.OffloadPolicy(RunConfig{CPUOffload: true})
	if len(got) != len(Components()) {
		t.Fatalf("offload policy covers %d components, want %d", len(got), len(Components()))
	}
}
