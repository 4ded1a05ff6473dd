package engine

import (
	"context"
	"testing"

	"avatard/internal/gpu"
)

func TestEngineLifecycleEvents(t *testing.T) {
	pub := NewMemoryPublisher()
	e := NewWithConfig(EngineConfig{
		Probe:     &gpu.StaticProbe{CapacityBytes: 8 * gib, AllocatedBytes: gib},
		Pipeline:  &fakePipeline{},
		Mover:     &fakeMover{},
		Muxer:     &fakeMuxer{},
		Publisher: pub,
		Logger:    testLogger(),
	})

	names := pub.Names()
	var sawTier, sawOffload bool
	for _, n := range names {
		switch n {
		case "tier_selected":
			sawTier = true
		case "component_offloaded":
			sawOffload = true
		}
	}
	if !sawTier {
		t.Fatalf("construction published no tier_selected, got %v", names)
	}
	// ultra_low rests offloaded, so construction also moves components out.
	if !sawOffload {
		t.Fatalf("construction published no component_offloaded, got %v", names)
	}

	img, wav := writeTempMedia(t)
	res := e.Generate(context.Background(), Request{ImagePath: img, AudioPath: wav})
	if !res.Succeeded() {
		t.Fatalf("generate: %s (%s)", res.Status, res.Message)
	}
	var admitted bool
	for _, ev := range pub.Events() {
		if ev.Name == "request_admitted" {
			admitted = true
		}
	}
	if !admitted {
		t.Fatalf("no request_admitted event, got %v", pub.Names())
	}
}
