package gpu

import (
	"time"
)

// MemorySample is a point-in-time snapshot of accelerator memory.
// Samples are best-effort and never persisted.
type MemorySample struct {
	AllocatedBytes uint64
	ReservedBytes  uint64
	CapacityBytes  uint64
	At             time.Time
}

// UsageFraction returns allocated/capacity, or 0 when capacity is unknown.
func (s MemorySample) UsageFraction() float64 {
	if s.CapacityBytes == 0 {
		return 0
	}
	return float64(s.AllocatedBytes) / float64(s.CapacityBytes)
}

// FreeBytes returns capacity minus reserved memory.
func (s MemorySample) FreeBytes() uint64 {
	if s.ReservedBytes > s.CapacityBytes {
		return 0
	}
	return s.CapacityBytes - s.ReservedBytes
}

// Probe reports accelerator memory capacity and live usage.
//
// Capacity returns ok=false when no accelerator is present or detection
// failed; callers must treat that as "capacity unknown" rather than zero.
// Implementations must not panic: any detection failure is expressed
// through the ok flag or the Sample error.
type Probe interface {
	Capacity() (bytes uint64, ok bool)
	Sample() (MemorySample, error)
}

// NullProbe is the probe used when no accelerator is available.
type NullProbe struct{}

func (NullProbe) Capacity() (uint64, bool) { return 0, false }

func (NullProbe) Sample() (MemorySample, error) {
	return MemorySample{At: time.Now()}, nil
}

// StaticProbe reports fixed values. Used by tests and by deployments that
// pin capacity through configuration instead of live detection.
type StaticProbe struct {
	CapacityBytes  uint64
	AllocatedBytes uint64
	ReservedBytes  uint64
	// Err, when set, is returned by Sample to simulate detection failures.
	Err error
}

func (p *StaticProbe) Capacity() (uint64, bool) {
	if p.CapacityBytes == 0 {
		return 0, false
	}
	return p.CapacityBytes, true
}

func (p *StaticProbe) Sample() (MemorySample, error) {
	if p.Err != nil {
		return MemorySample{}, p.Err
	}
	return MemorySample{
		AllocatedBytes: p.AllocatedBytes,
		ReservedBytes:  p.ReservedBytes,
		CapacityBytes:  p.CapacityBytes,
		At:             time.Now(),
	}, nil
}
