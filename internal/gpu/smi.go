package gpu

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const smiTimeout = 5 * time.Second

// SMIProbe queries accelerator memory through the nvidia-smi tool. It keeps
// the capacity from the first successful query so that Capacity stays cheap
// and stable for the life of the process.
type SMIProbe struct {
	bin      string
	capacity uint64
	probed   bool
}

// NewSMIProbe returns a probe backed by the given nvidia-smi binary
// (empty means "nvidia-smi" from PATH). It performs one detection query;
// if that fails the probe reports no accelerator rather than an error.
func NewSMIProbe(bin string) *SMIProbe {
	if bin == "" {
		bin = "nvidia-smi"
	}
	p := &SMIProbe{bin: bin}
	if s, err := p.Sample(); err == nil && s.CapacityBytes > 0 {
		p.capacity = s.CapacityBytes
		p.probed = true
	}
	return p
}

func (p *SMIProbe) Capacity() (uint64, bool) {
	return p.capacity, p.probed
}

// Sample runs one nvidia-smi query. Only the first device is considered;
// multi-device placement is the collective layer's concern, not the probe's.
func (p *SMIProbe) Sample() (MemorySample, error) {
	ctx, cancel := context.WithTimeout(context.Background(), smiTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, p.bin,
		"--query-gpu=memory.total,memory.used,memory.reserved",
		"--format=csv,noheader,nounits", "--id=0").Output()
	if err != nil {
		return MemorySample{}, fmt.Errorf("nvidia-smi query: %w", err)
	}
	line := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return MemorySample{}, fmt.Errorf("nvidia-smi query: unexpected output %q", line)
	}
	total, err := parseMiB(fields[0])
	if err != nil {
		return MemorySample{}, err
	}
	used, err := parseMiB(fields[1])
	if err != nil {
		return MemorySample{}, err
	}
	s := MemorySample{
		AllocatedBytes: used,
		ReservedBytes:  used,
		CapacityBytes:  total,
		At:             time.Now(),
	}
	if len(fields) >= 3 {
		if res, err := parseMiB(fields[2]); err == nil {
			s.ReservedBytes = used + res
		}
	}
	return s, nil
}

func parseMiB(s string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("nvidia-smi query: parse %q: %w", s, err)
	}
	return n * 1024 * 1024, nil
}
