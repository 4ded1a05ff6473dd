package engine

import (
	"time"

	"avatard/pkg/types"
)

// Status builds a detailed status response for /status.
func (e *Engine) Status() types.StatusResponse {
	e.mu.RLock()
	resp := types.StatusResponse{
		State:               string(e.state),
		Tier:                string(e.tier),
		MemoryFraction:      e.memoryFraction,
		GenerationsTotal:    e.generations,
		OOMRecoveriesTotal:  e.oomRecoveries,
		BusyRejectionsTotal: e.busyRejections,
		LastError:           e.lastErr,
		UptimeSeconds:       int64(time.Since(e.startTime).Seconds()),
		ServerTimeUnix:      time.Now().Unix(),
	}
	cfg := e.baseCfg
	e.mu.RUnlock()

	resp.Config = types.RunConfigStatus{
		Resolution:      cfg.Resolution,
		ClipLength:      cfg.ClipLength,
		Steps:           cfg.Steps,
		GuidanceScale:   cfg.GuidanceScale,
		BatchSize:       cfg.BatchSize,
		Precision:       string(cfg.Precision),
		CPUOffload:      cfg.CPUOffload,
		MaxAudioSeconds: cfg.MaxAudioSeconds,
	}

	for _, c := range Components() {
		resp.Components = append(resp.Components, types.ComponentStatus{
			Component: string(c),
			Placement: string(e.residency.Placement(c)),
		})
	}

	if s := e.monitor.Sample(); s.CapacityBytes > 0 {
		resp.CapacityBytes = s.CapacityBytes
		resp.AllocatedBytes = s.AllocatedBytes
	}
	return resp
}
