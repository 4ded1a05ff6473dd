package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "avatard",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Completed generation requests by terminal status",
		},
		[]string{"status"},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "avatard",
			Subsystem: "engine",
			Name:      "generation_duration_seconds",
			Help:      "End-to-end duration of generation requests",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	oomRecoveriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "avatard",
			Subsystem: "engine",
			Name:      "oom_recoveries_total",
			Help:      "Generations that succeeded after an emergency downgrade",
		},
	)

	cleanupPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "avatard",
			Subsystem: "engine",
			Name:      "cleanup_passes_total",
			Help:      "Memory cleanup passes by kind",
		},
		[]string{"kind"},
	)

	vramAllocatedBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "avatard",
			Subsystem: "engine",
			Name:      "vram_allocated_bytes",
			Help:      "Accelerator memory allocated at the last checkpoint",
		},
	)

	vramCapacityBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "avatard",
			Subsystem: "engine",
			Name:      "vram_capacity_bytes",
			Help:      "Total accelerator memory capacity",
		},
	)
)

func init() {
	prometheus.MustRegister(
		generationsTotal,
		generationDuration,
		oomRecoveriesTotal,
		cleanupPassesTotal,
		vramAllocatedBytes,
		vramCapacityBytes,
	)
}
