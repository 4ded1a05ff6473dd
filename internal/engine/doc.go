// Package engine provides the memory-aware inference scheduler for the
// avatar video pipeline. It is structured into small files by concern:
//
//   - engine.go: core Engine type, state accessors, shutdown.
//   - config.go: EngineConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: component/placement/status types and the request/batch shapes.
//   - tiers.go: operating-tier ordering and capacity classification.
//   - runconfig.go: per-tier baseline configurations, override clamping and
//     the emergency downgrade used for OOM recovery.
//   - residency.go: placement of model components across accelerator and
//     host memory, with forced cleanup after every move.
//   - monitor.go: checkpoint-driven memory sampling and pressure reactions.
//   - admission.go: the single-flight admission gate.
//   - executor.go: the per-request state machine (validate, preprocess,
//     make resident, invoke with single-retry OOM recovery, post-process).
//   - parallel.go: the collective broadcast barrier for multi-rank
//     deployments and the non-zero-rank worker loop.
//   - adapter_iface.go: the Pipeline/Mover/Cleaner/Muxer collaborator
//     interfaces and their no-op defaults.
//   - errors.go: error types and predicates (IsBusy, IsAcceleratorOOM, ...).
//   - metrics.go: prometheus counters, histograms and gauges.
//   - events.go / eventpub_memory.go: lifecycle event publishing.
//   - status_report.go: /status projection.
//
// The generative model itself is opaque to this package: it arrives as the
// Pipeline interface, device transfers as Mover, cache/GC control as
// Cleaner and video assembly as Muxer. External packages should construct
// the engine via NewWithConfig and drive it through Generate, Status,
// Ready and RunWorker.
package engine
