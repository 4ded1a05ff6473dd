package engine

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Stage component requirements. Preprocessing touches the encoders and
// the face aligner; the model invocation needs the transformer and VAE.
var (
	preprocessComponents = map[Component]bool{
		ComponentTextEncoder:  true,
		ComponentAudioEncoder: true,
		ComponentFaceAligner:  true,
	}
	inferComponents = map[Component]bool{
		ComponentTransformer: true,
		ComponentVAE:         true,
	}
)

// Generate executes one request end-to-end. It never returns an error:
// every failure is converted into a typed Result so the serving layer
// always receives a well-formed outcome. At most one Generate runs at a
// time; concurrent calls are rejected immediately with rejected_busy.
func (e *Engine) Generate(ctx context.Context, req Request) Result {
	if !e.gate.TryEnter() {
		e.mu.Lock()
		e.busyRejections++
		e.mu.Unlock()
		generationsTotal.WithLabelValues(string(StatusRejectedBusy)).Inc()
		e.publisher.Publish(Event{Name: "request_rejected_busy"})
		return Result{Status: StatusRejectedBusy, Message: "broken"}
	}

	start := time.Now()
	cfg := ResolveConfig(e.Tier(), e.overrides, e.log)
	e.setState(StateGenerating, "")

	// Scoped-release guarantee: permit, resting placement and a standard
	// cleanup on every exit path, success or failure.
	defer func() {
		e.residency.ResetToResting(context.WithoutCancel(ctx), cfg)
		e.monitor.standardCleanup()
		e.setState(StateIdle, "")
		e.gate.Leave()
	}()

	res := e.run(ctx, req, cfg)

	e.mu.Lock()
	e.generations++
	if res.Status == StatusOOMRecovered {
		e.oomRecoveries++
	}
	if !res.Succeeded() {
		e.lastErr = res.Message
	}
	e.requestsSinceCleanup++
	periodic := e.requestsSinceCleanup >= e.cleanupEvery
	if periodic {
		e.requestsSinceCleanup = 0
	}
	e.mu.Unlock()

	if periodic {
		e.monitor.Checkpoint(context.WithoutCancel(ctx), "periodic", nil)
	}

	generationsTotal.WithLabelValues(string(res.Status)).Inc()
	generationDuration.Observe(time.Since(start).Seconds())
	e.log.Info().Str("status", string(res.Status)).Dur("dur", time.Since(start)).Msg("generation finished")
	return res
}

// run drives the request state machine: Validating → Preprocessing →
// Resident → Inferring → PostProcessing. Every stage failure maps to a
// terminal status; when a process group exists, any failure before the
// broadcast point still broadcasts a sentinel so workers never hang.
func (e *Engine) run(ctx context.Context, req Request, cfg RunConfig) Result {
	// Validating
	if err := validateRequest(&req); err != nil {
		e.broadcastNoop(ctx)
		return Result{Status: StatusInvalidInput, Message: err.Error()}
	}
	e.publisher.Publish(Event{Name: "request_admitted"})

	// Preprocessing
	e.checkpoint(ctx, "before_preprocess", preprocessComponents)
	if err := e.ensureStage(ctx, preprocessComponents, cfg); err != nil {
		e.broadcastNoop(ctx)
		return Result{Status: StatusOOMFatal, Message: err.Error()}
	}
	batch, err := e.pipeline.Preprocess(ctx, req)
	if err != nil {
		// Preprocess failures are assumed non-transient; no retry.
		e.broadcastNoop(ctx)
		return Result{Status: StatusPreprocessFailed, Message: fmt.Sprintf("preprocess: %v", err)}
	}
	if batch.FrameRate <= 0 {
		batch.FrameRate = req.FrameRate
	}
	if max := float64(cfg.MaxAudioSeconds); batch.AudioSeconds > max {
		e.log.Info().Float64("audio_seconds", batch.AudioSeconds).Int("cap", cfg.MaxAudioSeconds).
			Msg("driving audio exceeds tier cap, truncating")
		batch.AudioSeconds = max
	}

	// Resident: the inference stage's components move in, everything else
	// moves out per the offload policy. Applied once per request, here.
	e.checkpoint(ctx, "before_load", inferComponents)
	if err := e.ensureStage(ctx, inferComponents, cfg); err != nil {
		e.broadcastNoop(ctx)
		return Result{Status: StatusOOMFatal, Message: err.Error()}
	}
	e.checkpoint(ctx, "after_load", inferComponents)

	// Inferring, with the bounded single-retry OOM recovery.
	frames, status, msg := e.invoke(ctx, batch, cfg)
	if frames == nil {
		return Result{Status: status, Message: msg}
	}

	// PostProcessing: audio length is the source of truth for trimming.
	frames.Truncate(batch.AudioFrames())
	video, err := e.muxer.Mux(ctx, frames, req.AudioPath, batch.FrameRate)
	if err != nil {
		return Result{Status: StatusGenerationFailed, Message: fmt.Sprintf("mux: %v", err)}
	}
	msgOut := "succeed"
	if status == StatusOOMRecovered {
		msgOut = "succeed (quality reduced after memory recovery)"
	}
	return Result{Status: status, Video: video, Message: msgOut}
}

// invoke runs the model invocation through the collective barrier. On
// accelerator OOM it performs an emergency cleanup, downgrades the
// configuration and retries exactly once; a second OOM, or an OOM while
// already at the floor, is fatal.
func (e *Engine) invoke(ctx context.Context, batch *Batch, cfg RunConfig) (*FrameSet, Status, string) {
	frames, err := e.generateCollective(ctx, batch, cfg)
	if err == nil {
		e.checkpoint(ctx, "after_inference", inferComponents)
		return frames, StatusOK, ""
	}
	if !IsAcceleratorOOM(err) {
		return nil, StatusGenerationFailed, fmt.Sprintf("generate: %v", err)
	}

	e.publisher.Publish(Event{Name: "oom_detected", Fields: map[string]any{"resolution": cfg.Resolution}})
	e.monitor.React(ctx, PressureCritical, inferComponents)

	retryCfg, ok := emergencyDowngrade(cfg)
	if !ok {
		return nil, StatusOOMFatal, fmt.Sprintf("generate: %v (already at minimum configuration)", err)
	}
	e.log.Warn().Int("resolution", retryCfg.Resolution).Int("clip_length", retryCfg.ClipLength).
		Msg("emergency downgrade, retrying once")

	frames, err = e.generateCollective(ctx, batch, retryCfg)
	if err != nil {
		// The retry budget is exactly one attempt; any failure here ends
		// the request.
		return nil, StatusOOMFatal, fmt.Sprintf("generate after downgrade: %v", err)
	}
	e.publisher.Publish(Event{Name: "oom_recovered", Fields: map[string]any{"resolution": retryCfg.Resolution}})
	oomRecoveriesTotal.Inc()
	e.checkpoint(ctx, "after_inference", inferComponents)
	return frames, StatusOOMRecovered, ""
}

// generateCollective broadcasts the batch to the process group and runs
// the invocation. In a single-process world the broadcast is a no-op.
func (e *Engine) generateCollective(ctx context.Context, batch *Batch, cfg RunConfig) (*FrameSet, error) {
	e.checkpoint(ctx, "before_inference", inferComponents)
	p := &Payload{Batch: batch, Config: cfg}
	if _, err := e.collective.Broadcast(ctx, p); err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}
	return e.pipeline.Generate(ctx, batch, cfg)
}

// broadcastNoop keeps the process group from deadlocking when rank 0
// fails before the broadcast point: the other ranks receive a sentinel
// and skip the round.
func (e *Engine) broadcastNoop(ctx context.Context) {
	if e.collective.WorldSize() <= 1 {
		return
	}
	if _, err := e.collective.Broadcast(context.WithoutCancel(ctx), &Payload{Noop: true}); err != nil {
		e.log.Error().Err(err).Msg("sentinel broadcast failed, workers may stall")
	}
}

// ensureStage moves the stage's components onto the accelerator and
// releases every other component per the offload policy.
func (e *Engine) ensureStage(ctx context.Context, need map[Component]bool, cfg RunConfig) error {
	if cfg.CPUOffload {
		e.residency.ReleaseAllExcept(ctx, need)
	}
	for _, c := range Components() {
		if !need[c] {
			continue
		}
		if err := e.residency.EnsureResident(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// checkpoint runs one monitor checkpoint and records the VRAM gauges.
func (e *Engine) checkpoint(ctx context.Context, stage string, pinned map[Component]bool) {
	s := e.monitor.Sample()
	vramAllocatedBytes.Set(float64(s.AllocatedBytes))
	e.monitor.React(ctx, e.monitor.PressureLevelOf(s), pinned)
}

// validateRequest checks the reference inputs before any model placement
// changes are made, and applies the frame-rate default.
func validateRequest(req *Request) error {
	if req.FrameRate <= 0 {
		req.FrameRate = defaultFrameRate
	}
	if req.ImagePath == "" {
		return ErrInvalidInput("reference image path is required")
	}
	if req.AudioPath == "" {
		return ErrInvalidInput("driving audio path is required")
	}
	if _, err := os.Stat(req.ImagePath); err != nil {
		return ErrInvalidInput(fmt.Sprintf("reference image unreadable: %v", err))
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return ErrInvalidInput(fmt.Sprintf("driving audio unreadable: %v", err))
	}
	return nil
}
