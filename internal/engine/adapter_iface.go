package engine

import "context"

// Pipeline abstracts the generative model stack. The engine treats it as
// an opaque callable with a known resource profile; the diffusion model,
// tokenizer, audio feature extractor and face aligner all live behind it.
type Pipeline interface {
	// Preprocess extracts audio features, aligns the reference image and
	// tokenizes the prompt. Failures are assumed non-transient.
	Preprocess(ctx context.Context, req Request) (*Batch, error)
	// Generate runs the diffusion pipeline over a preprocessed batch with
	// the given configuration. An accelerator out-of-memory condition must
	// be reported as an error satisfying IsAcceleratorOOM.
	Generate(ctx context.Context, batch *Batch, cfg RunConfig) (*FrameSet, error)
}

// Mover performs the physical placement of one model component's weights.
// Implementations wrap the runtime's device-transfer primitive; the
// residency manager owns when moves happen, the Mover owns how.
type Mover interface {
	MoveToAccelerator(ctx context.Context, c Component) error
	MoveToHost(ctx context.Context, c Component) error
}

// Cleaner releases now-unreferenced accelerator buffers and runs a
// garbage-collection pass. Called after every move to bound fragmentation.
type Cleaner interface {
	ReleaseCache()
	CollectGarbage()
}

// Muxer combines generated frames with the original driving audio into a
// playable video via the external codec tool.
type Muxer interface {
	Mux(ctx context.Context, frames *FrameSet, audioPath string, fps int) ([]byte, error)
}

// noopCleaner is used when the runtime exposes no cache controls.
type noopCleaner struct{}

func (noopCleaner) ReleaseCache()   {}
func (noopCleaner) CollectGarbage() {}

// noopMover is used for host-only deployments where every component is
// permanently host-resident.
type noopMover struct{}

func (noopMover) MoveToAccelerator(context.Context, Component) error { return nil }
func (noopMover) MoveToHost(context.Context, Component) error        { return nil }
