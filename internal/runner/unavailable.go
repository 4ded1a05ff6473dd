package runner

import (
	"context"
	"errors"
	"fmt"

	"avatard/internal/engine"
)

// ErrRuntimeUnavailable is returned by Unavailable for every operation.
// It lets the daemon start and serve status endpoints on hosts that have
// no model runtime installed.
var ErrRuntimeUnavailable = errors.New("model runtime unavailable: no runner binary configured")

// Unavailable is a Pipeline that rejects all work. Moves and cleanup are
// no-ops so residency bookkeeping still functions.
type Unavailable struct{}

func (Unavailable) Preprocess(context.Context, engine.Request) (*engine.Batch, error) {
	return nil, fmt.Errorf("preprocess: %w", ErrRuntimeUnavailable)
}

func (Unavailable) Generate(context.Context, *engine.Batch, engine.RunConfig) (*engine.FrameSet, error) {
	return nil, fmt.Errorf("generate: %w", ErrRuntimeUnavailable)
}

func (Unavailable) MoveToAccelerator(context.Context, engine.Component) error { return nil }

func (Unavailable) MoveToHost(context.Context, engine.Component) error { return nil }

func (Unavailable) ReleaseCache() {}

func (Unavailable) CollectGarbage() {}

// IsRuntimeUnavailable reports whether err stems from a missing runtime.
func IsRuntimeUnavailable(err error) bool {
	return errors.Is(err, ErrRuntimeUnavailable)
}
