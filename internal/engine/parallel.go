package engine

import (
	"context"
	"fmt"
)

// Payload is the unit broadcast from rank 0 to all ranks before a
// collective model invocation. Noop marks a sentinel broadcast: rank 0
// failed before the broadcast point and the other ranks must skip this
// round instead of hanging in the collective wait.
type Payload struct {
	Batch  *Batch
	Config RunConfig
	Noop   bool
}

// Collective abstracts the process group used in accelerator-parallel
// deployments. Rank 0 calls Broadcast with a payload; every other rank
// calls Broadcast with nil and receives rank 0's payload. The broadcast
// is a synchronization barrier: all ranks must reach it.
type Collective interface {
	Rank() int
	WorldSize() int
	Broadcast(ctx context.Context, p *Payload) (*Payload, error)
}

// singleProcessCollective is the degenerate world of size 1. Broadcast
// returns the payload untouched; there is nobody to synchronize with.
type singleProcessCollective struct{}

// SingleProcess returns the collective for single-process deployments.
func SingleProcess() Collective { return singleProcessCollective{} }

func (singleProcessCollective) Rank() int      { return 0 }
func (singleProcessCollective) WorldSize() int { return 1 }

func (singleProcessCollective) Broadcast(_ context.Context, p *Payload) (*Payload, error) {
	return p, nil
}

// channelCollective is an in-process collective over Go channels, used by
// tests and by multi-goroutine deployments sharing one address space.
// Each non-zero rank owns its own channel so every broadcast round
// reaches every rank exactly once, no matter how fast an individual
// rank drains its mailbox.
type channelCollective struct {
	rank  int
	world int
	chs   []chan *Payload
}

// NewChannelCollective builds a world of the given size. Index i of the
// returned slice is rank i; rank 0 fans out to a dedicated channel per
// worker rank.
func NewChannelCollective(world int) []Collective {
	if world < 1 {
		world = 1
	}
	chs := make([]chan *Payload, world-1)
	for i := range chs {
		chs[i] = make(chan *Payload, 1)
	}
	out := make([]Collective, world)
	for i := 0; i < world; i++ {
		out[i] = &channelCollective{rank: i, world: world, chs: chs}
	}
	return out
}

func (c *channelCollective) Rank() int      { return c.rank }
func (c *channelCollective) WorldSize() int { return c.world }

func (c *channelCollective) Broadcast(ctx context.Context, p *Payload) (*Payload, error) {
	if c.rank == 0 {
		if p == nil {
			return nil, fmt.Errorf("broadcast: rank 0 must supply a payload")
		}
		for _, ch := range c.chs {
			select {
			case ch <- p:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return p, nil
	}
	select {
	case got := <-c.chs[c.rank-1]:
		return got, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RunWorker is the loop executed by non-zero ranks: block in the
// collective wait, skip sentinel rounds, run the model invocation
// together with rank 0, repeat. Returns when the context is canceled.
func (e *Engine) RunWorker(ctx context.Context) error {
	if e.collective.Rank() == 0 {
		return fmt.Errorf("run worker: rank 0 drives requests, not the worker loop")
	}
	for {
		p, err := e.collective.Broadcast(ctx, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("worker broadcast: %w", err)
		}
		if p == nil || p.Noop {
			continue
		}
		if _, err := e.pipeline.Generate(ctx, p.Batch, p.Config); err != nil {
			// Rank 0 owns error reporting; workers just keep the
			// collective moving.
			e.log.Warn().Err(err).Int("rank", e.collective.Rank()).Msg("worker invocation failed")
		}
	}
}
