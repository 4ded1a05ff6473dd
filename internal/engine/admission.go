package engine

import "golang.org/x/sync/semaphore"

// Gate is the single-flight admission gate: one permit, non-blocking
// acquisition, immediate rejection of concurrent requests. Backpressure
// is pushed to the caller; the gate never queues.
type Gate struct {
	sem *semaphore.Weighted
}

func newGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// TryEnter attempts a non-blocking acquire of the single permit.
func (g *Gate) TryEnter() bool {
	return g.sem.TryAcquire(1)
}

// Leave releases the permit. Must be called exactly once per successful
// TryEnter, on every exit path.
func (g *Gate) Leave() {
	g.sem.Release(1)
}
