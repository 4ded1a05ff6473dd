package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"avatard/internal/gpu"
)

// fakeMover records placement moves and can be told to fail per component.
type fakeMover struct {
	mu       sync.Mutex
	toAccel  []Component
	toHost   []Component
	failMove map[Component]error
}

func (m *fakeMover) MoveToAccelerator(_ context.Context, c Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failMove[c]; err != nil {
		return err
	}
	m.toAccel = append(m.toAccel, c)
	return nil
}

func (m *fakeMover) MoveToHost(_ context.Context, c Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failMove[c]; err != nil {
		return err
	}
	m.toHost = append(m.toHost, c)
	return nil
}

// countingCleaner counts cache releases and GC passes.
type countingCleaner struct {
	mu       sync.Mutex
	releases int
	gcs      int
}

func (c *countingCleaner) ReleaseCache() {
	c.mu.Lock()
	c.releases++
	c.mu.Unlock()
}

func (c *countingCleaner) CollectGarbage() {
	c.mu.Lock()
	c.gcs++
	c.mu.Unlock()
}

func (c *countingCleaner) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releases, c.gcs
}

// fakePipeline scripts Preprocess and Generate per test.
type fakePipeline struct {
	mu            sync.Mutex
	preprocessErr error
	batch         *Batch
	generate      func(cfg RunConfig) (*FrameSet, error)
	generateCalls []RunConfig
}

func (p *fakePipeline) Preprocess(_ context.Context, req Request) (*Batch, error) {
	if p.preprocessErr != nil {
		return nil, p.preprocessErr
	}
	if p.batch != nil {
		b := *p.batch
		return &b, nil
	}
	return &Batch{AudioSeconds: 2, FrameRate: req.FrameRate}, nil
}

func (p *fakePipeline) Generate(_ context.Context, _ *Batch, cfg RunConfig) (*FrameSet, error) {
	p.mu.Lock()
	p.generateCalls = append(p.generateCalls, cfg)
	p.mu.Unlock()
	if p.generate != nil {
		return p.generate(cfg)
	}
	return framesOf(60, cfg.Resolution), nil
}

func (p *fakePipeline) calls() []RunConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RunConfig, len(p.generateCalls))
	copy(out, p.generateCalls)
	return out
}

func framesOf(n, res int) *FrameSet {
	fs := &FrameSet{Width: res, Height: res}
	for i := 0; i < n; i++ {
		fs.Frames = append(fs.Frames, make([]byte, 3))
	}
	return fs
}

// fakeMuxer returns one byte per frame so tests can assert trim lengths.
type fakeMuxer struct{ err error }

func (m *fakeMuxer) Mux(_ context.Context, fs *FrameSet, _ string, _ int) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return make([]byte, len(fs.Frames)), nil
}

// recordingPublisher collects event names in order.
type recordingPublisher struct {
	mu    sync.Mutex
	names []string
}

func (p *recordingPublisher) Publish(ev Event) {
	p.mu.Lock()
	p.names = append(p.names, ev.Name)
	p.mu.Unlock()
}

func (p *recordingPublisher) has(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.names {
		if n == name {
			return true
		}
	}
	return false
}

// writeTempMedia creates placeholder image and audio files for validation.
func writeTempMedia(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	img := filepath.Join(dir, "speaker.png")
	wav := filepath.Join(dir, "speech.wav")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(wav, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}
	return img, wav
}

// newTestEngine builds an engine on an 8 GB static probe (ultra_low tier)
// with the given fakes.
func newTestEngine(t *testing.T, p *fakePipeline, mv *fakeMover, cl *countingCleaner) *Engine {
	t.Helper()
	if mv == nil {
		mv = &fakeMover{}
	}
	if cl == nil {
		cl = &countingCleaner{}
	}
	return NewWithConfig(EngineConfig{
		Probe:    &gpu.StaticProbe{CapacityBytes: 8 * gib, AllocatedBytes: gib},
		Pipeline: p,
		Mover:    mv,
		Cleaner:  cl,
		Muxer:    &fakeMuxer{},
		Logger:   testLogger(),
	})
}
