package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"avatard/internal/engine"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func TestLooksLikeOOM(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"CUDA out of memory. Tried to allocate 1.2 GiB", true},
		{"HIP OOM on device 0", true},
		{"tensor shape mismatch", false},
		{"", false},
	}
	for _, c := range cases {
		if got := looksLikeOOM(c.msg); got != c.want {
			t.Fatalf("looksLikeOOM(%q) = %v, want %v", c.msg, got, c.want)
		}
	}
}

func TestReadFrames(t *testing.T) {
	// Two 2x2 RGB frames.
	p := filepath.Join(t.TempDir(), "frames.raw")
	if err := os.WriteFile(p, make([]byte, 2*2*3*2), 0o644); err != nil {
		t.Fatal(err)
	}
	fs, err := readFrames(response{OK: true, FramesPath: p, Width: 2, Height: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(fs.Frames) != 2 || fs.Width != 2 || fs.Height != 2 {
		t.Fatalf("frames: %d frames %dx%d", len(fs.Frames), fs.Width, fs.Height)
	}
	if len(fs.Frames[0]) != 12 {
		t.Fatalf("frame size %d, want 12", len(fs.Frames[0]))
	}
	// The scratch file is consumed.
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("frames scratch file not removed")
	}
}

func TestReadFramesRejectsMalformed(t *testing.T) {
	if _, err := readFrames(response{OK: true}); err == nil {
		t.Fatalf("missing frames path must error")
	}
	p := filepath.Join(t.TempDir(), "frames.raw")
	// 13 bytes is not a multiple of the 12-byte frame size.
	if err := os.WriteFile(p, make([]byte, 13), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readFrames(response{OK: true, FramesPath: p, Width: 2, Height: 2}); err == nil {
		t.Fatalf("misaligned frame data must error")
	}
}

func TestUnavailable(t *testing.T) {
	var u Unavailable
	ctx := context.Background()
	if _, err := u.Preprocess(ctx, engine.Request{}); !IsRuntimeUnavailable(err) {
		t.Fatalf("preprocess: %v", err)
	}
	if _, err := u.Generate(ctx, &engine.Batch{}, engine.RunConfig{}); !IsRuntimeUnavailable(err) {
		t.Fatalf("generate: %v", err)
	}
	// Residency bookkeeping still works without a runtime.
	if err := u.MoveToAccelerator(ctx, engine.ComponentVAE); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := u.MoveToHost(ctx, engine.ComponentVAE); err != nil {
		t.Fatalf("move: %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	p := New("/nonexistent/avatar-runner", "/weights", 0.85, testLogger())
	if err := p.Stop(); err != nil {
		t.Fatalf("stop idle runner: %v", err)
	}
}

func TestSpawnArgsCarryMemoryFraction(t *testing.T) {
	capped := New("/bin/avatar-runner", "/weights", 0.5, testLogger())
	got := strings.Join(capped.spawnArgs(), " ")
	want := "--weights /weights --memory-fraction 0.5"
	if got != want {
		t.Fatalf("capped args: got %q, want %q", got, want)
	}

	// A full or unset share needs no cap on the child.
	for _, f := range []float64{0, 1} {
		p := New("/bin/avatar-runner", "/weights", f, testLogger())
		if got := strings.Join(p.spawnArgs(), " "); got != "--weights /weights" {
			t.Fatalf("fraction %v: got %q", f, got)
		}
	}
}
