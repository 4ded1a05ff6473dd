// Package runner adapts an external model-runtime process to the engine's
// Pipeline, Mover and Cleaner interfaces. The runtime owns the actual
// model weights and tensors; this package only speaks a line-delimited
// JSON protocol to it over stdin/stdout, one request per line.
package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"avatard/internal/engine"
)

const (
	startTimeout = 120 * time.Second
	stopTimeout  = 5 * time.Second
)

// request is one protocol message sent to the runtime.
type request struct {
	Op        string  `json:"op"`
	ImagePath string  `json:"image_path,omitempty"`
	AudioPath string  `json:"audio_path,omitempty"`
	Prompt    string  `json:"prompt,omitempty"`
	FPS       int     `json:"fps,omitempty"`
	BatchRef  string  `json:"batch_ref,omitempty"`
	Component string  `json:"component,omitempty"`
	To        string  `json:"to,omitempty"`
	Res       int     `json:"resolution,omitempty"`
	Clip      int     `json:"clip_length,omitempty"`
	Steps     int     `json:"steps,omitempty"`
	Guidance  float64 `json:"guidance_scale,omitempty"`
	Batch     int     `json:"batch_size,omitempty"`
	Precision string  `json:"precision,omitempty"`
}

// response is one protocol message received from the runtime.
type response struct {
	OK           bool    `json:"ok"`
	Error        string  `json:"error,omitempty"`
	OOM          bool    `json:"oom,omitempty"`
	BatchRef     string  `json:"batch_ref,omitempty"`
	AudioSeconds float64 `json:"audio_seconds,omitempty"`
	FramesPath   string  `json:"frames_path,omitempty"`
	FrameCount   int     `json:"frame_count,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
}

// Process manages one model-runtime child process. It satisfies
// engine.Pipeline, engine.Mover and engine.Cleaner. All protocol calls are
// serialized; the engine's admission gate already guarantees one request
// at a time, the mutex only protects startup races.
type Process struct {
	bin        string
	weightsDir string
	memFrac    float64
	log        zerolog.Logger

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin *json.Encoder
	out   *bufio.Scanner
}

// New returns a runner for the given runtime binary and weights root.
// memoryFraction caps the share of accelerator memory the child may
// claim; values outside (0,1) leave the child uncapped. The child is
// spawned lazily on first use.
func New(bin, weightsDir string, memoryFraction float64, log zerolog.Logger) *Process {
	return &Process{bin: bin, weightsDir: weightsDir, memFrac: memoryFraction, log: log}
}

// spawnArgs builds the child's command line.
func (p *Process) spawnArgs() []string {
	args := []string{"--weights", p.weightsDir}
	if p.memFrac > 0 && p.memFrac < 1 {
		args = append(args, "--memory-fraction", strconv.FormatFloat(p.memFrac, 'f', -1, 64))
	}
	return args
}

// ensureStarted spawns the runtime if needed and waits for its ready line.
func (p *Process) ensureStarted(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		return nil
	}
	cmd := exec.Command(p.bin, p.spawnArgs()...)
	cmd.Stderr = os.Stderr
	in, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("runner stdin: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("runner stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn runner %q: %w", p.bin, err)
	}
	p.cmd = cmd
	p.stdin = json.NewEncoder(in)
	sc := bufio.NewScanner(out)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	p.out = sc
	p.log.Info().Str("bin", p.bin).Int("pid", cmd.Process.Pid).Msg("runner spawned")

	// Wait for the ready handshake.
	deadline := time.Now().Add(startTimeout)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			_ = p.stopLocked()
			return errors.New("runner did not become ready in time")
		}
		resp, err := p.recvLocked()
		if err != nil {
			_ = p.stopLocked()
			return fmt.Errorf("runner handshake: %w", err)
		}
		if resp.OK {
			return nil
		}
	}
}

// call sends one request and reads one response, lazily starting the child.
func (p *Process) call(ctx context.Context, req request) (response, error) {
	if err := p.ensureStarted(ctx); err != nil {
		return response{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.stdin.Encode(req); err != nil {
		_ = p.stopLocked()
		return response{}, fmt.Errorf("runner %s: write: %w", req.Op, err)
	}
	resp, err := p.recvLocked()
	if err != nil {
		_ = p.stopLocked()
		return response{}, fmt.Errorf("runner %s: read: %w", req.Op, err)
	}
	if !resp.OK {
		if resp.OOM || looksLikeOOM(resp.Error) {
			return resp, engine.ErrAcceleratorOOM(resp.Error)
		}
		return resp, fmt.Errorf("runner %s: %s", req.Op, resp.Error)
	}
	return resp, nil
}

func (p *Process) recvLocked() (response, error) {
	for p.out.Scan() {
		line := strings.TrimSpace(p.out.Text())
		if line == "" || !strings.HasPrefix(line, "{") {
			// Runtimes are chatty on stdout; skip anything non-protocol.
			continue
		}
		var resp response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			return response{}, fmt.Errorf("decode %q: %w", line, err)
		}
		return resp, nil
	}
	if err := p.out.Err(); err != nil {
		return response{}, err
	}
	return response{}, errors.New("runner closed stdout")
}

// looksLikeOOM classifies runtime errors that indicate accelerator memory
// exhaustion when the runtime did not set the oom flag itself.
func looksLikeOOM(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "out of memory") || strings.Contains(m, "oom")
}

// Preprocess implements engine.Pipeline.
func (p *Process) Preprocess(ctx context.Context, req engine.Request) (*engine.Batch, error) {
	resp, err := p.call(ctx, request{
		Op:        "preprocess",
		ImagePath: req.ImagePath,
		AudioPath: req.AudioPath,
		Prompt:    req.Prompt,
		FPS:       req.FrameRate,
	})
	if err != nil {
		return nil, err
	}
	return &engine.Batch{
		Ref:          resp.BatchRef,
		AudioSeconds: resp.AudioSeconds,
		FrameRate:    req.FrameRate,
	}, nil
}

// Generate implements engine.Pipeline. Frames come back through a scratch
// file to keep the stdio protocol line-oriented.
func (p *Process) Generate(ctx context.Context, batch *engine.Batch, cfg engine.RunConfig) (*engine.FrameSet, error) {
	resp, err := p.call(ctx, request{
		Op:        "generate",
		BatchRef:  batch.Ref,
		Res:       cfg.Resolution,
		Clip:      cfg.ClipLength,
		Steps:     cfg.Steps,
		Guidance:  cfg.GuidanceScale,
		Batch:     cfg.BatchSize,
		Precision: string(cfg.Precision),
	})
	if err != nil {
		return nil, err
	}
	return readFrames(resp)
}

// readFrames loads the raw RGB frames the runtime wrote to disk.
func readFrames(resp response) (*engine.FrameSet, error) {
	if resp.FramesPath == "" || resp.Width <= 0 || resp.Height <= 0 {
		return nil, fmt.Errorf("runner generate: malformed frames response")
	}
	raw, err := os.ReadFile(resp.FramesPath)
	defer os.Remove(resp.FramesPath)
	if err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	frameSize := resp.Width * resp.Height * 3
	if frameSize == 0 || len(raw)%frameSize != 0 {
		return nil, fmt.Errorf("read frames: %d bytes is not a multiple of frame size %d", len(raw), frameSize)
	}
	fs := &engine.FrameSet{Width: resp.Width, Height: resp.Height}
	for off := 0; off < len(raw); off += frameSize {
		fs.Frames = append(fs.Frames, raw[off:off+frameSize])
	}
	return fs, nil
}

// MoveToAccelerator implements engine.Mover.
func (p *Process) MoveToAccelerator(ctx context.Context, c engine.Component) error {
	_, err := p.call(ctx, request{Op: "move", Component: string(c), To: "accelerator"})
	return err
}

// MoveToHost implements engine.Mover.
func (p *Process) MoveToHost(ctx context.Context, c engine.Component) error {
	_, err := p.call(ctx, request{Op: "move", Component: string(c), To: "host"})
	return err
}

// ReleaseCache implements engine.Cleaner.
func (p *Process) ReleaseCache() {
	if _, err := p.call(context.Background(), request{Op: "release_cache"}); err != nil {
		p.log.Debug().Err(err).Msg("release cache")
	}
}

// CollectGarbage implements engine.Cleaner.
func (p *Process) CollectGarbage() {
	if _, err := p.call(context.Background(), request{Op: "gc"}); err != nil {
		p.log.Debug().Err(err).Msg("gc pass")
	}
}

// Stop terminates the child: SIGTERM first, SIGKILL after the grace
// period. Safe to call when nothing is running.
func (p *Process) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Process) stopLocked() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	cmd := p.cmd
	p.cmd = nil
	p.stdin = nil
	p.out = nil
	_ = cmd.Process.Signal(syscall.SIGTERM)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		_ = cmd.Process.Kill()
		<-done
	}
	return nil
}
