package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"avatard/internal/engine"
)

// FFmpegMuxer assembles generated frames and the original driving audio
// into an MP4 via the external ffmpeg tool. The codec itself is an
// environment collaborator; this type only shells out to it.
type FFmpegMuxer struct {
	Bin string
}

// NewFFmpegMuxer returns a muxer using the given ffmpeg binary (empty
// means "ffmpeg" from PATH).
func NewFFmpegMuxer(bin string) *FFmpegMuxer {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegMuxer{Bin: bin}
}

// Mux writes frames as raw RGB into a scratch file, invokes ffmpeg to
// encode and mux with the audio track, and returns the MP4 bytes. The
// -shortest flag makes the audio track bound the container duration.
func (m *FFmpegMuxer) Mux(ctx context.Context, frames *engine.FrameSet, audioPath string, fps int) ([]byte, error) {
	if frames == nil || len(frames.Frames) == 0 {
		return nil, fmt.Errorf("mux: no frames")
	}
	if fps <= 0 {
		fps = 25
	}
	dir, err := os.MkdirTemp("", "avatard-mux-*")
	if err != nil {
		return nil, fmt.Errorf("mux scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	rawPath := filepath.Join(dir, "frames.raw")
	f, err := os.Create(rawPath)
	if err != nil {
		return nil, fmt.Errorf("mux scratch file: %w", err)
	}
	for _, fr := range frames.Frames {
		if _, err := f.Write(fr); err != nil {
			f.Close()
			return nil, fmt.Errorf("write frames: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close frames: %w", err)
	}

	outPath := filepath.Join(dir, "out.mp4")
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", frames.Width, frames.Height),
		"-r", fmt.Sprintf("%d", fps),
		"-i", rawPath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		outPath,
	}
	cmd := exec.CommandContext(ctx, m.Bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, tail(out))
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read muxed output: %w", err)
	}
	return b, nil
}

// tail keeps error output short enough for a diagnostic message.
func tail(b []byte) string {
	const keep = 512
	if len(b) <= keep {
		return string(b)
	}
	return "..." + string(b[len(b)-keep:])
}
