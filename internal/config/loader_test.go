package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "avatard.yaml", `
addr: ":9090"
weights_dir: /srv/weights
tier: ultra_low
resolution: 256
cpu_offload: true
memory_fraction: 0.8
runner_bin: /usr/local/bin/avatar-runner
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9090" || cfg.WeightsDir != "/srv/weights" {
		t.Fatalf("cfg: %+v", cfg)
	}
	if cfg.Tier != "ultra_low" || cfg.Resolution != 256 || !cfg.CPUOffload {
		t.Fatalf("cfg: %+v", cfg)
	}
	if cfg.MemoryFraction != 0.8 || cfg.RunnerBin != "/usr/local/bin/avatar-runner" {
		t.Fatalf("cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	p := writeFile(t, "avatard.json", `{"addr":":7070","steps":12,"clip_length":16}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":7070" || cfg.Steps != 12 || cfg.ClipLength != 16 {
		t.Fatalf("cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, "avatard.toml", "addr = \":6060\"\nbatch_size = 2\nffmpeg_bin = \"/opt/ffmpeg\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":6060" || cfg.BatchSize != 2 || cfg.FFmpegBin != "/opt/ffmpeg" {
		t.Fatalf("cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("empty path must error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file must error")
	}
	p := writeFile(t, "avatard.ini", "addr = :1234")
	if _, err := Load(p); err == nil {
		t.Fatalf("unsupported extension must error")
	}
	p = writeFile(t, "broken.json", "{not json")
	if _, err := Load(p); err == nil {
		t.Fatalf("malformed content must error")
	}
}
