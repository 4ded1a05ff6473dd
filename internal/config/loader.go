package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr       string `json:"addr" yaml:"addr" toml:"addr"`
	WeightsDir string `json:"weights_dir" yaml:"weights_dir" toml:"weights_dir"`
	OutputDir  string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`

	// Tier is "auto" (or empty) for capacity detection, or a tier name to
	// force one.
	Tier string `json:"tier" yaml:"tier" toml:"tier"`

	// Run-configuration overrides; clamped per tier at resolve time.
	Resolution      int  `json:"resolution" yaml:"resolution" toml:"resolution"`
	ClipLength      int  `json:"clip_length" yaml:"clip_length" toml:"clip_length"`
	Steps           int  `json:"steps" yaml:"steps" toml:"steps"`
	BatchSize       int  `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	MaxAudioSeconds int  `json:"max_audio_seconds" yaml:"max_audio_seconds" toml:"max_audio_seconds"`
	CPUOffload      bool `json:"cpu_offload" yaml:"cpu_offload" toml:"cpu_offload"`

	// MemoryFraction caps the share of accelerator memory the process may
	// claim (0 means default).
	MemoryFraction float64 `json:"memory_fraction" yaml:"memory_fraction" toml:"memory_fraction"`

	FFmpegBin string `json:"ffmpeg_bin" yaml:"ffmpeg_bin" toml:"ffmpeg_bin"`
	SMIBin    string `json:"smi_bin" yaml:"smi_bin" toml:"smi_bin"`
	RunnerBin string `json:"runner_bin" yaml:"runner_bin" toml:"runner_bin"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
