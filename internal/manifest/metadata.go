package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Metadata is the sidecar record written next to each generated video.
type Metadata struct {
	JobID       string    `yaml:"job_id"`
	ImagePath   string    `yaml:"image_path"`
	AudioPath   string    `yaml:"audio_path"`
	Prompt      string    `yaml:"prompt,omitempty"`
	FPS         int       `yaml:"fps"`
	Status      string    `yaml:"status"`
	Info        string    `yaml:"info,omitempty"`
	GeneratedAt time.Time `yaml:"generated_at"`
}

// WriteMetadata writes the yaml sidecar for a job into outDir as <id>.yaml.
func WriteMetadata(outDir string, md Metadata) error {
	b, err := yaml.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	p := filepath.Join(outDir, md.JobID+".yaml")
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
