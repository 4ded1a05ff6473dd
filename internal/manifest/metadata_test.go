package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestWriteMetadata(t *testing.T) {
	dir := t.TempDir()
	md := Metadata{
		JobID:       "clip1",
		ImagePath:   "/in/a.png",
		AudioPath:   "/in/a.wav",
		FPS:         25,
		Status:      "ok",
		Info:        "succeed",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := WriteMetadata(dir, md); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "clip1.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var got Metadata
	if err := yaml.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.JobID != md.JobID || got.Status != md.Status || got.FPS != md.FPS {
		t.Fatalf("roundtrip: %+v", got)
	}
	if !got.GeneratedAt.Equal(md.GeneratedAt) {
		t.Fatalf("generated_at: %v", got.GeneratedAt)
	}
}
