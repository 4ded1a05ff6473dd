package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "jobs.csv")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadManifest(t *testing.T) {
	p := writeManifest(t, "id,image_path,audio_path,prompt,fps\n"+
		"intro,/in/a.png,/in/a.wav,A person talking,30\n"+
		"outro,/in/b.png,/in/b.wav\n")
	jobs, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != "intro" || jobs[0].Prompt != "A person talking" || jobs[0].FPS != 30 {
		t.Fatalf("first job: %+v", jobs[0])
	}
	if jobs[1].ID != "outro" || jobs[1].Prompt != "" || jobs[1].FPS != 0 {
		t.Fatalf("second job: %+v", jobs[1])
	}
}

func TestLoadManifestNoHeader(t *testing.T) {
	p := writeManifest(t, "clip1,/in/a.png,/in/a.wav\n")
	jobs, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].ID != "clip1" {
		t.Fatalf("jobs: %+v", jobs)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"too few columns", "clip1,/in/a.png\n", "at least"},
		{"empty id", " ,/in/a.png,/in/a.wav\n", "empty job id"},
		{"bad fps", "clip1,/in/a.png,/in/a.wav,,abc\n", "fps"},
	}
	for _, c := range cases {
		p := writeManifest(t, c.content)
		_, err := Load(p)
		if err == nil || !strings.Contains(err.Error(), c.wantErr) {
			t.Fatalf("%s: err=%v, want contains %q", c.name, err, c.wantErr)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatalf("missing manifest must error")
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("/out", "clip1")
	if got != filepath.Join("/out", "clip1.mp4") {
		t.Fatalf("output path %q", got)
	}
}
