package manifest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"avatard/internal/common/fsutil"
)

// Job is one row of a batch manifest.
type Job struct {
	ID        string
	ImagePath string
	AudioPath string
	Prompt    string
	FPS       int
}

// Load reads a CSV manifest: one row per job, columns
// id,image_path,audio_path,prompt,fps. A header row starting with "id" is
// skipped. Prompt and fps are optional per row.
func Load(path string) ([]Job, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var jobs []Job
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "id") {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("manifest row %d: want at least id,image_path,audio_path, got %d columns", i+1, len(row))
		}
		j := Job{
			ID:        strings.TrimSpace(row[0]),
			ImagePath: strings.TrimSpace(row[1]),
			AudioPath: strings.TrimSpace(row[2]),
		}
		if j.ID == "" {
			return nil, fmt.Errorf("manifest row %d: empty job id", i+1)
		}
		if len(row) > 3 {
			j.Prompt = strings.TrimSpace(row[3])
		}
		if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
			fps, err := strconv.Atoi(strings.TrimSpace(row[4]))
			if err != nil {
				return nil, fmt.Errorf("manifest row %d: fps: %w", i+1, err)
			}
			j.FPS = fps
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// OutputPath returns the video path for a job id inside outDir.
func OutputPath(outDir, id string) string {
	return filepath.Join(outDir, id+".mp4")
}
