package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateWeightsDir(t *testing.T) {
	dir := t.TempDir()

	got, err := validateWeightsDir(dir)
	if err != nil {
		t.Fatalf("existing dir: %v", err)
	}
	if got != dir {
		t.Fatalf("got %q, want %q", got, dir)
	}

	if _, err := validateWeightsDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing directory")
	}

	file := filepath.Join(dir, "weights.bin")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := validateWeightsDir(file); err == nil {
		t.Fatalf("expected error for a plain file")
	}
}
