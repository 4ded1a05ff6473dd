package media

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// buildWAV assembles a minimal PCM WAV header for the given byte rate and
// data length.
func buildWAV(byteRate, dataLen uint32) []byte {
	var b []byte
	u32 := func(v uint32) []byte {
		var out [4]byte
		binary.LittleEndian.PutUint32(out[:], v)
		return out[:]
	}
	u16 := func(v uint16) []byte {
		var out [2]byte
		binary.LittleEndian.PutUint16(out[:], v)
		return out[:]
	}
	b = append(b, []byte("RIFF")...)
	b = append(b, u32(36+dataLen)...)
	b = append(b, []byte("WAVE")...)
	b = append(b, []byte("fmt ")...)
	b = append(b, u32(16)...)
	b = append(b, u16(1)...)  // PCM
	b = append(b, u16(1)...)  // mono
	b = append(b, u32(byteRate/2)...) // sample rate (16-bit mono)
	b = append(b, u32(byteRate)...)
	b = append(b, u16(2)...)  // block align
	b = append(b, u16(16)...) // bits per sample
	b = append(b, []byte("data")...)
	b = append(b, u32(dataLen)...)
	b = append(b, make([]byte, dataLen)...)
	return b
}

func writeWAV(t *testing.T, content []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "speech.wav")
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestWavDuration(t *testing.T) {
	// 32000 B/s, 80000 bytes of samples: 2.5 seconds.
	p := writeWAV(t, buildWAV(32000, 80000))
	got, err := WavDuration(p)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("duration %v, want 2.5", got)
	}
}

func TestWavDurationDataBeforeFmt(t *testing.T) {
	// Some encoders emit the data chunk first; both orders must parse.
	full := buildWAV(16000, 16000)
	var b []byte
	b = append(b, full[:12]...)  // RIFF header
	b = append(b, full[36:]...)  // data chunk
	b = append(b, full[12:36]...) // fmt chunk
	p := writeWAV(t, b)
	got, err := WavDuration(p)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("duration %v, want 1.0", got)
	}
}

func TestWavDurationErrors(t *testing.T) {
	if _, err := WavDuration(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatalf("missing file must error")
	}
	p := writeWAV(t, []byte("ID3\x04not audio at all"))
	if _, err := WavDuration(p); err == nil {
		t.Fatalf("non-wav content must error")
	}
	// RIFF header with no chunks.
	p = writeWAV(t, buildWAV(32000, 100)[:12])
	if _, err := WavDuration(p); err == nil {
		t.Fatalf("truncated wav must error")
	}
}
