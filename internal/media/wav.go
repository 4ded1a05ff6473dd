package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WavDuration reads the duration in seconds of a PCM WAV file from its
// RIFF header: data chunk length divided by the fmt chunk's byte rate.
// Non-WAV inputs (or truncated headers) return an error; callers fall
// back to the pipeline's own audio probing.
func WavDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return 0, fmt.Errorf("read wav header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var byteRate uint32
	var dataLen uint32
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(f, hdr[:]); err != nil {
			break
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])
		switch id {
		case "fmt ":
			var fmtChunk [16]byte
			if size < 16 {
				return 0, fmt.Errorf("short fmt chunk")
			}
			if _, err := io.ReadFull(f, fmtChunk[:]); err != nil {
				return 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			byteRate = binary.LittleEndian.Uint32(fmtChunk[8:12])
			if size > 16 {
				if _, err := f.Seek(int64(size-16), io.SeekCurrent); err != nil {
					return 0, err
				}
			}
		case "data":
			dataLen = size
			if _, err := f.Seek(int64(size), io.SeekCurrent); err != nil {
				return 0, err
			}
		default:
			if _, err := f.Seek(int64(size), io.SeekCurrent); err != nil {
				return 0, err
			}
		}
		if byteRate > 0 && dataLen > 0 {
			break
		}
		// Chunks are word-aligned.
		if size%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				break
			}
		}
	}
	if byteRate == 0 || dataLen == 0 {
		return 0, fmt.Errorf("wav header missing fmt or data chunk")
	}
	return float64(dataLen) / float64(byteRate), nil
}
