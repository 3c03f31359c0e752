// Package vad provides energy-based speech/silence classification for PCM16 audio.
package vad

import (
	"encoding/binary"
	"math"
)

// Result is the classification of a single audio frame.
type Result struct {
	Silent bool
	RMS    float64
}

// Classify decodes frame as little-endian signed 16-bit mono samples, computes
// the RMS amplitude and compares it against threshold. A trailing odd byte is
// ignored. Frames too short to hold a single sample classify as silent with
// zero energy: absence of data is absence of sound, not an error.
func Classify(frame []byte, threshold float64) Result {
	n := len(frame) &^ 1
	if n < 2 {
		return Result{Silent: true}
	}

	var sum float64
	for i := 0; i < n; i += 2 {
		s := float64(int16(binary.LittleEndian.Uint16(frame[i:])))
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(n/2))

	return Result{Silent: rms < threshold, RMS: rms}
}
