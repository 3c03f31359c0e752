// Package audio provides PCM16 buffering and response chunking for voice sessions.
package audio

// Segment accumulates the speech and trailing-silence byte runs for one
// session's current utterance. It has no internal locking: all mutation is
// confined to the session's own goroutine, and TakeAndClear is the only path
// by which buffered audio leaves the segment.
type Segment struct {
	sampleRate int
	speech     []byte
	silence    []byte
}

// NewSegment creates an empty segment for PCM16 mono audio at sampleRate.
func NewSegment(sampleRate int) *Segment {
	return &Segment{sampleRate: sampleRate}
}

// AppendSpeech adds a copy of frame to the speech run.
func (s *Segment) AppendSpeech(frame []byte) {
	s.speech = append(s.speech, frame...)
}

// AppendSilence adds a copy of frame to the silence run.
func (s *Segment) AppendSilence(frame []byte) {
	s.silence = append(s.silence, frame...)
}

// PromoteSilence merges the accumulated silence run into the speech run.
// Called when sound resumes after quiet, so a false pause boundary never
// clips the start of the next burst of speech.
func (s *Segment) PromoteSilence() {
	if len(s.silence) == 0 {
		return
	}
	s.speech = append(s.speech, s.silence...)
	s.silence = s.silence[:0]
}

// TakeAndClear returns the speech run and resets the segment to empty. The
// returned slice is never mutated by the segment afterwards; the trailing
// silence run is discarded with the hand-off.
func (s *Segment) TakeAndClear() []byte {
	out := s.speech
	s.speech = nil
	s.silence = nil
	return out
}

// SpeechBytes returns the size of the buffered speech run.
func (s *Segment) SpeechBytes() int { return len(s.speech) }

// SilenceBytes returns the size of the buffered silence run.
func (s *Segment) SilenceBytes() int { return len(s.silence) }

// SpeechSeconds returns the duration of the buffered speech run.
func (s *Segment) SpeechSeconds() float64 { return s.seconds(len(s.speech)) }

// SilenceSeconds returns the duration of the buffered silence run.
func (s *Segment) SilenceSeconds() float64 { return s.seconds(len(s.silence)) }

func (s *Segment) seconds(n int) float64 {
	if s.sampleRate <= 0 {
		return 0
	}
	// 2 bytes per PCM16 mono sample
	return float64(n) / float64(2*s.sampleRate)
}
