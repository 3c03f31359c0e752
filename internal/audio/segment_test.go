package audio

import (
	"bytes"
	"testing"
)

func TestSegmentTakeReturnsExactAppendedBytes(t *testing.T) {
	seg := NewSegment(16000)

	var want []byte
	frames := [][]byte{
		bytes.Repeat([]byte{0x01, 0x02}, 100),
		bytes.Repeat([]byte{0x03, 0x04}, 50),
		bytes.Repeat([]byte{0x05, 0x06}, 200),
	}
	for _, f := range frames {
		seg.AppendSpeech(f)
		want = append(want, f...)
	}

	got := seg.TakeAndClear()
	if !bytes.Equal(got, want) {
		t.Errorf("TakeAndClear returned %d bytes, want %d (no loss, no duplication)", len(got), len(want))
	}
	if seg.SpeechBytes() != 0 || seg.SilenceBytes() != 0 {
		t.Error("segment should be empty after TakeAndClear")
	}
}

func TestSegmentPromoteSilencePreservesOrder(t *testing.T) {
	seg := NewSegment(16000)

	speech1 := bytes.Repeat([]byte{0xaa}, 10)
	quiet := bytes.Repeat([]byte{0x00}, 6)
	speech2 := bytes.Repeat([]byte{0xbb}, 10)

	seg.AppendSpeech(speech1)
	seg.AppendSilence(quiet)
	seg.PromoteSilence()
	seg.AppendSpeech(speech2)

	want := append(append(append([]byte{}, speech1...), quiet...), speech2...)
	if got := seg.TakeAndClear(); !bytes.Equal(got, want) {
		t.Errorf("promoted silence must sit between the speech runs, got %v", got)
	}
}

func TestSegmentTakeDiscardsTrailingSilence(t *testing.T) {
	seg := NewSegment(16000)
	seg.AppendSpeech([]byte{1, 2, 3, 4})
	seg.AppendSilence([]byte{0, 0})

	if got := seg.TakeAndClear(); !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("TakeAndClear = %v, want speech run only", got)
	}
	if seg.SilenceBytes() != 0 {
		t.Error("silence run should be cleared with the hand-off")
	}
}

func TestSegmentTakeDoesNotAliasLaterAppends(t *testing.T) {
	seg := NewSegment(16000)
	seg.AppendSpeech(bytes.Repeat([]byte{0x11}, 32))

	taken := seg.TakeAndClear()
	snapshot := append([]byte{}, taken...)

	seg.AppendSpeech(bytes.Repeat([]byte{0x22}, 64))
	if !bytes.Equal(taken, snapshot) {
		t.Error("bytes handed off must never be mutated by later appends")
	}
}

func TestSegmentEmptyTake(t *testing.T) {
	seg := NewSegment(16000)
	if got := seg.TakeAndClear(); len(got) != 0 {
		t.Errorf("TakeAndClear on empty segment = %v, want empty", got)
	}
}

func TestSegmentDurations(t *testing.T) {
	seg := NewSegment(16000)

	// 16000 samples = 32000 bytes = 1 second
	seg.AppendSpeech(make([]byte, 32000))
	if got := seg.SpeechSeconds(); got != 1.0 {
		t.Errorf("SpeechSeconds = %f, want 1.0", got)
	}

	seg.AppendSilence(make([]byte, 8000))
	if got := seg.SilenceSeconds(); got != 0.25 {
		t.Errorf("SilenceSeconds = %f, want 0.25", got)
	}
}

func TestSegmentPromoteEmptySilence(t *testing.T) {
	seg := NewSegment(16000)
	seg.AppendSpeech([]byte{1, 2})
	seg.PromoteSilence()

	if got := seg.TakeAndClear(); !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("promoting an empty silence run must be a no-op, got %v", got)
	}
}
