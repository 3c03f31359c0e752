package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/voicebridge/voicebridge/internal/metrics"
)

type stubTranscriber struct {
	text  string
	err   error
	calls int
	seen  []byte
}

func (s *stubTranscriber) Transcribe(_ context.Context, pcm []byte) (string, error) {
	s.calls++
	s.seen = pcm
	return s.text, s.err
}

type stubGenerator struct {
	reply string
	err   error
	calls int
	seen  string
}

func (s *stubGenerator) Generate(_ context.Context, text string) (string, error) {
	s.calls++
	s.seen = text
	return s.reply, s.err
}

type stubSynthesizer struct {
	audio []byte
	err   error
	calls int
	seen  string
}

func (s *stubSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.calls++
	s.seen = text
	return s.audio, s.err
}

func newTestPipeline(t *stubTranscriber, g *stubGenerator, s *stubSynthesizer) *Pipeline {
	return New(t, g, s, metrics.NewWith(prometheus.NewRegistry()))
}

func TestRunHappyPath(t *testing.T) {
	tr := &stubTranscriber{text: "hello there"}
	gen := &stubGenerator{reply: "hi, how can I help?"}
	syn := &stubSynthesizer{audio: []byte{1, 2, 3, 4}}
	p := newTestPipeline(tr, gen, syn)

	audio, err := p.Run(context.Background(), []byte{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if string(audio) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("audio = %v, want synthesized bytes", audio)
	}
	if gen.seen != "hello there" {
		t.Errorf("generator received %q, want transcript", gen.seen)
	}
	if syn.seen != "hi, how can I help?" {
		t.Errorf("synthesizer received %q, want reply", syn.seen)
	}
}

func TestRunEmptyTranscriptShortCircuits(t *testing.T) {
	tr := &stubTranscriber{text: ""}
	gen := &stubGenerator{reply: "unused"}
	syn := &stubSynthesizer{audio: []byte{1}}
	p := newTestPipeline(tr, gen, syn)

	audio, err := p.Run(context.Background(), []byte{0, 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if audio != nil {
		t.Errorf("audio = %v, want nil", audio)
	}
	if gen.calls != 0 {
		t.Error("generator should not run for empty transcript")
	}
	if syn.calls != 0 {
		t.Error("synthesizer should not run for empty transcript")
	}
}

func TestRunEmptyReplyShortCircuits(t *testing.T) {
	tr := &stubTranscriber{text: "something"}
	gen := &stubGenerator{reply: ""}
	syn := &stubSynthesizer{audio: []byte{1}}
	p := newTestPipeline(tr, gen, syn)

	audio, err := p.Run(context.Background(), []byte{0, 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if audio != nil {
		t.Errorf("audio = %v, want nil", audio)
	}
	if syn.calls != 0 {
		t.Error("synthesizer should not run for empty reply")
	}
}

func TestRunTranscribeError(t *testing.T) {
	tr := &stubTranscriber{err: errors.New("stream broke")}
	gen := &stubGenerator{reply: "unused"}
	syn := &stubSynthesizer{audio: []byte{1}}
	p := newTestPipeline(tr, gen, syn)

	audio, err := p.Run(context.Background(), []byte{0, 0})
	if err == nil {
		t.Fatal("Run() should surface the stage error")
	}
	if audio != nil {
		t.Errorf("audio = %v, want nil on error", audio)
	}
	if gen.calls != 0 {
		t.Error("generator should not run after transcribe failure")
	}
}

func TestRunSynthesizeError(t *testing.T) {
	tr := &stubTranscriber{text: "hello"}
	gen := &stubGenerator{reply: "reply"}
	syn := &stubSynthesizer{err: errors.New("voice unavailable")}
	p := newTestPipeline(tr, gen, syn)

	audio, err := p.Run(context.Background(), []byte{0, 0})
	if err == nil {
		t.Fatal("Run() should surface the stage error")
	}
	if audio != nil {
		t.Errorf("audio = %v, want nil on error", audio)
	}
}

func TestRunBreakerOpensAfterRepeatedFailures(t *testing.T) {
	tr := &stubTranscriber{err: errors.New("down")}
	gen := &stubGenerator{}
	syn := &stubSynthesizer{}
	p := newTestPipeline(tr, gen, syn)

	// Trip the transcribe breaker.
	for i := 0; i < 3; i++ {
		_, _ = p.Run(context.Background(), []byte{0, 0})
	}
	before := tr.calls

	// Subsequent runs fail fast without reaching the collaborator.
	if _, err := p.Run(context.Background(), []byte{0, 0}); err == nil {
		t.Fatal("Run() should fail while breaker is open")
	}
	if tr.calls != before {
		t.Errorf("transcriber called %d times after breaker opened, want %d", tr.calls, before)
	}
}

func TestRunEmptySynthesisReturnsNil(t *testing.T) {
	tr := &stubTranscriber{text: "hello"}
	gen := &stubGenerator{reply: "reply"}
	syn := &stubSynthesizer{audio: nil}
	p := newTestPipeline(tr, gen, syn)

	audio, err := p.Run(context.Background(), []byte{0, 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if audio != nil {
		t.Errorf("audio = %v, want nil", audio)
	}
}
