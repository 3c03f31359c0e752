// Package pipeline runs the transcribe, generate and synthesize stages for
// one finished utterance. Each stage sits behind its own circuit breaker;
// any empty or failed stage short-circuits the run. A failed run is never
// fatal to the session that dispatched it.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/voicebridge/voicebridge/internal/metrics"
	"github.com/voicebridge/voicebridge/internal/resilience"
	"github.com/voicebridge/voicebridge/internal/trace"
)

// Transcriber converts captured PCM16 audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte) (string, error)
}

// Generator produces a reply to the transcribed text.
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

// Synthesizer renders reply text as PCM16 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Pipeline chains the three collaborators for a single utterance.
type Pipeline struct {
	transcriber Transcriber
	generator   Generator
	synthesizer Synthesizer

	transcribeBreaker *resilience.Breaker
	generateBreaker   *resilience.Breaker
	synthesizeBreaker *resilience.Breaker

	metrics *metrics.Metrics
}

// New creates a pipeline around the three collaborators.
func New(t Transcriber, g Generator, s Synthesizer, m *metrics.Metrics) *Pipeline {
	cfg := resilience.StageConfig()
	return &Pipeline{
		transcriber:       t,
		generator:         g,
		synthesizer:       s,
		transcribeBreaker: resilience.New("transcribe", cfg),
		generateBreaker:   resilience.New("generate", cfg),
		synthesizeBreaker: resilience.New("synthesize", cfg),
		metrics:           m,
	}
}

// Run processes one utterance end to end. It returns nil audio when any
// stage fails or produces nothing; the error describes the failing stage
// for logging, and nil error with nil audio means a stage legitimately
// came back empty.
func (p *Pipeline) Run(ctx context.Context, pcm []byte) ([]byte, error) {
	ctx, span := trace.StartSpan(ctx, "utterance")
	defer span.End()
	log := trace.Logger(ctx)

	text, err := runStage(ctx, p, "transcribe", p.transcribeBreaker, func(ctx context.Context) (string, error) {
		return p.transcriber.Transcribe(ctx, pcm)
	})
	if err != nil {
		return nil, err
	}
	if text == "" {
		log.Debug("transcription empty, skipping turn")
		return nil, nil
	}
	log.Info("transcribed utterance", "chars", len(text))

	reply, err := runStage(ctx, p, "generate", p.generateBreaker, func(ctx context.Context) (string, error) {
		return p.generator.Generate(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	if reply == "" {
		log.Debug("generation empty, skipping turn")
		return nil, nil
	}
	log.Info("generated reply", "chars", len(reply))

	audio, err := runStage(ctx, p, "synthesize", p.synthesizeBreaker, func(ctx context.Context) ([]byte, error) {
		return p.synthesizer.Synthesize(ctx, reply)
	})
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		log.Debug("synthesis empty, skipping turn")
		return nil, nil
	}
	return audio, nil
}

// runStage wraps one collaborator call with its breaker, latency metric
// and stage-tagged logging.
func runStage[T any](ctx context.Context, p *Pipeline, name string, b *resilience.Breaker, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	out, err := resilience.ExecuteWithResult(b, func() (T, error) {
		return fn(ctx)
	})
	if p.metrics != nil {
		p.metrics.StageObserved(name, time.Since(start).Seconds(), err == nil)
	}
	if err != nil {
		slog.Warn("pipeline stage failed", "stage", name, "error", err)
	}
	return out, err
}
