// Package synthesize adapts Amazon Polly to the pipeline's Synthesizer
// interface, producing raw PCM16 at the session sample rate.
package synthesize

import (
	"context"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"github.com/voicebridge/voicebridge/internal/config"
	apperrors "github.com/voicebridge/voicebridge/internal/errors"
)

// Client is the subset of the Polly API the adapter needs.
type Client interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Synthesizer renders reply text as PCM16 audio via Polly.
type Synthesizer struct {
	client     Client
	voice      types.VoiceId
	engine     types.Engine
	sampleRate string
}

// New creates a Synthesizer from config.
func New(client Client, cfg config.SynthesizeConfig, sampleRate int) *Synthesizer {
	return &Synthesizer{
		client:     client,
		voice:      types.VoiceId(cfg.Voice),
		engine:     types.Engine(cfg.Engine),
		sampleRate: strconv.Itoa(sampleRate),
	}
}

// Synthesize returns the spoken form of text as raw little-endian PCM16.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}

	out, err := s.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: types.OutputFormatPcm,
		SampleRate:   aws.String(s.sampleRate),
		VoiceId:      s.voice,
		Engine:       s.engine,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Transient, "synthesize speech")
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Transient, "read synthesized audio")
	}
	return audio, nil
}
