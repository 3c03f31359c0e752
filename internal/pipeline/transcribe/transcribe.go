// Package transcribe adapts Amazon Transcribe streaming to the pipeline's
// Transcriber interface. Each utterance opens a fresh stream: audio is
// pushed as bounded events, the input side is closed, and the transcript
// is assembled from the result events.
package transcribe

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming/types"

	"github.com/voicebridge/voicebridge/internal/audio"
	"github.com/voicebridge/voicebridge/internal/config"
	apperrors "github.com/voicebridge/voicebridge/internal/errors"
)

// Client is the subset of the Transcribe streaming API the adapter needs.
type Client interface {
	StartStreamTranscription(ctx context.Context, params *transcribestreaming.StartStreamTranscriptionInput, optFns ...func(*transcribestreaming.Options)) (*transcribestreaming.StartStreamTranscriptionOutput, error)
}

// Transcriber streams PCM16 audio to Amazon Transcribe.
type Transcriber struct {
	client     Client
	language   types.LanguageCode
	sampleRate int32
	maxEvent   int
}

// New creates a Transcriber from config.
func New(client Client, cfg config.TranscribeConfig, sampleRate int) *Transcriber {
	return &Transcriber{
		client:     client,
		language:   types.LanguageCode(cfg.Language),
		sampleRate: int32(sampleRate),
		maxEvent:   cfg.MaxEventBytes,
	}
}

// Transcribe sends pcm through a one-shot streaming session and returns the
// assembled transcript. Final result segments are preferred; if the stream
// ends with only partials, the last partial is used.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	if len(pcm) == 0 {
		return "", nil
	}

	out, err := t.client.StartStreamTranscription(ctx, &transcribestreaming.StartStreamTranscriptionInput{
		LanguageCode:         t.language,
		MediaEncoding:        types.MediaEncodingPcm,
		MediaSampleRateHertz: aws.Int32(t.sampleRate),
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Transient, "start transcription stream")
	}
	stream := out.GetStream()
	defer stream.Close()

	sendErr := make(chan error, 1)
	go func() {
		defer close(sendErr)
		for _, chunk := range audio.Chunk(pcm, t.maxEvent) {
			event := &types.AudioStreamMemberAudioEvent{
				Value: types.AudioEvent{AudioChunk: chunk},
			}
			if err := stream.Send(ctx, event); err != nil {
				sendErr <- err
				return
			}
		}
		sendErr <- stream.Close()
	}()

	var finals []string
	var lastPartial string
	for event := range stream.Events() {
		te, ok := event.(*types.TranscriptResultStreamMemberTranscriptEvent)
		if !ok {
			continue
		}
		for _, result := range te.Value.Transcript.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			text := aws.ToString(result.Alternatives[0].Transcript)
			if text == "" {
				continue
			}
			if result.IsPartial {
				lastPartial = text
			} else {
				finals = append(finals, text)
			}
		}
	}

	if err := <-sendErr; err != nil {
		return "", apperrors.Wrap(err, apperrors.Transient, "send audio events")
	}
	if err := stream.Err(); err != nil {
		return "", apperrors.Wrap(err, apperrors.Transient, "transcription stream")
	}

	if len(finals) > 0 {
		return strings.TrimSpace(strings.Join(finals, " ")), nil
	}
	return strings.TrimSpace(lastPartial), nil
}
