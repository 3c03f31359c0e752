// Package session orchestrates one voice conversation over a duplex
// connection: classifying inbound PCM16 frames, buffering the current
// utterance, detecting the pause that ends a turn, and dispatching at most
// one pipeline call at a time.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/voicebridge/voicebridge/internal/audio"
	apperrors "github.com/voicebridge/voicebridge/internal/errors"
	"github.com/voicebridge/voicebridge/internal/metrics"
	"github.com/voicebridge/voicebridge/internal/syncx"
	"github.com/voicebridge/voicebridge/internal/trace"
	"github.com/voicebridge/voicebridge/internal/turn"
	"github.com/voicebridge/voicebridge/internal/vad"
)

// Conn is the transport seen by a session: binary audio frames in both
// directions. ReadFrame returns io.EOF on a clean peer close.
type Conn interface {
	ReadFrame(ctx context.Context) ([]byte, error)
	WriteFrame(ctx context.Context, frame []byte) error
}

// Pipeline processes one finished utterance and returns reply audio.
// A nil reply with nil error means the turn produced nothing to say.
type Pipeline interface {
	Run(ctx context.Context, pcm []byte) ([]byte, error)
}

// Config holds the per-session tunables.
type Config struct {
	SampleRate       int
	SilenceThreshold float64
	Pause            time.Duration
	MinUtterance     time.Duration
	MaxChunkBytes    int
}

type result struct {
	audio []byte
	err   error
}

// Session runs the conversation loop for one connection. All state is
// owned by the Run goroutine; the pipeline call is the only concurrent
// part, fenced by the single-flight latch.
type Session struct {
	id   string
	conn Conn
	pipe Pipeline
	cfg  Config

	segment   *audio.Segment
	debouncer *turn.Debouncer
	flight    syncx.Flight
	silentRun time.Duration // content time of the current silence run

	results chan result
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New creates a session for one accepted connection.
func New(id string, conn Conn, pipe Pipeline, cfg Config, m *metrics.Metrics) *Session {
	return &Session{
		id:        id,
		conn:      conn,
		pipe:      pipe,
		cfg:       cfg,
		segment:   audio.NewSegment(cfg.SampleRate),
		debouncer: turn.NewDebouncer(cfg.Pause),
		results:   make(chan result, 1),
		metrics:   m,
		log:       slog.Default(),
	}
}

// Run drives the session until the peer disconnects or ctx is cancelled.
// It returns nil on a clean close.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx, span := trace.StartSpan(ctx, "session")
	defer span.End()
	s.log = trace.Logger(ctx).With("session", s.id)

	start := time.Now()
	s.metrics.SessionOpened()
	defer func() { s.metrics.SessionClosed(time.Since(start).Seconds()) }()
	defer s.debouncer.Disarm()

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(frames)
		for {
			frame, err := s.conn.ReadFrame(ctx)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
	}()

	s.log.Info("session started")
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return s.shutdown(ctx, <-readErr)
			}
			s.handleFrame(ctx, frame)
		case <-s.debouncer.Fired():
			s.firePause(ctx, "timer")
		case res := <-s.results:
			if err := s.deliver(ctx, res); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleFrame classifies one inbound frame and updates the segment and
// the pause machinery.
func (s *Session) handleFrame(ctx context.Context, frame []byte) {
	s.metrics.FrameReceived(len(frame))
	if len(frame) < 2 {
		// Undersized frames carry no samples; absence of data is silence.
		return
	}
	if len(frame)%2 != 0 {
		s.log.Debug("truncating odd-length frame",
			"bytes", len(frame),
			"error", apperrors.New(apperrors.MalformedFrame, "odd-length PCM16 frame"))
		frame = frame[:len(frame)-1]
	}

	res := vad.Classify(frame, s.cfg.SilenceThreshold)
	if !res.Silent {
		// Sound resumed: any quiet gap belongs inside the utterance.
		s.segment.PromoteSilence()
		s.segment.AppendSpeech(frame)
		s.silentRun = 0
		s.debouncer.Arm()
		return
	}

	// Silence before any speech carries no utterance; drop it.
	if s.segment.SpeechBytes() == 0 {
		return
	}

	s.segment.AppendSilence(frame)
	s.silentRun += frameDuration(len(frame), s.cfg.SampleRate)

	// Frames can arrive faster than real time. Once the audio itself
	// carries a full pause, fire without waiting for the wall clock.
	if s.silentRun >= s.cfg.Pause {
		s.silentRun = 0
		s.debouncer.Disarm()
		s.firePause(ctx, "immediate")
	}
}

// firePause handles one pause event: drop it if a reply is already in
// flight, discard accidental blips, otherwise hand the utterance to the
// pipeline. path tags the metrics with how the pause was detected.
func (s *Session) firePause(ctx context.Context, path string) {
	s.metrics.PauseEvent(path)
	if s.segment.SpeechBytes() == 0 {
		return
	}

	if s.flight.InFlight() {
		// Keep the audio; re-arm so the turn dispatches after the
		// in-flight reply completes even if no more frames arrive.
		s.metrics.DispatchDropped("busy")
		s.log.Debug("pause while reply in flight, retaining audio", "path", path)
		s.debouncer.Arm()
		return
	}

	if secs := s.segment.SpeechSeconds(); secs < s.cfg.MinUtterance.Seconds() {
		s.metrics.DispatchDropped("short")
		s.log.Debug("discarding short utterance", "seconds", secs)
		s.segment.TakeAndClear()
		s.silentRun = 0
		return
	}

	if !s.flight.TryBegin() {
		s.log.Error("dispatch latch contended outside session loop")
		return
	}

	pcm := s.segment.TakeAndClear()
	s.silentRun = 0
	s.debouncer.Disarm()
	s.metrics.DispatchStarted()
	s.log.Info("dispatching utterance", "bytes", len(pcm), "path", path)

	go func() {
		audio, err := s.pipe.Run(ctx, pcm)
		s.results <- result{audio: audio, err: err}
	}()
}

// deliver sends one pipeline result back over the connection in order,
// chunked to the transport cap. Pipeline failures are logged and dropped;
// only a transport failure ends the session.
func (s *Session) deliver(ctx context.Context, res result) error {
	defer func() {
		if !s.flight.End() {
			s.log.Error("released idle dispatch latch")
		}
	}()

	if res.err != nil {
		s.log.Warn("turn failed, no reply sent", "error", res.err)
		return nil
	}
	if len(res.audio) == 0 {
		return nil
	}

	chunks := audio.Chunk(res.audio, s.cfg.MaxChunkBytes)
	for _, chunk := range chunks {
		if err := s.conn.WriteFrame(ctx, chunk); err != nil {
			return apperrors.Wrap(err, apperrors.ConnectionClosed, "write response chunk")
		}
	}
	s.metrics.ResponseSent(len(res.audio), len(chunks))
	s.log.Info("reply delivered", "bytes", len(res.audio), "chunks", len(chunks))
	return nil
}

// shutdown runs after the reader stops: waits out an in-flight turn,
// flushes any retained utterance through the normal pause path, and maps
// clean closes to nil.
func (s *Session) shutdown(ctx context.Context, readErr error) error {
	if s.flight.InFlight() {
		select {
		case res := <-s.results:
			if err := s.deliver(ctx, res); err != nil {
				s.log.Debug("reply dropped during shutdown", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.firePause(ctx, "flush")
	if s.flight.InFlight() {
		select {
		case res := <-s.results:
			if err := s.deliver(ctx, res); err != nil {
				s.log.Debug("reply dropped during shutdown", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if readErr != nil && !isNormalClose(readErr) {
		return readErr
	}
	s.log.Info("session closed")
	return nil
}

func isNormalClose(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		apperrors.IsCode(err, apperrors.ConnectionClosed)
}

// frameDuration converts a PCM16 mono byte count to content time.
func frameDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(2*sampleRate)
}
