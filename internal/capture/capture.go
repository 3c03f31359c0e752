// Package capture reads microphone audio as PCM16 frames for the gateway
// client, and plays reply audio back out.
package capture

import (
	"context"
	"encoding/binary"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Capturer reads mono PCM16 from the default input device with
// backpressure: when the consumer falls behind, frames are dropped rather
// than queued without bound.
type Capturer struct {
	outCh        chan []byte
	sampleRate   int
	framesPerBuf int

	mu       sync.Mutex
	stream   *portaudio.Stream
	cancel   context.CancelFunc
	stopOnce sync.Once
	running  bool
}

// New initializes the audio backend and creates a capturer producing
// frames of frameSamples mono samples at sampleRate.
func New(sampleRate, frameSamples, queue int) (*Capturer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Capturer{
		outCh:        make(chan []byte, queue),
		sampleRate:   sampleRate,
		framesPerBuf: frameSamples,
	}, nil
}

// Output returns the channel of captured little-endian PCM16 frames.
func (c *Capturer) Output() <-chan []byte { return c.outCh }

// Start opens the default input device and begins producing frames.
func (c *Capturer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.mu.Unlock()

	buf := make([]int16, c.framesPerBuf)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), c.framesPerBuf, buf)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.stream = stream
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			default:
			}

			if err := stream.Read(); err != nil {
				slog.Debug("microphone read error", "error", err)
				return
			}

			frame := make([]byte, 2*len(buf))
			for i, s := range buf {
				binary.LittleEndian.PutUint16(frame[2*i:], uint16(s))
			}

			select {
			case c.outCh <- frame:
			default:
				slog.Debug("capture queue full, dropping frame")
			}
		}
	}()

	return nil
}

// Stop halts capture and releases the audio backend.
func (c *Capturer) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.cancel != nil {
			c.cancel()
		}
		if c.stream != nil {
			_ = c.stream.Stop()
			_ = c.stream.Close()
		}
		c.running = false
		_ = portaudio.Terminate()
	})
}

// Player writes PCM16 audio to the default output device.
type Player struct {
	stream       *portaudio.Stream
	buf          []int16
	framesPerBuf int
}

// NewPlayer opens the default output device at sampleRate. The caller must
// have initialized the audio backend (capture.New does this).
func NewPlayer(sampleRate, frameSamples int) (*Player, error) {
	buf := make([]int16, frameSamples)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), frameSamples, buf)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, err
	}
	return &Player{stream: stream, buf: buf, framesPerBuf: frameSamples}, nil
}

// Play renders little-endian PCM16 audio, blocking until written out.
func (p *Player) Play(pcm []byte) error {
	samples := len(pcm) / 2
	for off := 0; off < samples; off += p.framesPerBuf {
		n := min(p.framesPerBuf, samples-off)
		for i := 0; i < n; i++ {
			p.buf[i] = int16(binary.LittleEndian.Uint16(pcm[2*(off+i):]))
		}
		// Zero-pad the final partial buffer.
		for i := n; i < p.framesPerBuf; i++ {
			p.buf[i] = 0
		}
		if err := p.stream.Write(); err != nil {
			return err
		}
	}
	return nil
}

// Close stops playback and releases the output stream.
func (p *Player) Close() {
	_ = p.stream.Stop()
	_ = p.stream.Close()
}
