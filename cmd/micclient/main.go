// Microphone client - streams the default input device to a voice gateway
// and plays the spoken replies.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/voicebridge/voicebridge/internal/capture"
	"github.com/voicebridge/voicebridge/internal/resilience"
)

const frameSamples = 2048 // 4096-byte frames, 128 ms at 16 kHz

func main() {
	addr := flag.String("addr", "ws://localhost:8765/ws", "gateway websocket URL")
	rate := flag.Int("rate", 16000, "capture sample rate in Hz")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mic, err := capture.New(*rate, frameSamples, 32)
	if err != nil {
		slog.Error("failed to initialize audio", "error", err)
		os.Exit(1)
	}
	defer mic.Stop()

	player, err := capture.NewPlayer(*rate, frameSamples)
	if err != nil {
		slog.Error("failed to open playback device", "error", err)
		os.Exit(1)
	}
	defer player.Close()

	var conn *websocket.Conn
	err = resilience.Retry(ctx, resilience.DialRetryConfig(), func() error {
		var dialErr error
		conn, _, dialErr = websocket.Dial(ctx, *addr, nil)
		return dialErr
	})
	if err != nil {
		slog.Error("failed to connect", "addr", *addr, "error", err)
		os.Exit(1)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(-1)

	if err := mic.Start(ctx); err != nil {
		slog.Error("failed to start capture", "error", err)
		os.Exit(1)
	}
	slog.Info("streaming microphone", "addr", *addr, "rate", *rate)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case frame := <-mic.Output():
				if err := conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
					return err
				}
			}
		}
	})

	g.Go(func() error {
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return err
			}
			if typ != websocket.MessageBinary {
				continue
			}
			slog.Info("playing reply", "bytes", len(data))
			if err := player.Play(data); err != nil {
				return err
			}
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("client stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("client stopped")
}
