// Voice gateway server - accepts websocket voice sessions and answers each
// spoken turn through transcription, generation and synthesis.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"golang.org/x/sync/errgroup"

	"github.com/voicebridge/voicebridge/internal/config"
	"github.com/voicebridge/voicebridge/internal/metrics"
	"github.com/voicebridge/voicebridge/internal/pipeline"
	"github.com/voicebridge/voicebridge/internal/pipeline/generate"
	"github.com/voicebridge/voicebridge/internal/pipeline/synthesize"
	"github.com/voicebridge/voicebridge/internal/pipeline/transcribe"
	"github.com/voicebridge/voicebridge/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	if cfg.Generate.APIKey == "" {
		slog.Error("OPENAI_API_KEY is not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Transcribe.Region))
	if err != nil {
		slog.Error("failed to load AWS credentials", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	pipe := pipeline.New(
		transcribe.New(transcribestreaming.NewFromConfig(awsCfg), cfg.Transcribe, cfg.Audio.SampleRate),
		generate.New(cfg.Generate),
		synthesize.New(polly.NewFromConfig(awsCfg, func(o *polly.Options) {
			o.Region = cfg.Synthesize.Region
		}), cfg.Synthesize, cfg.Audio.SampleRate),
		m,
	)
	srv := server.New(cfg, pipe, m)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("voice gateway starting", "addr", cfg.Server.Addr,
			"sample_rate", cfg.Audio.SampleRate, "pause", cfg.Pause())
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
