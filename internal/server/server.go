// Package server accepts websocket connections and runs one voice session
// per connection, alongside the health and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voicebridge/voicebridge/internal/config"
	"github.com/voicebridge/voicebridge/internal/metrics"
	"github.com/voicebridge/voicebridge/internal/session"
	"github.com/voicebridge/voicebridge/internal/syncx"
	"github.com/voicebridge/voicebridge/internal/trace"
)

// Server handles HTTP and websocket connections.
type Server struct {
	cfg      *config.Config
	pipe     session.Pipeline
	metrics  *metrics.Metrics
	sessions syncx.Map[string, string] // session id -> remote addr
	nextID   atomic.Uint64
}

// New creates a server dispatching each connection to pipe.
func New(cfg *config.Config, pipe session.Pipeline, m *metrics.Metrics) *Server {
	return &Server{cfg: cfg, pipe: pipe, metrics: m}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return trace.Middleware(mux)
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	return s.sessions.Len()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	// Inbound frames are small client captures; outbound chunks are capped
	// by the chunker. No transport-level read cap needed.
	conn.SetReadLimit(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := fmt.Sprintf("s-%06d", s.nextID.Add(1))
	log := trace.Logger(ctx).With("session", id)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	s.sessions.Store(id, r.RemoteAddr)
	defer s.sessions.Delete(id)

	go s.keepalive(ctx, conn, cancel, log)

	sess := session.New(id, &wsConn{conn: conn}, s.pipe, session.Config{
		SampleRate:       s.cfg.Audio.SampleRate,
		SilenceThreshold: s.cfg.Turn.SilenceThreshold,
		Pause:            s.cfg.Pause(),
		MinUtterance:     s.cfg.MinUtterance(),
		MaxChunkBytes:    s.cfg.Server.MaxChunkBytes,
	}, s.metrics)

	if err := sess.Run(ctx); err != nil {
		log.Warn("session ended with error", "error", err)
		_ = conn.Close(websocket.StatusInternalError, "session error")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// keepalive pings the peer on an interval and tears the session down when
// a pong does not come back in time.
func (s *Server) keepalive(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, log *slog.Logger) {
	ticker := time.NewTicker(s.cfg.Server.PingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, s.cfg.Server.PingTimeout())
			err := conn.Ping(pingCtx)
			pingCancel()
			if err != nil {
				if ctx.Err() == nil {
					log.Info("keepalive failed, closing session", "error", err)
				}
				cancel()
				return
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.SessionCount(),
	})
}

// wsConn adapts a websocket connection to the session transport. Text
// messages are ignored; a clean peer close reads as io.EOF.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadFrame(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil, io.EOF
			}
			return nil, err
		}
		if typ != websocket.MessageBinary {
			continue
		}
		return data, nil
	}
}

func (c *wsConn) WriteFrame(ctx context.Context, frame []byte) error {
	return c.conn.Write(ctx, websocket.MessageBinary, frame)
}
