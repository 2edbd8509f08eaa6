// Package wstouch feeds touch gestures from a remote surface (typically a
// phone browser) into a dispatch.Bus over WebSocket.
//
// Clients connect to /touch and send one JSON message per touch transition:
//
//	{"phase":"began","id":3,"x":120,"y":480,"ts":1712345678901,"focus":true}
//
// phase is "began" or "ended"; ts is milliseconds since the Unix epoch and
// may be omitted; focus defaults to true when omitted.
package wstouch

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/veldra/helmsman/dispatch"
	"github.com/veldra/helmsman/geom"
)

// Message is the wire format for one touch transition.
type Message struct {
	Phase string  `json:"phase"`
	ID    int64   `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	TS    int64   `json:"ts,omitempty"`
	Focus *bool   `json:"focus,omitempty"`
}

// ServerConfig represents the touch feed configuration.
type ServerConfig struct {
	Addr string `help:"Touch feed listen address" default:":8632" env:"HELMSMAN_TOUCH_ADDR"`
}

// Server accepts WebSocket connections and publishes their touch messages to
// a bus.
type Server struct {
	bus    *dispatch.Bus
	config ServerConfig
	logger *slog.Logger

	ln  net.Listener
	srv *http.Server
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local-network tool; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func New(bus *dispatch.Bus, config ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{bus: bus, config: config, logger: logger}
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/touch", s.handleTouch)
	s.srv = &http.Server{Handler: mux}

	s.logger.Info("touch feed listening", "addr", ln.Addr().String())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("touch feed stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the actual listen address, useful when configured with :0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.config.Addr
	}
	return s.ln.Addr().String()
}

// Close shuts the server down and drops all client connections.
func (s *Server) Close() {
	if s.srv != nil {
		_ = s.srv.Shutdown(context.Background())
	}
}

func (s *Server) handleTouch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("touch feed upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	s.logger.Info("touch client connected", "remote", r.RemoteAddr)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("touch client disconnected", "remote", r.RemoteAddr)
			} else {
				s.logger.Warn("touch client read failed", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		s.publish(msg, r.RemoteAddr)
	}
}

func (s *Server) publish(msg Message, remote string) {
	ev := dispatch.TouchEvent{
		ID:   msg.ID,
		Pos:  geom.Vec2{X: msg.X, Y: msg.Y},
		Time: time.Now(),
	}
	if msg.TS != 0 {
		ev.Time = time.UnixMilli(msg.TS)
	}
	focus := true
	if msg.Focus != nil {
		focus = *msg.Focus
	}

	switch msg.Phase {
	case "began":
		s.bus.PublishBegan(ev, focus)
	case "ended":
		s.bus.PublishEnded(ev, focus)
	default:
		s.logger.Warn("touch message with unknown phase", "remote", remote, "phase", msg.Phase)
	}
}
