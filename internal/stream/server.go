package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	commandQueue = 64
	writeWait    = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server accepts renderer connections on /ws. Each connection gets the
// latest snapshot after every publish and may send JSON commands, which
// are queued for the frame loop.
type Server struct {
	hub      *Hub
	commands chan Command
	logger   *slog.Logger
}

func NewServer(hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		hub:      hub,
		commands: make(chan Command, commandQueue),
		logger:   logger,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Commands is drained by the frame loop between steps.
func (s *Server) Commands() <-chan Command { return s.commands }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("stream listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		var hs websocket.HandshakeError
		if !errors.As(err, &hs) {
			s.logger.Warn("upgrade failed", "err", err)
		}
		return
	}
	s.logger.Info("client connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go s.writeLoop(conn, done)
	s.readLoop(conn)
	close(done)
	conn.Close()
	s.logger.Info("client disconnected", "remote", r.RemoteAddr)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("read failed", "err", err)
			}
			return
		}
		select {
		case s.commands <- cmd:
		default:
			s.logger.Warn("command dropped", "op", cmd.Op)
		}
	}
}

func (s *Server) writeLoop(conn *websocket.Conn, done <-chan struct{}) {
	notify := s.hub.Subscribe()
	defer s.hub.Unsubscribe(notify)

	last := -1
	send := func() bool {
		frame, msg := s.hub.Snapshot()
		if msg == nil || frame == last {
			return true
		}
		last = frame
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			s.logger.Debug("write failed", "err", err)
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-notify:
			if !send() {
				return
			}
		}
	}
}
