package headunit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"drivesync/internal/reconciler"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Head units connect from the car's own network stack.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Session is the reconciler-facing contract the server drives.
type Session interface {
	Connection(ev reconciler.ConnectionEvent) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	StopPlayback(ctx context.Context) error
	PlayByID(ctx context.Context, id string) error
}

// Server exposes the session and browse channels over WebSocket and relays
// transport commands to the reconciler. It is also a surface.Publisher:
// published surfaces are broadcast to every attached client.
type Server struct {
	session Session
	log     *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	// Per-channel attach counts; the reconciler sees one connected edge
	// per channel, however many head unit sockets share it.
	attached map[reconciler.Channel]int
}

type client struct {
	id      string
	channel reconciler.Channel
	conn    *websocket.Conn
	send    chan []byte
}

// NewServer creates a head unit channel server. The server is also the
// reconciler's surface publisher, so the session is bound separately with
// SetSession once the reconciler exists.
func NewServer(log *zap.Logger) *Server {
	return &Server{
		log:      log.Named("headunit"),
		clients:  make(map[*client]struct{}),
		attached: make(map[reconciler.Channel]int),
	}
}

// SetSession binds the reconciler. Must be called before Register.
func (s *Server) SetSession(session Session) {
	s.session = session
}

// Register installs the channel endpoints on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws/session", s.handleChannel(reconciler.ChannelSession))
	mux.HandleFunc("/ws/browse", s.handleChannel(reconciler.ChannelBrowse))
}

func (s *Server) handleChannel(ch reconciler.Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		c := &client{
			id:      uuid.NewString(),
			channel: ch,
			conn:    conn,
			send:    make(chan []byte, sendBufferSize),
		}

		if err := s.attach(c); err != nil {
			s.log.Warn("client rejected",
				zap.Stringer("channel", ch), zap.Error(err))
			conn.Close()
			return
		}

		go c.writePump()
		go s.readPump(c)
	}
}

// attach registers the client and fires the channel's connected edge when
// it is the first socket on that channel.
func (s *Server) attach(c *client) error {
	s.mu.Lock()
	first := s.attached[c.channel] == 0
	s.attached[c.channel]++
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	if !first {
		return nil
	}
	err := s.session.Connection(reconciler.ConnectionEvent{
		Channel: c.channel,
		Kind:    reconciler.Connected,
	})
	if err != nil {
		s.detachCounts(c)
		return err
	}
	s.log.Info("client attached",
		zap.String("client", c.id), zap.Stringer("channel", c.channel))
	return nil
}

func (s *Server) detachCounts(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	if s.attached[c.channel] > 0 {
		s.attached[c.channel]--
	}
	s.mu.Unlock()
}

// detach unregisters the client and fires the disconnected edge when it was
// the channel's last socket.
func (s *Server) detach(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, c)
	s.attached[c.channel]--
	last := s.attached[c.channel] == 0
	s.mu.Unlock()

	close(c.send)
	if last {
		if err := s.session.Connection(reconciler.ConnectionEvent{
			Channel: c.channel,
			Kind:    reconciler.Disconnected,
		}); err != nil && !errors.Is(err, reconciler.ErrClosed) {
			s.log.Warn("disconnect event rejected", zap.Error(err))
		}
	}
	s.log.Info("client detached",
		zap.String("client", c.id), zap.Stringer("channel", c.channel))
}

// readPump consumes command frames until the socket dies.
func (s *Server) readPump(c *client) {
	defer func() {
		s.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("client read failed",
					zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		s.dispatch(c, frame)
	}
}

// dispatch relays one command frame to the reconciler. Command failures go
// back to the issuing client only.
func (s *Server) dispatch(c *client, frame Frame) {
	ctx := context.Background()
	var err error
	switch frame.Type {
	case FrameTypePlay:
		err = s.session.Play(ctx)
	case FrameTypePause:
		err = s.session.Pause(ctx)
	case FrameTypeStop:
		err = s.session.StopPlayback(ctx)
	case FrameTypePlayByID:
		err = s.session.PlayByID(ctx, frame.TrackID)
	default:
		s.log.Debug("unknown frame type",
			zap.String("client", c.id), zap.String("type", frame.Type))
		return
	}
	if err != nil {
		s.sendError(c, err)
	}
}

func (s *Server) sendError(c *client, err error) {
	payload, marshalErr := json.Marshal(Frame{
		Type:    FrameTypeError,
		Message: err.Error(),
	})
	if marshalErr != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		// Slow client; the next state change republishes anyway.
	}
}

// writePump delivers broadcast frames and keepalive pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close drops every client. Channel disconnect edges fire as readPumps
// unwind.
func (s *Server) Close() {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()
	for _, c := range clients {
		c.conn.Close()
	}
}
