package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/oxistream/oxistream/internal/logging"
	"github.com/oxistream/oxistream/internal/protocol"
	"github.com/oxistream/oxistream/internal/version"
)

const (
	// writeWait bounds a single message write to a client.
	writeWait = 10 * time.Second

	// clientQueueSize is the per-client send buffer. A client that falls
	// this many readings behind is dropped.
	clientQueueSize = 64

	// mDNS advertisement for LAN consumers.
	serviceName   = "oxistream"
	serviceType   = "_oxistream._tcp"
	serviceDomain = "local."
)

// Server fans readings out to WebSocket subscribers.
type Server struct {
	port     int
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a server that will listen on the given TCP port.
func New(port int) *Server {
	return &Server{
		port: port,
		upgrader: websocket.Upgrader{
			// Local-network telemetry stream; any origin may subscribe.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Start listens, registers the mDNS advertisement and serves until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/readings", s.handleReadings)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("could not listen on port %d: %w", s.port, err)
	}

	mdns, err := zeroconf.Register(serviceName, serviceType, serviceDomain, s.port,
		[]string{"version=" + version.Version}, nil)
	if err != nil {
		// Advertisement is best effort; the stream still works by address.
		logging.Warn("mDNS registration failed", zap.Error(err))
	} else {
		defer mdns.Shutdown()
	}

	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logging.Info("reading server listening",
		zap.Int("port", s.port),
		zap.String("service", serviceType),
	)
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleReadings upgrades the connection and registers the subscriber.
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueueSize)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	logging.LogConnection(r.RemoteAddr, "subscriber_connected")

	go s.writePump(c, r.RemoteAddr)

	// Drain (and discard) client frames so pings and close handshakes are
	// processed; the stream is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(c)
	logging.LogConnection(r.RemoteAddr, "subscriber_disconnected")
}

func (s *Server) writePump(c *client, remoteAddr string) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logging.Debug("subscriber write failed",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			s.drop(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// Broadcast sends a reading to every connected subscriber. Subscribers
// whose queue is full are dropped; a stalled client must not hold back
// the live stream.
func (s *Server) Broadcast(r protocol.Reading) {
	msg, err := json.Marshal(r)
	if err != nil {
		logging.Error("could not encode reading", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			delete(s.clients, c)
			close(c.send)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
