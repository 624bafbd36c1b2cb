// Package ws is the WebSocket transport collaborator: it accepts
// connections, decodes frames and drives the routing core through its
// OnOpen/OnMessage/OnClose callbacks.
package ws

import (
	"chat-hub/contract"
	"chat-hub/observability"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from peer.
	maxFrameSize = 8192

	closeTimeout = 5 * time.Second
)

type Server struct {
	log        *slog.Logger
	core       contract.ICore
	monitoring *observability.Monitoring
	bufferSize int
	upgrader   websocket.Upgrader
	validate   *validator.Validate
}

func NewServer(log *slog.Logger, core contract.ICore, monitoring *observability.Monitoring, bufferSize int) *Server {
	return &Server{
		log:        log,
		core:       core,
		monitoring: monitoring,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO restrict origins once the deployment domain is fixed
				return true
			},
		},
		validate: validator.New(),
	}
}

// Routes mounts the transport endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.monitoring.GetLatest())
}

// handleWS upgrades the connection, registers it with the core and runs
// the read loop until the peer goes away. Both graceful and abrupt
// disconnections funnel into the same OnClose call.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	connID := uuid.NewString()
	client := NewClient(connID, conn, s.bufferSize)

	if err := s.core.OnOpen(connID, client); err != nil {
		s.log.Error("Connection rejected", "conn_id", connID, "error", err)
		_ = conn.Close()
		return
	}

	go s.writePump(client)
	s.readPump(r.Context(), client)

	// Read loop ended: tear the session down before releasing the socket.
	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	s.core.OnClose(closeCtx, connID)
	cancel()

	client.Close()
	_ = conn.Close()
}

// readPump decodes inbound frames and hands them to the core. Invalid
// frames are dropped with a log line; the connection stays up.
func (s *Server) readPump(ctx context.Context, client *Client) {
	conn := client.conn
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame InboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Connection dropped", "conn_id", client.connID, "error", err)
			}
			return
		}
		if err := s.validate.Struct(frame); err != nil {
			s.log.Debug("Invalid frame", "conn_id", client.connID, "error", err)
			continue
		}
		s.core.OnMessage(ctx, client.connID, frame.Destination, toChatEvent(frame))
	}
}

// writePump drains the client's event buffer onto the socket and keeps
// the connection alive with pings. A write error ends the pump; the read
// side then observes the broken socket and triggers OnClose.
func (s *Server) writePump(client *Client) {
	conn := client.conn
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e := <-client.events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(toOutboundFrame(e)); err != nil {
				s.log.Warn("Write failed", "conn_id", client.connID, "error", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-client.done:
			return
		}
	}
}
