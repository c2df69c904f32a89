package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wmsyafiq/Script-Playwright-Demo/internal/metrics"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/progress"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/walk"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		// The demo pages are served same-host; cross-origin observers are fine.
		return true
	},
}

// actionMessage is an inbound client trigger.
type actionMessage struct {
	Action string `json:"action"`
}

// Supported inbound actions.
const (
	actionStart  = "start_logger"
	actionCancel = "cancel_run"
)

// wsClient serializes writes to one connection; events arrive from the hub
// goroutine while acks come from the read loop.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(v)
}

func (c *wsClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// handleWS upgrades the connection, streams hub events to the client, and
// reads start/cancel triggers.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &wsClient{conn: conn}

	metrics.IncWSClients()
	defer metrics.DecWSClients()
	s.logger.Info("websocket client connected", zap.String("remote_addr", r.RemoteAddr))

	events, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	// The request context dies with the handler only when the read loop
	// returns, so the writer keys off a private done channel instead.
	done := make(chan struct{})
	go s.writePump(client, events, done)

	s.readPump(client)
	close(done)
	_ = conn.Close()
	s.logger.Info("websocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

func (s *Server) readPump(client *wsClient) {
	client.conn.SetReadLimit(1024)
	_ = client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg actionMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		switch msg.Action {
		case actionStart:
			s.handleStartAction(client)
		case actionCancel:
			s.cancel(context.Background())
		default:
			s.logger.Warn("unknown websocket action", zap.String("action", msg.Action))
			_ = client.writeJSON(map[string]string{"error": "unknown action"})
		}
	}
}

func (s *Server) handleStartAction(client *wsClient) {
	runID, err := s.start(context.Background())
	if err != nil {
		if errors.Is(err, walk.ErrRunActive) {
			_ = client.writeJSON(map[string]string{"status": "busy"})
			return
		}
		_ = client.writeJSON(map[string]string{"error": err.Error()})
		return
	}
	_ = client.writeJSON(map[string]string{"status": "started", "run_id": runID})
}

func (s *Server) writePump(client *wsClient, events <-chan progress.Event, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := client.writeJSON(wireEvent(evt)); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// wireEvent shapes an Event for the wire: log {message}, progress {percent},
// status {running}.
func wireEvent(evt progress.Event) any {
	switch evt.Kind {
	case progress.KindLog:
		return struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{Type: string(evt.Kind), Message: evt.Message}
	case progress.KindProgress:
		return struct {
			Type    string `json:"type"`
			Percent int    `json:"percent"`
		}{Type: string(evt.Kind), Percent: evt.Percent}
	default:
		return struct {
			Type    string `json:"type"`
			Running bool   `json:"running"`
		}{Type: string(evt.Kind), Running: evt.Running}
	}
}
