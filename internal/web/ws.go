package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"coin_tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsMaxMessage   = 4096
)

// wsRequest carries the selector state from the browser.
type wsRequest struct {
	Search string `json:"search"`
	Filter string `json:"filter"`
	Sort   string `json:"sort"`
	Page   int    `json:"page"`
}

func (r wsRequest) params() domain.ViewParameters {
	page := r.Page
	if page < 1 {
		page = 1
	}
	return domain.ViewParameters{
		Search:   r.Search,
		Category: domain.ParseCategory(r.Filter),
		Sort:     domain.ParseSortKey(r.Sort),
		Page:     page,
	}
}

// handleWS recomputes the view for every parameter message and pushes a fresh
// page to the client whenever the market list is replaced.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	logger := s.logger.With(slog.String("session", uuid.NewString()))
	logger.Info("WebSocket client connected", slog.String("remote", r.RemoteAddr))

	s.metrics.IncrementClients()
	defer s.metrics.DecrementClients()

	changes, unsubscribe := s.market.Subscribe()
	defer unsubscribe()

	requests := make(chan domain.ViewParameters, 1)
	readDone := make(chan struct{})
	go s.wsReadLoop(conn, requests, readDone, logger)

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	var current *domain.ViewParameters
	for {
		select {
		case <-readDone:
			logger.Info("WebSocket client disconnected")
			return
		case params := <-requests:
			current = &params
			if err := s.wsSend(conn, *current); err != nil {
				logger.Warn("WebSocket write failed", slog.Any("error", err))
				return
			}
		case <-changes:
			if current == nil {
				continue
			}
			if err := s.wsSend(conn, *current); err != nil {
				logger.Warn("WebSocket write failed", slog.Any("error", err))
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// wsReadLoop decodes parameter messages. Only the latest request matters, so
// a pending unread one is replaced.
func (s *Server) wsReadLoop(conn *websocket.Conn, out chan domain.ViewParameters, done chan<- struct{}, logger *slog.Logger) {
	defer close(done)

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error", slog.Any("error", err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var req wsRequest
		if err := json.Unmarshal(message, &req); err != nil {
			logger.Debug("WebSocket message parse error", slog.Any("error", err))
			continue
		}

		select {
		case <-out:
		default:
		}
		out <- req.params()
	}
}

func (s *Server) wsSend(conn *websocket.Conn, params domain.ViewParameters) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(s.buildResponse(params))
}
