// Package web serves the market view over HTML, JSON and WebSocket.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"coin_tracker/internal/infra"
	"coin_tracker/internal/render"
	"coin_tracker/internal/service"

	"github.com/gorilla/websocket"
)

// Server is the HTTP front end.
type Server struct {
	router   *http.ServeMux
	server   *http.Server
	title    string
	market   *service.MarketService
	icons    *service.IconIndex
	renderer *render.Renderer
	metrics  *infra.Metrics
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer wires routes onto a fresh mux.
func NewServer(addr, title string, market *service.MarketService, icons *service.IconIndex, metrics *infra.Metrics) (*Server, error) {
	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}
	if icons == nil {
		icons = service.NewIconIndex()
	}
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}

	s := &Server{
		router:   http.NewServeMux(),
		title:    title,
		market:   market,
		icons:    icons,
		renderer: renderer,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: slog.Default().With("module", "web"),
	}
	s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.HandleFunc("GET /api/coins", s.handleCoinsJSON)
	s.router.HandleFunc("GET /ws", s.handleWS)
	s.router.HandleFunc("GET /icons/{id}", s.handleIcon)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.HandleFunc("GET /metrics", s.handleMetrics)
}

// Handler exposes the router (used by tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting web server", slog.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for handlers.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// iconURL resolves cached icons to the local route.
func (s *Server) iconURL(coinID string) (string, bool) {
	if _, ok := s.icons.Lookup(coinID); ok {
		return "/icons/" + coinID, true
	}
	return "", false
}
