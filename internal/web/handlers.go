package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"coin_tracker/internal/domain"
	"coin_tracker/internal/render"
	"coin_tracker/internal/view"
)

// viewResponse is the JSON shape shared by /api/coins and /ws.
type viewResponse struct {
	Search     string        `json:"search"`
	Filter     string        `json:"filter"`
	Sort       string        `json:"sort"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
	HasPrev    bool          `json:"has_prev"`
	HasNext    bool          `json:"has_next"`
	UpdatedAt  *time.Time    `json:"updated_at,omitempty"`
	Coins      []domain.Coin `json:"coins"`
	Rows       []render.Row  `json:"rows"`
}

// parsePage turns user input into a page number; anything unusable is page 1.
func parsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func paramsFromQuery(r *http.Request) domain.ViewParameters {
	q := r.URL.Query()
	return domain.ViewParameters{
		Search:   q.Get("q"),
		Category: domain.ParseCategory(q.Get("filter")),
		Sort:     domain.ParseSortKey(q.Get("sort")),
		Page:     parsePage(q.Get("page")),
	}
}

func (s *Server) buildResponse(params domain.ViewParameters) viewResponse {
	page := s.market.View(params)

	resp := viewResponse{
		Search:     params.Search,
		Filter:     params.Category.String(),
		Sort:       params.Sort.String(),
		Page:       params.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		HasPrev:    view.HasPrev(params.Page),
		HasNext:    view.HasNext(params.Page, page.TotalPages),
		Coins:      page.Coins,
		Rows:       render.NewRows(page.Coins, s.iconURL),
	}
	if ts := s.market.FetchedAt(); !ts.IsZero() {
		resp.UpdatedAt = &ts
	}
	return resp
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	params := paramsFromQuery(r)
	page := s.market.View(params)
	pv := render.BuildPageView(s.title, page, params, s.market.FetchedAt(), s.iconURL)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, pv); err != nil {
		s.logger.Error("Failed to render page", slog.Any("error", err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func (s *Server) handleCoinsJSON(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.buildResponse(paramsFromQuery(r)))
}

func (s *Server) handleIcon(w http.ResponseWriter, r *http.Request) {
	path, ok := s.icons.Lookup(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"ok":      true,
		"records": len(s.market.Records()),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.metrics.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", slog.Any("error", err))
	}
}
