package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"screener/internal/dashboard"
	"screener/internal/heatmap"
	"screener/internal/store"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// errBadRequest marks malformed query parameters.
var errBadRequest = errors.New("bad request")

// Server serves the dashboard HTTP API.
type Server struct {
	svc *dashboard.Service
	log *slog.Logger
}

// NewServer creates a Server over svc.
func NewServer(svc *dashboard.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dates", s.handleDates)
	mux.HandleFunc("GET /api/snapshots", s.handleSnapshots)
	mux.HandleFunc("GET /api/stocks/{ticker}", s.handleStock)
	mux.HandleFunc("GET /api/heatmap", s.handleHeatmap)
	mux.HandleFunc("GET /api/history/{ticker}", s.handleHistory)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/preferences", s.handleGetPreferences)
	mux.HandleFunc("PUT /api/preferences", s.handlePutPreferences)
	mux.HandleFunc("GET /api/watchlist", s.handleGetWatchlist)
	mux.HandleFunc("PUT /api/watchlist/{symbol}", s.handleAddWatchlist)
	mux.HandleFunc("DELETE /api/watchlist/{symbol}", s.handleRemoveWatchlist)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
}

// Handler returns an http.Handler with request-ID, logging and CORS
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return requestIDMiddleware(s.logMiddleware(corsMiddleware(mux)))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware keeps a caller-supplied request ID or assigns one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", r.Header.Get(RequestIDHeader),
		)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, store.ErrInvalidDate),
		errors.Is(err, heatmap.ErrUnknownGroupBy),
		errors.Is(err, heatmap.ErrUnknownWeightMetric),
		errors.Is(err, dashboard.ErrInvalidPreferences):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrWatchlistUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err,
			"request_id", r.Header.Get(RequestIDHeader))
	}
	writeError(w, status, err.Error())
}

// queryInt parses an optional non-negative integer parameter.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}

// queryFloat parses an optional positive canvas dimension.
func queryFloat(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number", errBadRequest, name)
	}
	return f, nil
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dates, err := s.svc.Dates(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, DatesResponse{Dates: dates})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Snapshots(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))
	v, err := s.svc.Stock(r.Context(), r.URL.Query().Get("date"), ticker)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dashboard.HeatmapRequest{
		Date:    q.Get("date"),
		GroupBy: q.Get("groupBy"),
		SizeBy:  q.Get("sizeBy"),
	}
	var err error
	if req.Width, err = queryFloat(r, "width"); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Height, err = queryFloat(r, "height"); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.svc.Heatmap(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))
	maxPoints, err := queryInt(r, "max")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.svc.History(r.Context(), ticker, maxPoints)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.Summary(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if doc == nil {
		doc = json.RawMessage("null")
	}
	writeJSON(w, doc)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Preferences(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var p store.Preferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.fail(w, r, fmt.Errorf("%w: decoding preferences: %v", errBadRequest, err))
		return
	}
	saved, err := s.svc.SavePreferences(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, saved)
}

func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	wl := s.svc.Watchlist()
	if wl == nil {
		writeJSON(w, WatchlistResponse{Symbols: []string{}})
		return
	}
	symbols, err := wl.Symbols()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, WatchlistResponse{Symbols: symbols})
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	if err := s.svc.Watchlist().Add(symbol); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	if err := s.svc.Watchlist().Remove(symbol); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
