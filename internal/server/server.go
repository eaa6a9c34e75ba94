// Package server exposes the date-scoped search pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/agent"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/config"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/fecha"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/filter"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/search"
)

// Searcher asks the document backend a query scoped by a filter expression.
type Searcher interface {
	Ask(ctx context.Context, query, filterExpr string) (search.Answer, error)
}

// Server wires the resolver, filter builder and search backend behind the
// HTTP API.
type Server struct {
	resolver         agent.Resolver
	searcher         Searcher // nil disables /api/search
	filterField      string
	defaultLastMonth bool
	now              func() time.Time

	mux        *http.ServeMux
	httpServer *http.Server
	registry   *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	resolveTotal    *prometheus.CounterVec
	backendDuration prometheus.Histogram
}

// New builds a Server. searcher may be nil when no search backend is
// configured; /api/search then reports 503.
func New(cfg config.Server, resolver agent.Resolver, searcher Searcher, filterField string, defaultLastMonth bool) *Server {
	s := &Server{
		resolver:         resolver,
		searcher:         searcher,
		filterField:      filterField,
		defaultLastMonth: defaultLastMonth,
		now:              time.Now,
		mux:              http.NewServeMux(),
		registry:         prometheus.NewRegistry(),
	}

	s.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchdate",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "status"})
	s.resolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchdate",
		Name:      "resolve_total",
		Help:      "Date resolutions by outcome and shape",
	}, []string{"outcome", "kind"})
	s.backendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "searchdate",
		Name:      "backend_duration_seconds",
		Help:      "Latency of search backend calls",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})
	s.registry.MustRegister(s.requestsTotal, s.resolveTotal, s.backendDuration)

	s.mux.HandleFunc("/api/search", s.handleSearch)
	s.mux.HandleFunc("/api/resolve", s.handleResolve)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe runs the HTTP server until Shutdown.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type resolveResponse struct {
	Query       string           `json:"query"`
	ParsedDates fecha.Resolution `json:"parsed_dates"`
	Filter      string           `json:"filter"`
}

type searchResponse struct {
	Query       string           `json:"query"`
	ParsedDates fecha.Resolution `json:"parsed_dates"`
	Filter      string           `json:"filter"`
	Answer      string           `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	query, ok := s.readQuery(w, r, "/api/resolve")
	if !ok {
		return
	}

	res, filterExpr, ok := s.resolveDates(w, r, "/api/resolve", query)
	if !ok {
		return
	}

	s.writeJSON(w, "/api/resolve", http.StatusOK, resolveResponse{
		Query:       query,
		ParsedDates: res,
		Filter:      filterExpr,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, ok := s.readQuery(w, r, "/api/search")
	if !ok {
		return
	}
	if s.searcher == nil {
		s.writeError(w, "/api/search", http.StatusServiceUnavailable, "no search backend configured")
		return
	}

	res, filterExpr, ok := s.resolveDates(w, r, "/api/search", query)
	if !ok {
		return
	}

	started := s.now()
	answer, err := s.searcher.Ask(r.Context(), query, filterExpr)
	s.backendDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		log.Printf("search backend error: %v", err)
		s.writeError(w, "/api/search", http.StatusBadGateway, "search backend failed")
		return
	}

	s.writeJSON(w, "/api/search", http.StatusOK, searchResponse{
		Query:       query,
		ParsedDates: res,
		Filter:      filterExpr,
		Answer:      answer.Text,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readQuery extracts and unescapes the q parameter, answering 400 when it is
// missing.
func (s *Server) readQuery(w http.ResponseWriter, r *http.Request, route string) (string, bool) {
	raw := r.URL.Query().Get("q")
	if raw == "" {
		s.writeError(w, route, http.StatusBadRequest, "missing 'q' parameter")
		return "", false
	}
	return html.UnescapeString(raw), true
}

// resolveDates runs the configured resolver, optionally applying the
// last-month default, and answers 400 when no date is found.
func (s *Server) resolveDates(w http.ResponseWriter, r *http.Request, route, query string) (fecha.Resolution, string, bool) {
	res, err := s.resolver.ResolveDates(r.Context(), query)
	if err != nil {
		if s.defaultLastMonth {
			res = fecha.LastMonth(s.now())
			s.resolveTotal.WithLabelValues("default", res.Kind().String()).Inc()
		} else {
			log.Printf("resolve failed for %q: %v", query, err)
			s.resolveTotal.WithLabelValues("error", "none").Inc()
			s.writeError(w, route, http.StatusBadRequest, "no valid date found in query")
			return fecha.Resolution{}, "", false
		}
	} else {
		s.resolveTotal.WithLabelValues("ok", res.Kind().String()).Inc()
	}
	return res, filter.Expression(s.filterField, res), true
}

func (s *Server) writeJSON(w http.ResponseWriter, route string, status int, v any) {
	s.requestsTotal.WithLabelValues(route, fmt.Sprint(status)).Inc()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, route string, status int, msg string) {
	s.writeJSON(w, route, status, errorResponse{Error: msg})
}
