// Package control serves the operator surface: the current filter and
// destination catalog, the dispatch history, the pairing payload, and the
// form that replaces the filter.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sjsage522/listingwatcher/logger"
	"sjsage522/listingwatcher/services/dispatchlog"
	"sjsage522/listingwatcher/services/notifier"
	"sjsage522/listingwatcher/services/settings"
	"sjsage522/listingwatcher/services/worker"
)

// PipelineState reports where the pipeline currently is
type PipelineState interface {
	State() worker.State
}

// SeenCounter reports the size of the seen set
type SeenCounter interface {
	Len() int
}

// Dependencies are the read and write targets of the control surface.
// Pipeline, Seen and Pairing may be nil.
type Dependencies struct {
	Settings    *settings.Store
	DispatchLog *dispatchlog.Log
	Pipeline    PipelineState
	Seen        SeenCounter
	Pairing     notifier.PairingSource
}

// Server is the HTTP control surface
type Server struct {
	Dependencies
	srv *http.Server
	log *logger.Logger
}

// NewServer creates a control server listening on addr
func NewServer(addr string, deps Dependencies) *Server {
	s := &Server{
		Dependencies: deps,
		log:          logger.ForControl(),
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /set", s.handleSet)
	mux.HandleFunc("GET /log", s.handleLog)
	mux.HandleFunc("GET /chart", s.handleChart)
	mux.HandleFunc("GET /pairing", s.handlePairing)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.logRequests(mux)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("Control surface listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
