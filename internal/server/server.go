// Package server exposes the scanner over HTTP: an upload endpoint that
// returns the analysis as JSON or a PDF report, and a liveness probe.
package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/umlkit/usecase-scan/internal/config"
	"github.com/umlkit/usecase-scan/internal/scan"
)

// AnalyzeFunc runs one analysis over an uploaded image file. A zero
// confidence means the configured default; trace requests per-stage
// output for debug overlays.
type AnalyzeFunc func(path string, confidence float64, trace bool) (*scan.Analysis, error)

// Server routes HTTP requests to the scanner.
type Server struct {
	analyze AnalyzeFunc
	cfg     *config.Config
	router  *mux.Router
}

// New builds a server around the analyze function.
func New(analyze AnalyzeFunc, cfg *config.Config) *Server {
	s := &Server{analyze: analyze, cfg: cfg}

	r := mux.NewRouter()
	r.HandleFunc("/detect", s.handleDetect).Methods("POST")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router = r
	return s
}

// Handler returns the routing handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP on the configured address.
func (s *Server) Start() error {
	srv := &http.Server{
		Handler:      s.router,
		Addr:         s.cfg.ListenAddr,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	log.Printf("listening on %s", srv.Addr)
	return srv.ListenAndServe()
}
