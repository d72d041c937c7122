// Package server exposes the dashboard JSON API: filtered views,
// aggregates, insights, ingestion, and exports over the current table.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"escalboard/internal/config"
	"escalboard/internal/dataset"
)

type Server struct {
	cfg      config.Config
	data     *dataset.Service
	sessions *sessionStore
}

func New(cfg config.Config, data *dataset.Service) *Server {
	return &Server{cfg: cfg, data: data, sessions: newSessionStore()}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/summary", s.handleSummary).Methods("GET")
	api.HandleFunc("/records", s.handleRecords).Methods("GET")
	api.HandleFunc("/aggregates/counts", s.handleCounts).Methods("GET")
	api.HandleFunc("/aggregates/timeseries", s.handleTimeseries).Methods("GET")
	api.HandleFunc("/anomalies", s.handleAnomalies).Methods("GET")
	api.HandleFunc("/forecast", s.handleForecast).Methods("GET")
	api.HandleFunc("/workload", s.handleWorkload).Methods("GET")
	api.HandleFunc("/insights", s.handleInsights).Methods("GET")
	api.HandleFunc("/history", s.handleHistory).Methods("GET")
	api.HandleFunc("/upload", s.handleUpload).Methods("POST")
	api.HandleFunc("/refresh", s.handleRefresh).Methods("POST")
	api.HandleFunc("/export", s.handleExport).Methods("GET")
	api.HandleFunc("/session", s.handleSessionGet).Methods("GET")
	api.HandleFunc("/session", s.handleSessionUpdate).Methods("POST")
	api.HandleFunc("/session/reset", s.handleSessionReset).Methods("POST")

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
