package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cpsync/internal/config"
	"cpsync/internal/status"
)

// Server exposes a read-only view of the sync loops over HTTP.
type Server struct {
	cfg     *config.Config
	status  *status.Store
	logger  *slog.Logger
	version string
}

type statusResponse struct {
	Status  string               `json:"status"`
	Time    string               `json:"time"`
	Version string               `json:"version"`
	Storage storageStatus        `json:"storage"`
	Publish publishStatus        `json:"publish"`
	Upload  uploadStatus         `json:"upload"`
	Workers []status.CycleStatus `json:"workers"`
}

type storageStatus struct {
	Driver string `json:"driver"`
}

type publishStatus struct {
	Enabled bool   `json:"enabled"`
	Topic   string `json:"topic,omitempty"`
}

type uploadStatus struct {
	Enabled bool   `json:"enabled"`
	Bucket  string `json:"bucket,omitempty"`
}

// Start serves the status API until ctx is cancelled. Returns nil when the
// API is disabled.
func Start(ctx context.Context, cfg *config.Config, statusStore *status.Store, logger *slog.Logger, version string) *http.Server {
	if !cfg.Status.Enabled {
		logger.Info("status api disabled")
		return nil
	}
	logger.Info("status api enabled", "addr", cfg.Status.Addr)
	server := &Server{
		cfg:     cfg,
		status:  statusStore,
		logger:  logger,
		version: version,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", server.handleHealth)
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/failures", server.handleFailures)

	httpServer := &http.Server{Addr: cfg.Status.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status api server error", "err", err)
		}
	}()
	return httpServer
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp := statusResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Version: s.version,
		Storage: storageStatus{Driver: s.cfg.Storage.Driver},
		Publish: publishStatus{Enabled: s.cfg.Publish.Enabled, Topic: s.cfg.Publish.Topic},
		Upload:  uploadStatus{Enabled: s.cfg.Upload.Enabled, Bucket: s.cfg.Upload.Bucket},
		Workers: s.status.Workers(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFailures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	list := s.status.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"failures": list,
		"count":    len(list),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
