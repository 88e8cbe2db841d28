package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/korosuke613/ghasweep/config"
	"github.com/korosuke613/ghasweep/sweep"
)

// StatusProvider supplies sweep state for the status endpoints.
type StatusProvider interface {
	GetLastSweepTime() time.Time
	GetTotalDeleted() int
	GetPolicyStatuses() []sweep.PolicyStatus
}

// Server is the health/status API server.
type Server struct {
	config         *config.WebAPIConfig
	appConfig      *config.Config
	httpServer     *http.Server
	statusProvider StatusProvider
	startTime      time.Time
	mu             sync.RWMutex
}

// NewServer creates a new API server.
func NewServer(cfg *config.WebAPIConfig, appCfg *config.Config) *Server {
	return &Server{
		config:    cfg,
		appConfig: appCfg,
		startTime: time.Now(),
	}
}

// SetStatusProvider sets the status provider.
func (s *Server) SetStatusProvider(provider StatusProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusProvider = provider
}

// Start starts the API server.
func (s *Server) Start() error {
	if !s.config.Enabled {
		slog.Info("web API server is disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/policies", s.handlePolicies)
	mux.HandleFunc("/config", s.handleConfig)

	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("API server started", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the API server down.
func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("failed to stop API server", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service": "ghasweep",
		"endpoints": []map[string]string{
			{"path": "/healthz", "description": "Health check"},
			{"path": "/status", "description": "Service status (uptime, last sweep, deleted total)"},
			{"path": "/policies", "description": "Registered retention policies"},
			{"path": "/config", "description": "Public configuration"},
		},
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	provider := s.statusProvider
	s.mu.RUnlock()

	status := map[string]interface{}{
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	}

	if provider != nil {
		status["registered_policies"] = len(provider.GetPolicyStatuses())
		status["total_deleted"] = provider.GetTotalDeleted()
		lastSweep := provider.GetLastSweepTime()
		if !lastSweep.IsZero() {
			status["last_sweep"] = lastSweep.Format(time.RFC3339)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	provider := s.statusProvider
	s.mu.RUnlock()

	var policies []sweep.PolicyStatus
	if provider != nil {
		policies = provider.GetPolicyStatuses()
	}
	if policies == nil {
		policies = []sweep.PolicyStatus{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(policies)
}

// configResponse exposes only settings safe to publish.
type configResponse struct {
	GitHub configGitHub `json:"github"`
	Sweep  configSweep  `json:"sweep"`
	Log    configLog    `json:"log"`
	WebAPI configWebAPI `json:"webapi"`
}

type configGitHub struct {
	AppID     int64 `json:"app_id,omitempty"`
	TokenAuth bool  `json:"token_auth"`
}

type configSweep struct {
	PolicyFile    string `json:"policy_file"`
	DeleteWorkers int    `json:"delete_workers"`
	DryRun        bool   `json:"dry_run"`
	Timezone      string `json:"timezone"`
}

type configLog struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type configWebAPI struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	appCfg := s.appConfig
	s.mu.RUnlock()

	resp := configResponse{
		GitHub: configGitHub{
			AppID:     appCfg.GitHub.AppID,
			TokenAuth: appCfg.GitHub.Token != "",
		},
		Sweep: configSweep{
			PolicyFile:    appCfg.Sweep.PolicyFile,
			DeleteWorkers: appCfg.Sweep.DeleteWorkers,
			DryRun:        appCfg.Sweep.DryRun,
			Timezone:      appCfg.Sweep.Timezone,
		},
		Log: configLog{
			Level:  appCfg.Log.Level,
			Format: appCfg.Log.Format,
		},
		WebAPI: configWebAPI{
			Enabled: appCfg.WebAPI.Enabled,
			Host:    appCfg.WebAPI.Host,
			Port:    appCfg.WebAPI.Port,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
