// Package api exposes the scoring engine over HTTP: score requests,
// model reload and rollback, status, and a websocket feed of model
// change events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"token-risk-lab/internal/domain"
	"token-risk-lab/internal/mint"
	"token-risk-lab/internal/model"
	"token-risk-lab/internal/observability"
	"token-risk-lab/internal/schema"
	"token-risk-lab/internal/scoring"
	"token-risk-lab/internal/storage"
)

// Server wires the scoring engine, the artifact registry, and the
// websocket notifier behind an HTTP mux.
type Server struct {
	engine    *scoring.Engine
	artifacts storage.ArtifactStore // optional, nil disables registry reloads
	notifier  *Notifier
	logger    *log.Logger

	startedAt time.Time
}

// NewServer creates a Server. artifacts may be nil when no registry is
// configured; registry-sourced reloads then return an error.
func NewServer(engine *scoring.Engine, artifacts storage.ArtifactStore, logger *log.Logger) *Server {
	return &Server{
		engine:    engine,
		artifacts: artifacts,
		notifier:  NewNotifier(logger),
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Notifier returns the websocket notifier, for broadcasting reloads
// triggered outside the HTTP surface (file watcher).
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// Routes returns the HTTP mux with all endpoints registered.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/score", s.handleScore)
	mux.HandleFunc("/reload", s.handleReload)
	mux.HandleFunc("/rollback", s.handleRollback)
	mux.HandleFunc("/model", s.handleModel)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ws", s.notifier.HandleWS)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	return mux
}

// ScoreRequest is the JSON body for POST /score.
type ScoreRequest struct {
	// Mint is optional; when present it is validated as a Solana address.
	Mint     string               `json:"mint,omitempty"`
	Features domain.FeatureVector `json:"features"`
}

// ScoreResponse is the JSON response for POST /score.
type ScoreResponse struct {
	Mint         string  `json:"mint,omitempty"`
	Probability  float64 `json:"probability"`
	Score        float64 `json:"score"`
	RiskClass    string  `json:"risk_class"`
	ModelVersion int64   `json:"model_version"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordScoreError("bad_request")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	if req.Mint != "" {
		if err := mint.Validate(req.Mint); err != nil {
			observability.RecordScoreError("invalid_mint")
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Features == nil {
		observability.RecordScoreError("bad_request")
		writeError(w, http.StatusBadRequest, "features object is required")
		return
	}

	start := time.Now()
	result, err := s.engine.Score(req.Features)
	if err != nil {
		var featErr *scoring.FeatureError
		if errors.As(err, &featErr) {
			observability.RecordScoreError("missing_features")
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":            featErr.Error(),
				"missing_features": featErr.Missing,
			})
			return
		}
		observability.RecordScoreError("internal")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	observability.RecordScore(string(result.RiskClass), time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, ScoreResponse{
		Mint:         req.Mint,
		Probability:  result.Probability,
		Score:        result.Score,
		RiskClass:    string(result.RiskClass),
		ModelVersion: result.ModelVersion,
	})
}

// ReloadRequest is the JSON body for POST /reload. Exactly one source is
// used, checked in order: inline weights document, weights file path,
// registry (latest version, or a specific one when version is set).
type ReloadRequest struct {
	Weights json.RawMessage `json:"weights,omitempty"`
	Path    string          `json:"path,omitempty"`
	Version int64           `json:"version,omitempty"`
}

// ReloadResponse is the JSON response for POST /reload and POST /rollback.
type ReloadResponse struct {
	Status       string `json:"status"`
	ModelVersion int64  `json:"model_version"`
	Source       string `json:"source,omitempty"`
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ReloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	artifact, source, err := s.resolveArtifact(r.Context(), &req)
	if err != nil {
		observability.RecordReload(source, "error", 0, 0)
		writeError(w, reloadStatusCode(err), err.Error())
		return
	}

	if err := s.engine.Reload(artifact); err != nil {
		observability.RecordReload(source, "error", 0, 0)
		writeError(w, reloadStatusCode(err), err.Error())
		return
	}

	version := s.engine.Version()
	now := time.Now()
	observability.RecordReload(source, "success", version, float64(now.Unix()))
	s.logger.Printf("Model reloaded from %s, now serving version %d", source, version)

	s.notifier.Broadcast(ModelEvent{
		Event:     "reload",
		Version:   version,
		Source:    source,
		Timestamp: now.UTC(),
	})

	writeJSON(w, http.StatusOK, ReloadResponse{
		Status:       "reloaded",
		ModelVersion: version,
		Source:       source,
	})
}

// resolveArtifact loads the artifact named by a reload request.
func (s *Server) resolveArtifact(ctx context.Context, req *ReloadRequest) (*model.Artifact, string, error) {
	switch {
	case len(req.Weights) > 0:
		a, err := model.DecodeWeightsDoc(req.Weights)
		return a, "inline", err

	case req.Path != "":
		a, err := model.LoadWeightsFile(req.Path)
		return a, "file", err

	default:
		if s.artifacts == nil {
			return nil, "registry", fmt.Errorf("no artifact registry configured")
		}
		if req.Version > 0 {
			a, err := s.artifacts.GetByVersion(ctx, req.Version)
			if err != nil {
				observability.RecordRegistryError("get_by_version")
				return nil, "registry", fmt.Errorf("load version %d from registry: %w", req.Version, err)
			}
			return a, "registry", nil
		}
		a, err := s.artifacts.GetLatest(ctx)
		if err != nil {
			observability.RecordRegistryError("get_latest")
			return nil, "registry", fmt.Errorf("load latest from registry: %w", err)
		}
		return a, "registry", nil
	}
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.engine.Rollback(); err != nil {
		observability.RecordRollback("error", 0)
		if errors.Is(err, scoring.ErrNoPriorVersion) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	version := s.engine.Version()
	observability.RecordRollback("success", version)
	s.logger.Printf("Rolled back to model version %d", version)

	s.notifier.Broadcast(ModelEvent{
		Event:     "rollback",
		Version:   version,
		Timestamp: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, ReloadResponse{
		Status:       "rolled_back",
		ModelVersion: version,
	})
}

// ModelResponse is the JSON response for GET /model.
type ModelResponse struct {
	Version   int64          `json:"version"`
	Threshold float64        `json:"threshold"`
	Features  []string       `json:"features"`
	TrainedAt time.Time      `json:"trained_at,omitempty"`
	Metrics   *model.Metrics `json:"metrics,omitempty"`
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	active := s.engine.Active()

	writeJSON(w, http.StatusOK, ModelResponse{
		Version:   active.Version,
		Threshold: active.Threshold,
		Features:  schema.FeatureNames(),
		TrainedAt: active.TrainedAt,
		Metrics:   active.Metrics,
	})
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string    `json:"status"`
	Uptime        string    `json:"uptime"`
	ModelVersion  int64     `json:"model_version"`
	Subscribers   int       `json:"ws_subscribers"`
	RegistryReady bool      `json:"registry_ready"`
	StartedAt     time.Time `json:"started_at"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.startedAt).String(),
		ModelVersion:  s.engine.Version(),
		Subscribers:   s.notifier.SubscriberCount(),
		RegistryReady: s.artifacts != nil,
		StartedAt:     s.startedAt,
	})
}

// reloadStatusCode maps reload failures onto HTTP status codes. Validation
// failures are client errors; everything else is a server error.
func reloadStatusCode(err error) int {
	var artErr *model.ArtifactError
	var schemaErr *schema.SchemaError
	switch {
	case errors.As(err, &artErr), errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
