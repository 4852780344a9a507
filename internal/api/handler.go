// Package api exposes the replay service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/logreplay/internal/config"
	"github.com/gyaneshwarpardhi/logreplay/internal/engine"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/metrics"
)

const (
	maxBatchSize = 20
	maxBodyBytes = 32 << 20
)

// Options tunes the HTTP surface.
type Options struct {
	RateLimit int // parse submissions per minute per client IP; 0 disables
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	svc    *engine.Service
	loader *config.Loader
}

// New creates an HTTP handler and registers all routes. loader may be nil, in
// which case reloading is unavailable.
func New(svc *engine.Service, loader *config.Loader, opts Options) http.Handler {
	h := &Handler{svc: svc, loader: loader}

	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(accessLog)

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.RateLimit > 0 {
				r.Use(rateLimit(opts.RateLimit, time.Minute))
			}
			r.Post("/parses", h.ingestParse)
			r.Post("/parses/batch", h.ingestBatch)
		})
		r.Get("/parses/{id}", h.getJob)
		r.Get("/builds", h.listBuilds)
		r.Get("/modules", h.listModules)
		r.Post("/config/reload", h.reloadConfig)
	})
	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// POST /v1/parses: synchronous single parse.
func (h *Handler) ingestParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	p, err := req.Parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := h.svc.ProcessSync(r.Context(), p)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// POST /v1/parses/batch: async batch ingestion (up to 20 parses).
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(req.Parses) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one parse")
		return
	}
	if len(req.Parses) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(req.Parses), maxBatchSize))
		return
	}

	resp := BatchResponse{Total: len(req.Parses), Items: make([]BatchItem, 0, len(req.Parses))}
	for i := range req.Parses {
		item := BatchItem{Index: i}
		p, err := req.Parses[i].Parse()
		if err == nil {
			item.JobID, err = h.svc.ProcessAsync(p)
		}
		if err != nil {
			item.Error = err.Error()
			resp.Rejected++
		} else {
			resp.Queued++
		}
		resp.Items = append(resp.Items, item)
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// GET /v1/parses/{id}: state of an async parse.
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := h.svc.Job(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("job %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GET /v1/builds: list configured builds.
func (h *Handler) listBuilds(w http.ResponseWriter, r *http.Request) {
	cfg := h.svc.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": cfg.Version,
		"builds":  cfg.Builds,
	})
}

type moduleInfo struct {
	Type         string   `json:"type"`
	Dependencies []string `json:"dependencies"`
}

// GET /v1/modules: list registered module types.
func (h *Handler) listModules(w http.ResponseWriter, r *http.Request) {
	reg := h.svc.Engine().Registry()
	types := reg.Types()
	out := make([]moduleInfo, 0, len(types))
	for _, t := range types {
		deps := reg.Dependencies(t)
		if deps == nil {
			deps = []string{}
		}
		out = append(out, moduleInfo{Type: t, Dependencies: deps})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"modules": out})
}

// POST /v1/config/reload: hot-reload builds from disk.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusNotImplemented, "config reload not available")
		return
	}
	cfg, err := h.loader.Reload()
	if err != nil {
		metrics.ConfigReloads.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	// OnChange subscribers may already have applied it.
	if h.svc.Config() != cfg {
		if err := h.svc.ApplyConfig(cfg); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":     true,
		"version":      cfg.Version,
		"builds_count": len(cfg.Builds),
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if parse queue >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.svc.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var ce *engine.ConfigError
	switch {
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, engine.ErrNoBuild):
		return http.StatusNotFound
	case errors.As(err, &ce):
		return http.StatusUnprocessableEntity
	case errors.Is(err, event.ErrUnsorted):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusUnprocessableEntity
}
