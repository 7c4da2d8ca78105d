package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalambet/tutor/internal/metrics"
	"github.com/kalambet/tutor/internal/preferences"
	"github.com/kalambet/tutor/internal/proxy"
	"github.com/kalambet/tutor/internal/tutor"
)

const maxRequestBodySize = 1 << 20 // 1MB

// ModelLister lists the models offered by the completion service.
type ModelLister interface {
	ListModels(ctx context.Context) ([]proxy.Model, error)
}

// Deps holds dependencies for the HTTP API.
type Deps struct {
	Tutor       *tutor.Tutor
	Preferences *preferences.Manager // optional; if nil, preference routes are not mounted
	Models      ModelLister          // optional; if nil, /v1/models returns 503
}

// NewHandler returns the tutor HTTP API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/health", handleHealth(deps))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/v1/models", handleModels(deps.Models))

	r.Post("/sessions", handleCreateSession(deps))
	r.Get("/sessions/{id}", handleGetSession(deps))
	r.Delete("/sessions/{id}", handleDeleteSession(deps))
	r.Post("/sessions/{id}/messages", handlePostMessage(deps))

	r.Post("/v1/profile/update", handleProfileUpdate)
	r.Post("/v1/adapt", handleAdapt)
	r.Post("/v1/meta", handleMeta)

	if deps.Preferences != nil {
		r.Get("/users/{id}/preferences", handleGetPreferences(deps))
		r.Put("/users/{id}/preferences", handlePutPreferences(deps))
		r.Delete("/users/{id}/preferences", handleDeletePreferences(deps))
	}

	return r
}

// instrument records request count and latency per route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RequestCount.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Sessions: deps.Tutor.Sessions().Count(),
		})
	}
}

func handleModels(models ModelLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if models == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "completion service not configured")
			return
		}
		list, err := models.ListModels(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to list models: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, proxy.ModelList{
			Object: "list",
			Data:   list,
		})
	}
}

// decodeBody decodes a size-limited JSON request body into v, writing a 400
// and returning false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
