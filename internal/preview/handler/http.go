package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "card-preview/internal/common/errors"
	"card-preview/internal/common/logger"
	"card-preview/internal/common/metrics"
	"card-preview/internal/common/observability"
)

const (
	headerRequestID = "X-Request-ID"
	contentTypeSVG  = "image/svg+xml"
)

type ctxKey struct{}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HTTPHandler struct {
	service *Service
	errors  *apperrors.ErrorHandler
	obs     *observability.Observability
	logger  logger.Logger
	checks  map[string]Pinger
}

func NewHTTPHandler(service *Service, obs *observability.Observability, log logger.Logger, checks map[string]Pinger) *HTTPHandler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &HTTPHandler{
		service: service,
		errors:  apperrors.NewErrorHandler(log),
		obs:     obs,
		logger:  log,
		checks:  checks,
	}
}

// Routes mounts the preview, SVG and operational endpoints.
func (h *HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(h.recoverer)

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/og", h.servePNG)
	r.Get("/og/{identifier}", h.servePNG)
	r.Get("/og/{identifier}/svg", h.serveSVG)
	r.Get("/api/og", h.servePNG)
	r.Get("/api/og/{identifier}", h.servePNG)
	return r
}

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// recoverer turns a panic in a handler into a RENDER_FAILURE response so
// callers always get the JSON error envelope.
func (h *HTTPHandler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.logger.Error("handler panicked", map[string]interface{}{
				"requestId": RequestIDFrom(r.Context()),
				"path":      r.URL.Path,
				"panic":     fmt.Sprint(rec),
				"stack":     string(debug.Stack()),
			})
			h.fail(w, r, identifierFrom(r), apperrors.NewRenderFailureError("panic", fmt.Errorf("%v", rec)))
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestIDFrom returns the id assigned to the request carried by ctx.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// identifierFrom reads the path parameter, falling back to the identifier
// or slug query parameters.
func identifierFrom(r *http.Request) string {
	id := chi.URLParam(r, "identifier")
	if id == "" {
		id = r.URL.Query().Get("identifier")
	}
	if id == "" {
		id = r.URL.Query().Get("slug")
	}
	return id
}

func (h *HTTPHandler) servePNG(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	metrics.RendersInFlight.Inc()
	defer metrics.RendersInFlight.Dec()

	identifier := identifierFrom(r)
	res, err := h.service.Render(r.Context(), identifier)
	if err != nil {
		h.fail(w, r, identifier, err)
		return
	}

	bmp := res.Bitmap
	w.Header().Set("Content-Type", bmp.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(bmp.PNG)))
	w.Header().Set("Cache-Control", bmp.CacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(bmp.PNG)

	if h.obs != nil {
		h.obs.RecordRender(r.Context(), string(res.Snapshot.Variant()), "success")
		h.obs.RecordDuration(r.Context(), time.Since(start), "success")
	}
	h.logger.Info("preview rendered", map[string]interface{}{
		"requestId":  RequestIDFrom(r.Context()),
		"identifier": identifier,
		"variant":    string(res.Snapshot.Variant()),
		"bytes":      len(bmp.PNG),
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (h *HTTPHandler) serveSVG(w http.ResponseWriter, r *http.Request) {
	identifier := identifierFrom(r)
	res, err := h.service.Layout(r.Context(), identifier)
	if err != nil {
		h.fail(w, r, identifier, err)
		return
	}

	svg := res.Document.SVG()
	w.Header().Set("Content-Type", contentTypeSVG)
	w.Header().Set("Content-Length", strconv.Itoa(len(svg)))
	w.Header().Set("Cache-Control", h.service.rasterizer.CacheControlOrDefault())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, identifier string, err error) {
	stdErr := h.errors.HandleHTTPError(w, RequestIDFrom(r.Context()), err)
	metrics.PreviewRenderFailures.WithLabelValues(string(stdErr.Code)).Inc()
	if h.obs != nil {
		h.obs.RecordRender(r.Context(), "unknown", string(stdErr.Code))
	}
	h.logger.Debug("preview not rendered", map[string]interface{}{
		"identifier": identifier,
		"errorCode":  string(stdErr.Code),
	})
}

func (h *HTTPHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *HTTPHandler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		h.logger.Warn("readiness check failed", map[string]interface{}{"failed": failed})
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not ready", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
