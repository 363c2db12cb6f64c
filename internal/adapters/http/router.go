package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/builder-search/internal/core/domain"
	"github.com/kirillkom/builder-search/internal/core/ports"
	"github.com/kirillkom/builder-search/internal/observability/metrics"
)

const (
	maxJSONBodyBytes    = 1 << 20
	maxWebhookBodyBytes = 64 << 10
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	serviceName         = "api"
)

type Options struct {
	APIKey           string
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	search    ports.BuilderSearchService
	snapshots ports.SnapshotService
	webhook   ports.NotificationWebhook
	health    func(context.Context) error
	metrics   *metrics.HTTPServerMetrics
	opts      Options
}

func NewRouter(
	search ports.BuilderSearchService,
	snapshots ports.SnapshotService,
	webhook ports.NotificationWebhook,
	health func(context.Context) error,
	httpMetrics *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	if opts.BackpressureWait <= 0 {
		opts.BackpressureWait = 250 * time.Millisecond
	}
	return &Router{
		search:    search,
		snapshots: snapshots,
		webhook:   webhook,
		health:    health,
		metrics:   httpMetrics,
		opts:      opts,
	}
}

func (rt *Router) Handler() (http.Handler, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /v1/search", rt.searchBuilders)
	api.HandleFunc("POST /v1/snapshots", rt.createSnapshot)
	api.HandleFunc("GET /v1/snapshots/{id}", rt.getSnapshot)
	api.HandleFunc("GET /v1/snapshots/{id}/export", rt.exportSnapshot)

	var v1 http.Handler = validator.middleware(api)
	v1 = bearerAuthMiddleware(v1, rt.opts.APIKey, requiresAPIKey)
	v1 = backpressureMiddleware(v1, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
	v1 = rateLimitMiddleware(v1, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.Handle("/v1/", v1)
	// The webhook must acknowledge under load, so it skips traffic control.
	mux.HandleFunc("POST /v1/webhooks/notifications", rt.notificationWebhook)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = recoverMiddleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler, nil
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		if err := rt.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) searchBuilders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	resp, err := rt.search.Search(r.Context(), req.Query)
	if err != nil {
		rt.metrics.RecordSearch(domain.KindLabel(err), 0, 0, 0, time.Since(start))
		writeError(w, r, err)
		return
	}
	kept := 0
	if resp.Report != nil {
		kept = len(resp.Report.ProcessedResults)
	}
	rt.metrics.RecordSearch("ok", resp.Results.Stats.AccountCount, resp.Results.Stats.CastCount, kept, time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) createSnapshot(w http.ResponseWriter, r *http.Request) {
	var input domain.SnapshotInput
	if err := decodeJSONBody(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := rt.snapshots.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (rt *Router) getSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := snapshotIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := rt.snapshots.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) exportSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := snapshotIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := rt.snapshots.Export(r.Context(), id, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="snapshot-%s.xlsx"`, strings.ToLower(id)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// notificationWebhook always acknowledges so the sender does not retry.
func (rt *Router) notificationWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		slog.Error("notification_webhook_read_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
	} else {
		rt.webhook.HandleWebhook(r.Context(), payload)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// requiresAPIKey guards the endpoints that spend model calls or write data.
func requiresAPIKey(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	return r.URL.Path == "/v1/search" || r.URL.Path == "/v1/snapshots"
}

func snapshotIDParam(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind snapshot id", err)
	}
	return id, nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, out any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err := decoder.Decode(out); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
