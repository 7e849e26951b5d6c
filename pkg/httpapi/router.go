// Package httpapi is the thin HTTP transport adapter over pkg/rpc: one
// chi route per endpoint, JSON (de)serialization, and
// *qlerr.Error-to-status-code mapping. No business logic lives here —
// every handler is a few lines decoding the request, calling the
// matching rpc.Handlers method, and encoding the result.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/quicklaunch/quicklaunch/pkg/metrics"
	"github.com/quicklaunch/quicklaunch/pkg/rpc"
)

// Router builds the full QuickLaunch API as an http.Handler.
func Router(h *rpc.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))
	r.Use(requestMetrics)

	r.Get("/api/status", statusHandler(h))
	r.Get("/api/history/{id}", historyHandler(h))

	r.Get("/api/apps", listAppsHandler(h))
	r.Post("/api/apps", addAppHandler(h))
	r.Put("/api/apps/{id}", updateAppHandler(h))
	r.Delete("/api/apps/{id}", removeAppHandler(h))
	r.Post("/api/apps/migrate", migrateAppsHandler(h))

	r.Get("/api/ports/check/{port}", checkPortHandler(h))
	r.Get("/api/ports/suggest", suggestPortHandler(h))
	r.Post("/api/ports/reserve", reservePortHandler(h))
	r.Delete("/api/ports/reserve/{port}", unreservePortHandler(h))

	r.Post("/api/check-deps", checkDepsHandler(h))
	r.Post("/api/install", startInstallHandler(h))
	r.Get("/api/install/{id}", installStatusHandler(h))

	r.Post("/api/start", startHandler(h))
	r.Post("/api/stop", stopHandler(h))

	r.Get("/api/schedule/{id}", getScheduleHandler(h))
	r.Post("/api/schedule/{id}/enable", setScheduleEnabledHandler(h))
	r.Post("/api/schedule/{id}/run", runScheduleHandler(h))
	r.Get("/api/schedule/{id}/status", scheduleStatusHandler(h))
	r.Put("/api/schedule/{id}", updateScheduleHandler(h))
	r.Get("/api/schedules", listSchedulesHandler(h))

	r.Get("/api/todos", todosHandler(h))
	r.Post("/api/triage", triageHandler(h))
	r.Get("/api/resolutions", listResolutionsHandler(h))
	r.Post("/api/resolutions", recordResolutionHandler(h))

	r.Get("/api/icon", iconHandler(h))

	return r
}

// requestMetrics wraps every request with APIRequestsTotal/
// APIRequestDuration, labeled by HTTP method per pkg/metrics'
// pre-declared {method,status} / {method} label sets.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusCapturingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		metrics.APIRequestsTotal.WithLabelValues(r.Method, http.StatusText(sw.status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusCapturingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
