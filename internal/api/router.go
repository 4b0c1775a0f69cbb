package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/investiq/internal/api/handlers"
	"github.com/wonny/investiq/internal/metrics"
	"github.com/wonny/investiq/pkg/logger"
)

// Handlers groups the endpoint handlers mounted by the router
type Handlers struct {
	Analysis *handlers.AnalysisHandler
	Policy   *handlers.PolicyHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, limiter Limiter, rec *metrics.Recorder, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Prometheus
	if reg := rec.Registry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()

	// Analysis endpoints (rate limited)
	limited := rateLimitMiddleware(limiter, log)
	api.Handle("/analyze", limited(http.HandlerFunc(h.Analysis.Analyze))).Methods("POST")
	api.Handle("/analyze/{symbol}", limited(http.HandlerFunc(h.Analysis.AnalyzeSymbol))).Methods("POST")
	api.Handle("/decide", limited(http.HandlerFunc(h.Analysis.Decide))).Methods("POST")

	// Policy
	api.HandleFunc("/policy", h.Policy.GetPolicy).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log, rec))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "investiq-api",
	})
}

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// routeLabel returns the route template to keep metric label cardinality low
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RequestIDHeader carries the request ID; an incoming value is kept, otherwise one is generated
const RequestIDHeader = "X-Request-ID"

// loggingMiddleware logs HTTP requests and records request metrics.
// The request-scoped logger (request_id) is stored in the request context.
func loggingMiddleware(log *logger.Logger, rec *metrics.Recorder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			reqLog := log.WithField("request_id", requestID)
			r = r.WithContext(reqLog.IntoContext(r.Context()))

			// Call next handler
			next.ServeHTTP(sw, r)

			duration := time.Since(start)
			rec.RecordRequest(routeLabel(r), r.Method, sw.status, duration)

			// Log request
			reqLog.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sw.status,
				"duration": duration,
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.FromContext(r.Context(), log).WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": false,
						"error":   "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
