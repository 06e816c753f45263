package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/audit"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/cedar"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/crisis"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/dispatch"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/followup"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/metrics"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/resources"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/response"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestIDHeader carries the per-request ID on every response
const RequestIDHeader = "X-Request-ID"

// HandlerConfig holds the components served over HTTP
type HandlerConfig struct {
	Classifier     *crisis.Classifier
	Coordinator    *response.Coordinator
	Directory      *resources.Directory
	Dispatcher     *dispatch.Dispatcher
	FollowUps      *followup.Manager
	CedarEngine    *cedar.Engine
	MaxRequestSize int64
	MetricsPath    string // empty disables the metrics endpoint
	Logger         *log.Logger
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type textRequest struct {
	Text        string `json:"text"`
	UserID      string `json:"user_id,omitempty"`
	Location    string `json:"location,omitempty"`
	UserEmail   string `json:"user_email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type dispatchRequest struct {
	ResourceID string `json:"resource_id"`
}

type routeHandler func(w http.ResponseWriter, r *http.Request, requestID string)

// NewHandler builds the HTTP routes
func NewHandler(hc *HandlerConfig) http.Handler {
	if hc.MaxRequestSize == 0 {
		hc.MaxRequestSize = 64 * 1024
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", hc.route("health", hc.health))
	mux.HandleFunc("POST /api/classify", hc.route("classify", hc.classify))
	mux.HandleFunc("POST /api/respond", hc.route("respond", hc.respond))
	mux.HandleFunc("GET /api/resources", hc.route("resources", hc.listResources))
	mux.HandleFunc("POST /api/dispatch/call", hc.route("dispatch_call", hc.dispatchCall))
	mux.HandleFunc("POST /api/dispatch/text", hc.route("dispatch_text", hc.dispatchText))
	mux.HandleFunc("POST /api/followups", hc.route("followup_create", hc.createFollowUp))
	mux.HandleFunc("GET /api/followups/{id}", hc.route("followup_get", hc.getFollowUp))
	mux.HandleFunc("POST /api/followups/{id}/complete", hc.route("followup_complete", hc.completeFollowUp))
	if hc.MetricsPath != "" {
		metricsHandler := promhttp.Handler()
		mux.HandleFunc("GET "+hc.MetricsPath, hc.route("metrics", func(w http.ResponseWriter, r *http.Request, _ string) {
			metricsHandler.ServeHTTP(w, r)
		}))
	}
	return mux
}

// route wraps a handler with a request ID, a body size limit and latency metrics
func (hc *HandlerConfig) route(name string, next routeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		requestID := uuid.New().String()
		w.Header().Set(RequestIDHeader, requestID)

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, hc.MaxRequestSize)
		}

		next(w, r, requestID)

		duration := time.Since(startTime)
		metrics.ObserveLatency(name, duration.Seconds())
		hc.logInfo("Request %s %s completed in %v", requestID, name, duration)
	}
}

func (hc *HandlerConfig) health(w http.ResponseWriter, _ *http.Request, _ string) {
	status := map[string]interface{}{
		"status":  "ok",
		"service": "crisis-guard",
	}
	if hc.CedarEngine != nil {
		status["policy_version"] = hc.CedarEngine.PolicyVersion()
	}
	if hc.Dispatcher != nil {
		status["dispatch_breaker"] = hc.Dispatcher.Breaker().Stats()
	}
	writeJSON(w, http.StatusOK, status)
}

func (hc *HandlerConfig) classify(w http.ResponseWriter, r *http.Request, requestID string) {
	var req textRequest
	if !hc.decode(w, r, requestID, &req) {
		return
	}
	writeJSON(w, http.StatusOK, hc.Classifier.Classify(req.Text))
}

func (hc *HandlerConfig) respond(w http.ResponseWriter, r *http.Request, requestID string) {
	var req textRequest
	if !hc.decode(w, r, requestID, &req) {
		return
	}

	plan, err := hc.Coordinator.Respond(r.Context(), req.Text, audit.Payload{
		OriginalText: req.Text,
		UserID:       req.UserID,
		Location:     req.Location,
		UserEmail:    req.UserEmail,
		PhoneNumber:  req.PhoneNumber,
	})
	if err != nil {
		hc.logError("Respond failed: %v", err)
		sendErrorResponse(w, http.StatusServiceUnavailable, "respond_failed", "Could not build a response plan", requestID)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (hc *HandlerConfig) listResources(w http.ResponseWriter, r *http.Request, requestID string) {
	resourceType := r.URL.Query().Get("type")
	if resourceType != "" && !resources.ValidType(resourceType) {
		sendErrorResponse(w, http.StatusBadRequest, "invalid_request", "type must be voice or text", requestID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resources": hc.Directory.GetEmergencyResources(resourceType),
	})
}

func (hc *HandlerConfig) dispatchCall(w http.ResponseWriter, r *http.Request, requestID string) {
	var req dispatchRequest
	if !hc.decode(w, r, requestID, &req) {
		return
	}

	result, err := hc.Dispatcher.CallEmergencyService(r.Context(), req.ResourceID)
	if err != nil {
		hc.sendDispatchError(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (hc *HandlerConfig) dispatchText(w http.ResponseWriter, r *http.Request, requestID string) {
	var req dispatchRequest
	if !hc.decode(w, r, requestID, &req) {
		return
	}

	if err := hc.Dispatcher.StartTextSupport(r.Context(), req.ResourceID); err != nil {
		hc.sendDispatchError(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "started",
		"resource_id": req.ResourceID,
	})
}

func (hc *HandlerConfig) createFollowUp(w http.ResponseWriter, r *http.Request, requestID string) {
	var req followup.Request
	if !hc.decode(w, r, requestID, &req) {
		return
	}

	f, err := hc.FollowUps.ScheduleFollowUp(req)
	if err != nil {
		if errors.Is(err, followup.ErrInvalidTimestamp) || errors.Is(err, followup.ErrInvalidWindow) {
			sendErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error(), requestID)
			return
		}
		hc.logError("Schedule follow-up failed: %v", err)
		sendErrorResponse(w, http.StatusInternalServerError, "followup_error", "Could not schedule follow-up", requestID)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (hc *HandlerConfig) getFollowUp(w http.ResponseWriter, r *http.Request, requestID string) {
	f, ok := hc.FollowUps.Get(r.PathValue("id"))
	if !ok {
		sendErrorResponse(w, http.StatusNotFound, "not_found", followup.ErrNotFound.Error(), requestID)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (hc *HandlerConfig) completeFollowUp(w http.ResponseWriter, r *http.Request, requestID string) {
	f, err := hc.FollowUps.Complete(r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, f)
	case errors.Is(err, followup.ErrNotFound):
		sendErrorResponse(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		sendErrorResponse(w, http.StatusConflict, "invalid_status", err.Error(), requestID)
	}
}

func (hc *HandlerConfig) sendDispatchError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, dispatch.ErrResourceNotFound):
		sendErrorResponse(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, dispatch.ErrWrongChannel):
		sendErrorResponse(w, http.StatusBadRequest, "wrong_channel", err.Error(), requestID)
	default:
		hc.logError("Dispatch failed: %v", err)
		sendErrorResponse(w, http.StatusBadGateway, "dispatch_error", "Could not reach the dispatch gateway", requestID)
	}
}

// decode reads a JSON body into v, writing an error response on failure
func (hc *HandlerConfig) decode(w http.ResponseWriter, r *http.Request, requestID string, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendErrorResponse(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large", requestID)
			return false
		}
		hc.logError("Failed to parse request body: %v", err)
		sendErrorResponse(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body", requestID)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendErrorResponse sends a JSON error response
func sendErrorResponse(w http.ResponseWriter, status int, code, message, requestID string) {
	writeJSON(w, status, ErrorResponse{
		Error:     code,
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}

// Logging helpers
func (hc *HandlerConfig) logInfo(format string, args ...interface{}) {
	if hc.Logger != nil {
		hc.Logger.Printf("[INFO] "+format, args...)
	}
}

func (hc *HandlerConfig) logError(format string, args ...interface{}) {
	if hc.Logger != nil {
		hc.Logger.Printf("[ERROR] "+format, args...)
	}
}
