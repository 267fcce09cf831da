package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aravind45/whynointerviews/internal/ai"
	apperrors "github.com/aravind45/whynointerviews/internal/errors"
	"github.com/aravind45/whynointerviews/internal/lifecycle"
	"github.com/aravind45/whynointerviews/internal/models"
	"github.com/aravind45/whynointerviews/internal/observability"
)

// SubmitResponse is returned when a submission is accepted for analysis.
type SubmitResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResultResponse carries the submission state and, once analysis has
// finished, the stored diagnosis.
type ResultResponse struct {
	Submission *models.Submission      `json:"submission"`
	Result     *models.DiagnosisResult `json:"result,omitempty"`
}

// createSubmitHandler accepts a multipart resume upload and queues it for analysis
func (s *Server) createSubmitHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("whynointerviews.api")
		ctx, span := tracer.Start(ctx, "api.submit")
		defer span.End()

		file, header, err := r.FormFile("resume")
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resume file", "multipart field 'resume' is required", http.StatusBadRequest)
			return
		}
		defer func() {
			if err := file.Close(); err != nil {
				log.Printf("Failed to close uploaded file: %v", err)
			}
		}()

		data, err := io.ReadAll(file)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				writeErrorResponse(w, "Request body too large", fmt.Sprintf("limit is %d bytes", maxBytesErr.Limit), http.StatusRequestEntityTooLarge)
				return
			}
			span.RecordError(err)
			writeErrorResponse(w, "Failed to read resume file", err.Error(), http.StatusBadRequest)
			return
		}

		sessionID := r.Header.Get("X-Session-ID")
		if sessionID == "" {
			sessionID = r.FormValue("sessionId")
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		req := lifecycle.SubmitRequest{
			SessionID:      sessionID,
			FileData:       data,
			FileType:       strings.TrimPrefix(filepath.Ext(header.Filename), "."),
			TargetTitle:    r.FormValue("targetTitle"),
			JobDescription: r.FormValue("jobDescription"),
		}

		span.SetAttributes(
			attribute.Int("request.file_bytes", len(data)),
			attribute.String("request.file_type", req.FileType),
			attribute.String("operation", "submit"),
		)

		sub, err := s.Manager.Submit(ctx, req)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		om.GetMetrics().RecordSubmission(ctx, sub.FileType)
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("submission.id", sub.ID.String()),
		)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		resp := SubmitResponse{ID: sub.ID, Status: string(sub.Status), ExpiresAt: sub.ExpiresAt}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			span.RecordError(err)
			log.Printf("Failed to encode submit response: %v", err)
		}
	}
}

// createStatusHandler reports the current state of a submission
func (s *Server) createStatusHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("whynointerviews.api")
		ctx, span := tracer.Start(ctx, "api.status")
		defer span.End()

		id, ok := parseSubmissionID(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("submission.id", id.String()))

		sub, err := s.Manager.Status(ctx, id)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sub); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createResultHandler returns the stored diagnosis for a completed submission.
// Before completion it reports the current state with no result attached.
func (s *Server) createResultHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("whynointerviews.api")
		ctx, span := tracer.Start(ctx, "api.result")
		defer span.End()

		id, ok := parseSubmissionID(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("submission.id", id.String()))

		sub, result, err := s.Manager.Result(ctx, id)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.String("submission.status", string(sub.Status)))

		w.Header().Set("Content-Type", "application/json")
		if result == nil {
			// Analysis still in flight or terminally failed
			w.WriteHeader(http.StatusAccepted)
		}
		if err := json.NewEncoder(w).Encode(ResultResponse{Submission: sub, Result: result}); err != nil {
			span.RecordError(err)
			log.Printf("Failed to encode result response: %v", err)
		}
	}
}

// createDeleteHandler purges submission content on user request
func (s *Server) createDeleteHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("whynointerviews.api")
		ctx, span := tracer.Start(ctx, "api.delete")
		defer span.End()

		id, ok := parseSubmissionID(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("submission.id", id.String()))

		confirmation, err := s.Manager.Delete(ctx, id)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		om.GetMetrics().RecordPurge(ctx, 1)
		span.SetAttributes(attribute.Bool("success", true))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(confirmation); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// parseSubmissionID extracts and validates the {id} path segment
func parseSubmissionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeErrorResponse(w, "Invalid submission ID", "path segment must be a UUID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// healthHandler provides a health check endpoint including AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "whynointerviews",
		"version": s.Version,
	}

	// Check AI model availability for all operations
	aiStatus := s.checkAIModelsHealth()
	response["ai_models"] = aiStatus

	// Check circuit breaker status
	circuitBreakerStatus := s.checkCircuitBreakerHealth()
	response["circuit_breakers"] = circuitBreakerStatus

	// Determine overall health status
	overallHealthy := true
	for _, modelStatus := range aiStatus {
		if modelInfo, ok := modelStatus.(map[string]any); ok {
			if available, exists := modelInfo["available"]; exists {
				if avail, ok := available.(bool); ok && !avail {
					overallHealthy = false
					break
				}
			}
		}
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkAIModelsHealth checks the health of the AI models used by each operation
func (s *Server) checkAIModelsHealth() map[string]any {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	aiStatus := make(map[string]any)

	// Check extract service model
	extractConfig := s.AppConfig.GetExtractConfig()
	if extractService, err := ai.NewService(&extractConfig, "extract", s.Logger); err == nil {
		aiStatus["extract"] = extractService.GetModelInfo(ctx)
	} else {
		aiStatus["extract"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create extract service: %v", err),
		}
	}

	// Check diagnose service model
	diagnoseConfig := s.AppConfig.GetDiagnoseConfig()
	if diagnoseService, err := ai.NewService(&diagnoseConfig, "diagnose", s.Logger); err == nil {
		aiStatus["diagnose"] = diagnoseService.GetModelInfo(ctx)
	} else {
		aiStatus["diagnose"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create diagnose service: %v", err),
		}
	}

	return aiStatus
}

// checkCircuitBreakerHealth checks the health of circuit breakers for AI operations
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	circuitBreakerStatus := make(map[string]any)

	extractConfig := s.AppConfig.GetExtractConfig()
	if _, err := ai.NewService(&extractConfig, "extract", s.Logger); err == nil {
		circuitBreakerStatus["extract"] = map[string]any{
			"available": true,
			"message":   "Circuit breaker integrated with extract service",
		}
	} else {
		circuitBreakerStatus["extract"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create extract service: %v", err),
		}
	}

	diagnoseConfig := s.AppConfig.GetDiagnoseConfig()
	if _, err := ai.NewService(&diagnoseConfig, "diagnose", s.Logger); err == nil {
		circuitBreakerStatus["diagnose"] = map[string]any{
			"available": true,
			"message":   "Circuit breaker integrated with diagnose service",
		}
	} else {
		circuitBreakerStatus["diagnose"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create diagnose service: %v", err),
		}
	}

	return circuitBreakerStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "whynointerviews",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	response["lifecycle"] = map[string]any{
		"worker_count":    s.AppConfig.Lifecycle.WorkerCount,
		"queue_size":      s.AppConfig.Lifecycle.QueueSize,
		"overall_timeout": s.AppConfig.Lifecycle.OverallTimeout.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeAppError maps an application error to an HTTP response
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		writeErrorResponse(w, "Internal error", err.Error(), http.StatusInternalServerError)
		return
	}
	writeErrorResponse(w, appErr.Code, appErr.Message, httpStatusFor(appErr))
}

// httpStatusFor picks a status code for an application error
func httpStatusFor(appErr *apperrors.AppError) int {
	if appErr.Code == apperrors.ErrCodeSubmissionNotFound {
		return http.StatusNotFound
	}
	if appErr.Code == apperrors.ErrCodeIllegalTransition {
		return http.StatusConflict
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeContent:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrorTypeReasoning:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
