package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/investiq/internal/contracts"
)

// Envelope is the common response body
// 성공: {success, decision, timestamp} / 실패: {success:false, error, timestamp}
type Envelope struct {
	Success   bool              `json:"success"`
	Decision  interface{}       `json:"decision,omitempty"`
	Error     string            `json:"error,omitempty"`
	Details   []ValidationError `json:"details,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// Clock returns the current time; swapped in tests
type Clock func() time.Time

func (c Clock) stamp() string {
	now := time.Now
	if c != nil {
		now = c
	}
	return now().UTC().Format(time.RFC3339)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func (c Clock) respondDecision(w http.ResponseWriter, decision interface{}) {
	respondJSON(w, http.StatusOK, Envelope{
		Success:   true,
		Decision:  decision,
		Timestamp: c.stamp(),
	})
}

func (c Clock) respondFailure(w http.ResponseWriter, status int, message string, details []ValidationError) {
	respondJSON(w, status, Envelope{
		Success:   false,
		Error:     message,
		Details:   details,
		Timestamp: c.stamp(),
	})
}

// StatusFor maps an analysis error onto an HTTP status
// ⭐ SSOT: 에러 → HTTP 상태 매핑은 여기서만
func StatusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrMissingSignal), errors.Is(err, contracts.ErrInvalidSignal):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contracts.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal error details behind 5xx responses
func publicMessage(status int, err error) string {
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout {
		return "internal server error"
	}
	return err.Error()
}
