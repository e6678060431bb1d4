// Package respond writes the JSON envelope every API handler returns:
//
//	{ "success": bool, "message": "...", "data": ..., "error": "...", "timestamp": "..." }
//
// Paginated responses add page, limit, total and totalPages.
package respond

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/reqlog"
	"go.uber.org/zap"
)

// Envelope is the response body for every API route.
type Envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Total      *int64 `json:"total,omitempty"`
	TotalPages *int   `json:"totalPages,omitempty"`
	Timestamp  string `json:"timestamp"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data, Timestamp: now()})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data, Timestamp: now()})
}

// Paginated writes a 200 success envelope with paging metadata.
func Paginated(w http.ResponseWriter, message string, data any, page, limit int, total int64) {
	pages := TotalPages(total, limit)
	JSON(w, http.StatusOK, Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Page:       page,
		Limit:      limit,
		Total:      &total,
		TotalPages: &pages,
		Timestamp:  now(),
	})
}

// TotalPages is ceil(total/limit), 0 when limit is not positive.
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Error maps err to its kind's status and writes a failure envelope.
// 5xx causes are logged with the request id and never sent to the client.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	ae := apperr.As(err)
	status := ae.Kind.HTTPStatus()

	if status >= http.StatusInternalServerError {
		reqlog.From(r.Context(), log).Error("request failed",
			zap.String("request_id", reqlog.RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(ae.Cause))
	}

	JSON(w, status, Envelope{
		Success:   false,
		Message:   ae.Message,
		Error:     ae.Kind.String(),
		Timestamp: now(),
	})
}

// Decode reads a JSON body into dst. Unknown fields are ignored; an empty
// or malformed body is InvalidInput.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.InvalidInput("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.InvalidInput("request body must be valid JSON")
	}
	return nil
}
