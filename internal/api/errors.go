package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/MJE43/pf-casino-engine/internal/replay"
	"github.com/MJE43/pf-casino-engine/internal/scan"
	"github.com/MJE43/pf-casino-engine/internal/session"
	"github.com/MJE43/pf-casino-engine/internal/store"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	ctx := eb.context
	if len(ctx) == 0 {
		ctx = nil
	}
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

var kindStatus = map[session.Kind]int{
	session.KindInvalidInput:      http.StatusBadRequest,
	session.KindInsufficientFunds: http.StatusPaymentRequired,
	session.KindNotFound:          http.StatusNotFound,
	session.KindInvalidState:      http.StatusConflict,
	session.KindIntegrity:         http.StatusUnprocessableEntity,
	session.KindCollaborator:      http.StatusServiceUnavailable,
}

// classify maps a domain error onto a status and an EngineError builder.
func classify(err error) (int, *ErrorBuilder) {
	var serr *session.Error
	if errors.As(err, &serr) {
		status, ok := kindStatus[serr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		b := NewError(string(serr.Kind), err.Error()).WithContext("op", serr.Op)
		if serr.RoundID != "" {
			b.WithContext("round_id", serr.RoundID)
		}
		if serr.Field != "" {
			b.WithContext("field", serr.Field)
		}
		return status, b
	}

	switch {
	case errors.Is(err, scan.ErrGameNotFound):
		return http.StatusBadRequest, NewError(ErrTypeGameNotFound, err.Error())
	case errors.Is(err, scan.ErrInvalidRange):
		return http.StatusBadRequest, NewError(ErrTypeInvalidRange, err.Error())
	case errors.Is(err, scan.ErrInvalidRequest):
		return http.StatusBadRequest, NewError(ErrTypeValidation, err.Error())
	case errors.Is(err, replay.ErrCommitmentMismatch):
		return http.StatusUnprocessableEntity, NewError(string(session.KindIntegrity), err.Error())
	case errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound, NewError(ErrTypeNotFound, err.Error())
	}
	return http.StatusInternalServerError, NewError(ErrTypeInternal, "internal server error")
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError classifies err and writes the matching response.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status, b := classify(err)
	engineErr := b.WithRequestID(middleware.GetReqID(r.Context())).Build()

	attrs := []any{
		"type", engineErr.Type,
		"status", status,
		"request_id", engineErr.RequestID,
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		eh.logger.Error("request failed", attrs...)
	} else {
		eh.logger.Warn("request rejected", attrs...)
	}
	eh.writeErrorResponse(w, status, engineErr)
}

// HandleValidationError reports a rejected request body.
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	b := NewError(ErrTypeValidation, "Validation failed").
		WithRequestID(middleware.GetReqID(r.Context()))

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		b.message = fmt.Sprintf("Validation failed: %s is %s", first.Namespace(), first.ActualTag())
		b.WithContext("field", first.Namespace())
	} else {
		b.errType = ErrTypeInvalidBody
		b.message = fmt.Sprintf("Invalid request body: %v", err)
	}

	engineErr := b.Build()
	eh.logger.Warn("validation failed", "request_id", engineErr.RequestID, "path", r.URL.Path, "error", err)
	eh.writeErrorResponse(w, http.StatusBadRequest, engineErr)
}

// writeErrorResponse writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("X-Error-Type", engineErr.Type)
	writeJSON(w, status, engineErr)
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				requestID := middleware.GetReqID(r.Context())
				eh.logger.Error("panic recovered", "request_id", requestID, "path", r.URL.Path, "method", r.Method, "panic", rvr)

				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("path", r.URL.Path).
					Build()
				eh.writeErrorResponse(w, http.StatusInternalServerError, engineErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
