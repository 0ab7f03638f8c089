package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/comicverse/txgate/internal/gate"
	"github.com/comicverse/txgate/internal/metrics"
	"github.com/comicverse/txgate/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Error codes of non-gated endpoints
const (
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeInvalidRequest   = string(gate.OutcomeInvalidRequest)
	codeInternal         = string(gate.OutcomeInfrastructureFault)
)

const (
	maxBodyBytes      = 1 << 20
	maxMultipartBytes = 10 << 20
	defaultListLimit  = 50
	maxListLimit      = 100
)

// requestID tags every request with an id, reusing the client's X-Request-Id
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func inFlight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.RequestsInFlight.Inc()
		defer metrics.RequestsInFlight.Dec()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("API: failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail models.ErrorDetail) {
	writeJSON(w, status, models.ErrorResponse{
		RequestID: middleware.GetReqID(r.Context()),
		Error:     detail,
	})
}

func badRequest(w http.ResponseWriter, r *http.Request, format string, args ...any) {
	writeError(w, r, http.StatusBadRequest, models.ErrorDetail{
		Code:    codeInvalidRequest,
		Message: fmt.Sprintf(format, args...),
	})
}

func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error("API: "+msg, "request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
	writeError(w, r, http.StatusInternalServerError, models.ErrorDetail{
		Code:      codeInternal,
		Message:   "internal error",
		Retryable: true,
	})
}

// statusFor maps a gate outcome to its HTTP status
func statusFor(outcome gate.Outcome) int {
	switch outcome {
	case gate.OutcomeApplied:
		return http.StatusCreated
	case gate.OutcomeNotFound:
		return http.StatusNotFound
	case gate.OutcomeTransactionFailed, gate.OutcomeRejected:
		return http.StatusUnprocessableEntity
	case gate.OutcomeDuplicate:
		return http.StatusConflict
	case gate.OutcomeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeResult renders the terminal outcome of a gated mutation
func writeResult(w http.ResponseWriter, r *http.Request, result gate.Result) {
	status := statusFor(result.Outcome)
	if result.Outcome == gate.OutcomeApplied {
		resp := models.MutationResponse{
			RequestID: middleware.GetReqID(r.Context()),
			State:     string(result.State),
			Entity:    result.Entity,
		}
		if result.Verdict != nil {
			resp.Extracted = result.Verdict.Extracted
		}
		writeJSON(w, status, resp)
		return
	}

	writeError(w, r, status, models.ErrorDetail{
		Code:      string(result.Outcome),
		Reason:    result.Reason,
		Message:   result.Message(),
		State:     string(result.State),
		Retryable: result.Retryable(),
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// comicIDParam parses the {comicId} path parameter
func comicIDParam(r *http.Request) (*big.Int, error) {
	raw := chi.URLParam(r, "comicId")
	id, err := models.ParseBigInt(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid comic id %q", raw)
	}
	if id.Int().Sign() < 0 {
		return nil, fmt.Errorf("comic id must not be negative")
	}
	return id.Int(), nil
}

// listLimit parses ?limit= with the same bounds as every list endpoint
func listLimit(r *http.Request) int {
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 && parsed <= maxListLimit {
			limit = parsed
		}
	}
	return limit
}

var errEmptyBody = errors.New("request body is required")
