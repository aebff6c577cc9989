package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"spendview/internal/core"
	"spendview/internal/log"
	"spendview/internal/middleware/trace"
	"spendview/internal/reports"
	"spendview/internal/services"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON encodes v before touching the response so an encoding failure
// can still become a 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := reports.Encode(&buf, v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Response encoding failed", log.FieldError, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError maps err to a status and writes a JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Report request failed", log.FieldError, err, log.FieldStatusCode, status)
		msg = http.StatusText(status)
		if status == http.StatusBadGateway {
			msg = upstreamMessage(err)
		}
	}
	writeJSON(w, r, status, errorBody{Error: msg, RequestID: trace.GetRequestID(r.Context())})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidTimestamp),
		errors.Is(err, core.ErrInvalidPeriodCode),
		errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, errBadParam):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSourceUnavailable),
		errors.Is(err, core.ErrMarketUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func upstreamMessage(err error) string {
	if errors.Is(err, core.ErrMarketUnavailable) {
		return core.ErrMarketUnavailable.Error()
	}
	return core.ErrSourceUnavailable.Error()
}
