package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The status comes from the error's core.Kind
//  4. The message comes from core.MapError
//  5. Client errors log at info, server errors at error with the full cause
//  6. The message is rendered as JSON, or as an HTML fragment for browsers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/registrar/internal/core"
	"github.com/JonMunkholm/registrar/internal/logging"
	"github.com/JonMunkholm/registrar/internal/web/templates"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  []core.FieldError `json:"fields,omitempty"`
}

// statusClientClosedRequest is the nginx convention for a client that
// disconnected before the response; it only reaches logs and metrics.
const statusClientClosedRequest = 499

// statusFor maps an error kind to an HTTP status.
func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindDuplicateCompany, core.KindValidation, core.KindFilePolicy:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindBusy:
		return http.StatusTooManyRequests
	case core.KindCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the client-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := statusFor(kind)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"kind", kind.String(),
		"code", userMsg.Code,
	)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "error", err)
	} else {
		logger.Info("request rejected", "error", err)
	}

	if kind == core.KindBusy {
		w.Header().Set("Retry-After", retryAfter(s.cfg.Register.MaxWaitTime))
	}

	fields := core.FieldErrors(err)

	if wantsHTML(r) {
		respondErrorHTML(w, r, userMsg, fields, status)
		return
	}
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   kind.String(),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Fields:  fields,
	})
}

// respondErrorHTML renders an error fragment for browser clients.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, fields []core.FieldError, status int) {
	issues := make([]templates.FieldIssue, len(fields))
	for i, f := range fields {
		issues[i] = templates.FieldIssue{Field: f.Field, Message: f.Message}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code, issues).Render(r.Context(), w); err != nil {
		slog.Warn("render error fragment", "error", err)
	}
}

// wantsHTML reports whether the client asked for HTML and did not also
// accept JSON. API clients get JSON by default.
func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
