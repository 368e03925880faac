package web

// errors.go turns errors into responses.
//
// Every error is logged with its technical detail and the request ID, then
// mapped through core.MapError to a message, suggested action and code.
// The body format follows the caller: an HTML fragment for partial swaps,
// JSON for API clients and a plain page otherwise.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/rollcall/internal/core"
	"github.com/JonMunkholm/rollcall/internal/logging"
	"github.com/JonMunkholm/rollcall/internal/web/templates"
)

// errBadRequest marks request bodies that could not be decoded.
var errBadRequest = errors.New("malformed request")

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Action  string                 `json:"action,omitempty"`
	Code    string                 `json:"code"`
	Fields  []core.ValidationError `json:"fields,omitempty"`
}

func newErrorResponse(err error) ErrorResponse {
	msg := core.MapError(err)
	return ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTableNotFound),
		errors.Is(err, core.ErrEventNotFound),
		errors.Is(err, core.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrAlreadyCheckedIn):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidEvent),
		errors.Is(err, core.ErrInvalidMember):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnknownField),
		errors.Is(err, core.ErrInvalidPayload),
		errors.Is(err, core.ErrInvalidRangeInput),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusGone
	case errors.Is(err, core.ErrSourceUnavailable),
		errors.Is(err, core.ErrExportBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes it in the caller's preferred format,
// using statusFor when status is 0.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	userMsg := core.MapError(err)

	logger := logging.WithFields(r.Context(), "path", r.URL.Path, "method", r.Method, "status", status, "code", userMsg.Code)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "error", err)
	} else {
		logger.Warn("request error", "error", err)
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, status)
	case wantsJSON(r):
		writeJSON(w, status, newErrorResponse(err))
	default:
		respondErrorHTML(w, r, userMsg, status)
	}
}

// respondErrorHTML renders a full error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := templates.Layout(msg.Message, "", templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error page", "error", err)
	}
}

// renderErrorPartial renders an error fragment into the curated table slot
// so the swap replaces the table with the alert.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<div id="curate-table">`))
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error partial", "error", err)
	}
	_, _ = w.Write([]byte(`</div>`))
}

// isHTMX reports whether the request came from the page script's partial swap.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client expects JSON. API reads default to
// JSON; API writes from a browser form without script get HTML.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	if !strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	return r.Method == http.MethodGet || !acceptsHTML(r)
}

// acceptsHTML reports whether a browser sent the request.
func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
