// ABOUTME: Central mapping from pipeline errors to HTTP status and body.
// ABOUTME: Every handler funnels failures through one place so shapes stay uniform.

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lanternworks/telegate/internal/chat"
	"github.com/lanternworks/telegate/internal/telegram"
)

// errorResponse is the uniform error body. Details carries the underlying
// error text for operational failures and is omitted for client mistakes.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// mapError classifies a pipeline error into HTTP status and body.
func mapError(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, chat.ErrInvalidTarget):
		return http.StatusBadRequest, errorResponse{
			Error: "targetId must be a positive integer or @username",
		}
	case errors.Is(err, chat.ErrEntityNotFound):
		return http.StatusNotFound, errorResponse{
			Error: "Entity not found or could not be resolved",
		}
	case errors.Is(err, telegram.ErrConnect), errors.Is(err, telegram.ErrNotAuthorized):
		return http.StatusInternalServerError, errorResponse{
			Error:   "telegram connection failed",
			Details: err.Error(),
		}
	case errors.Is(err, chat.ErrFetch):
		return http.StatusInternalServerError, errorResponse{
			Error:   "fetching messages failed",
			Details: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorResponse{
			Error:   "internal error",
			Details: err.Error(),
		}
	}
}

// sendMappedError writes the mapped response for err and logs server-side
// failures at error level.
func (g *Gateway) sendMappedError(w http.ResponseWriter, err error) {
	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		g.logger.Error("request failed", "status", status, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// sendJSONError writes a plain error body with the given status.
func sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}
