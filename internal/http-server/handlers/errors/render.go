package errors

import (
	"errors"
	"log/slog"
	"net/http"
	"clubq/entity"
	"clubq/lib/api/response"
	"clubq/lib/sl"

	"github.com/go-chi/render"
)

// Render writes the canonical client message for a domain error with a
// status code matching its kind. Unknown errors are logged and reported
// as a plain failure so internals never leak to the client.
func Render(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, response.Error("Request failed"))
		return
	}
	log.Warn("request rejected", sl.Err(err))
	render.Status(r, status)
	render.JSON(w, r, response.Error(entity.UserMessage(err)))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, entity.ErrExpired),
		errors.Is(err, entity.ErrExhausted),
		errors.Is(err, entity.ErrDeactivated):
		return http.StatusGone
	case errors.Is(err, entity.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
