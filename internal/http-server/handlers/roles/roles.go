package roles

import (
	"context"
	"fmt"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"clubq/entity"
	"clubq/internal/http-server/handlers/errors"
	"clubq/lib/api/cont"
	"clubq/lib/api/response"
	"clubq/lib/sl"
)

type Core interface {
	SetPrimaryRole(ctx context.Context, userID int64, kind entity.RoleKind) error
	DeactivateRole(ctx context.Context, userID int64, kind entity.RoleKind, clubID string) error
}

func SetPrimary(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.roles")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("role service not available")
			render.JSON(w, r, response.Error("Role service not available"))
			return
		}

		var params entity.RoleParams
		if err := render.Bind(r, &params); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		user := cont.GetUser(r.Context())
		logger = logger.With(
			slog.Int64("user_id", user.ID),
			slog.String("role", params.Role),
		)

		kind, err := params.Kind()
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		if err = handler.SetPrimaryRole(r.Context(), user.ID, kind); err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		logger.Debug("primary role changed")

		render.JSON(w, r, response.Ok(params))
	}
}

func Deactivate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.roles")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("role service not available")
			render.JSON(w, r, response.Error("Role service not available"))
			return
		}

		var params entity.RoleParams
		if err := render.Bind(r, &params); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		user := cont.GetUser(r.Context())
		logger = logger.With(
			slog.Int64("user_id", user.ID),
			slog.String("role", params.Role),
			slog.String("club_id", params.ClubID),
		)

		kind, err := params.Kind()
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		if err = handler.DeactivateRole(r.Context(), user.ID, kind, params.ClubID); err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		logger.Debug("role deactivated")

		render.JSON(w, r, response.Ok(params))
	}
}
