package track

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
	RecordProgressStep(ctx context.Context, userID int64, role entity.RoleKind, step string) (int, error)
}

func Record(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.track")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("progress tracking not available")
			render.JSON(w, r, response.Error("Progress tracking not available"))
			return
		}

		var params entity.ProgressParams
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
			slog.String("step", params.Step),
		)

		role, err := entity.ParseRoleKind(params.Role)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		percent, err := handler.RecordProgressStep(r.Context(), user.ID, role, params.Step)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		logger.Debug("progress updated", slog.Int("percent", percent))

		render.JSON(w, r, response.Ok(map[string]int{"percent": percent}))
	}
}
