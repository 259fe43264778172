package invite

import (
	"context"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"time"
	"clubq/entity"
	"clubq/internal/http-server/handlers/errors"
	"clubq/lib/api/cont"
	"clubq/lib/api/response"
	"clubq/lib/sl"
)

type Core interface {
	CreateInvite(ctx context.Context, requesterID int64, clubID string, role entity.RoleKind, expiresAt *time.Time, usageLimit *int) (*entity.InviteCode, error)
	ValidateInvite(ctx context.Context, code string) (*entity.InviteValidation, error)
	PreviewInvite(ctx context.Context, code string, userID int64) (*entity.InvitePreview, error)
	DeactivateInvite(ctx context.Context, inviteID string, requesterID int64) error
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.invite")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("invite service not available")
			render.JSON(w, r, response.Error("Invite service not available"))
			return
		}

		var params entity.InviteParams
		if err := render.Bind(r, &params); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		user := cont.GetUser(r.Context())
		logger = logger.With(
			slog.Int64("user_id", user.ID),
			slog.String("club_id", params.ClubID),
			slog.String("role", params.Role),
		)

		role, err := entity.ParseRoleKind(params.Role)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		code, err := handler.CreateInvite(r.Context(), user.ID, params.ClubID, role, params.ExpiresAt, params.UsageLimit)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		logger.Debug("invite created", sl.Secret("code", code.Code))

		render.JSON(w, r, response.Ok(code))
	}
}

func Validate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.invite")
		code := chi.URLParam(r, "code")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Secret("code", code),
		)

		if handler == nil {
			logger.Error("invite service not available")
			render.JSON(w, r, response.Error("Invite service not available"))
			return
		}

		result, err := handler.ValidateInvite(r.Context(), code)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		logger.Debug("invite checked", slog.String("status", string(result.Status)))

		render.JSON(w, r, response.Ok(result))
	}
}

func Preview(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.invite")
		code := chi.URLParam(r, "code")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Secret("code", code),
		)

		if handler == nil {
			logger.Error("invite service not available")
			render.JSON(w, r, response.Error("Invite service not available"))
			return
		}

		user := cont.GetUser(r.Context())
		preview, err := handler.PreviewInvite(r.Context(), code, user.ID)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(preview))
	}
}

func Deactivate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.invite")
		inviteID := chi.URLParam(r, "id")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("invite_id", inviteID),
		)

		if handler == nil {
			logger.Error("invite service not available")
			render.JSON(w, r, response.Error("Invite service not available"))
			return
		}

		user := cont.GetUser(r.Context())
		if err := handler.DeactivateInvite(r.Context(), inviteID, user.ID); err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		logger.Debug("invite deactivated")

		render.JSON(w, r, response.Ok(nil))
	}
}
