package onboard

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
	CompleteOnboarding(ctx context.Context, userID int64, params *entity.OnboardingParams) (*entity.OnboardingResult, error)
	AddRole(ctx context.Context, userID int64, params *entity.OnboardingParams) (*entity.OnboardingResult, error)
	UserStatus(ctx context.Context, userID int64) (*entity.UserStatus, error)
}

func Complete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.onboard")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("onboarding service not available")
			render.JSON(w, r, response.Error("Onboarding service not available"))
			return
		}

		var params entity.OnboardingParams
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

		result, err := handler.CompleteOnboarding(r.Context(), user.ID, &params)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		logger.Debug("onboarding completed", slog.String("account_number", result.AccountNumber))

		render.JSON(w, r, response.Ok(result))
	}
}

func AddRole(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.onboard")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("onboarding service not available")
			render.JSON(w, r, response.Error("Onboarding service not available"))
			return
		}

		var params entity.OnboardingParams
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

		result, err := handler.AddRole(r.Context(), user.ID, &params)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		logger.Debug("role added", slog.String("account_number", result.AccountNumber))

		render.JSON(w, r, response.Ok(result))
	}
}

func Status(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.onboard")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("onboarding service not available")
			render.JSON(w, r, response.Error("Onboarding service not available"))
			return
		}

		user := cont.GetUser(r.Context())
		logger = logger.With(slog.Int64("user_id", user.ID))

		status, err := handler.UserStatus(r.Context(), user.ID)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(status))
	}
}
