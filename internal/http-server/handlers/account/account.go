package account

import (
	"context"
	"fmt"
	"github.com/go-chi/chi/v5"
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
	RegenerateAccountNumber(ctx context.Context, userID int64, kind entity.RoleKind, clubID string) (string, error)
	AccountByNumber(ctx context.Context, number string) (*entity.AccountSummary, error)
	SearchAccounts(ctx context.Context, query, roleFilter string) ([]entity.AccountSummary, error)
}

func Regenerate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.account")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("account service not available")
			render.JSON(w, r, response.Error("Account service not available"))
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
		number, err := handler.RegenerateAccountNumber(r.Context(), user.ID, kind, params.ClubID)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		logger.Debug("account number regenerated", slog.String("account_number", number))

		render.JSON(w, r, response.Ok(map[string]string{"account_number": number}))
	}
}

func ByNumber(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.account")
		number := chi.URLParam(r, "number")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("account_number", number),
		)

		if handler == nil {
			logger.Error("account service not available")
			render.JSON(w, r, response.Error("Account service not available"))
			return
		}

		summary, err := handler.AccountByNumber(r.Context(), number)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(summary))
	}
}

func Search(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.account")
		query := r.URL.Query().Get("q")
		role := r.URL.Query().Get("role")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("query", query),
		)

		if handler == nil {
			logger.Error("account service not available")
			render.JSON(w, r, response.Error("Account service not available"))
			return
		}

		results, err := handler.SearchAccounts(r.Context(), query, role)
		if err != nil {
			errors.Render(logger, w, r, err)
			return
		}
		logger.Debug("account search", slog.Int("results", len(results)))

		render.JSON(w, r, response.Ok(results))
	}
}
