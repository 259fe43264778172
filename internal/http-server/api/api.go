package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
	"clubq/internal/config"
	"clubq/internal/http-server/handlers/account"
	"clubq/internal/http-server/handlers/errors"
	"clubq/internal/http-server/handlers/health"
	"clubq/internal/http-server/handlers/invite"
	"clubq/internal/http-server/handlers/onboard"
	"clubq/internal/http-server/handlers/roles"
	"clubq/internal/http-server/handlers/track"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"clubq/internal/http-server/middleware/authenticate"
	"clubq/internal/http-server/middleware/timeout"
	"clubq/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	onboard.Core
	roles.Core
	account.Core
	invite.Core
	track.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/health", health.Check())

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Route("/onboarding", func(ob chi.Router) {
			ob.Post("/complete", onboard.Complete(log, handler))
			ob.Post("/roles", onboard.AddRole(log, handler))
			ob.Get("/status", onboard.Status(log, handler))
		})
		rootApi.Route("/roles", func(rl chi.Router) {
			rl.Put("/primary", roles.SetPrimary(log, handler))
			rl.Delete("/", roles.Deactivate(log, handler))
		})
		rootApi.Route("/accounts", func(acc chi.Router) {
			acc.Get("/", account.Search(log, handler))
			acc.Post("/number", account.Regenerate(log, handler))
			acc.Get("/{number}", account.ByNumber(log, handler))
		})
		rootApi.Route("/invites", func(inv chi.Router) {
			inv.Post("/", invite.Create(log, handler))
			inv.Get("/{code}", invite.Validate(log, handler))
			inv.Get("/{code}/preview", invite.Preview(log, handler))
			inv.Delete("/{id}", invite.Deactivate(log, handler))
		})
		rootApi.Post("/progress", track.Record(log, handler))
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
