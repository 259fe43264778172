package main

import (
	"flag"
	"log"
	"log/slog"
	"path/filepath"
	"clubq/impl/auth"
	"clubq/impl/core"
	"clubq/internal/accounts"
	"clubq/internal/config"
	"clubq/internal/database"
	"clubq/internal/http-server/api"
	"clubq/internal/invites"
	"clubq/internal/onboarding"
	"clubq/internal/progress"
	"clubq/lib/logger"
	"clubq/lib/sl"
)

const logFileName = "clubq.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	lg.Info("starting clubq", slog.String("config", *configPath), slog.String("env", conf.Env))

	store, err := database.NewSQLClient(conf)
	if err != nil {
		log.Fatal("database connection: ", err)
	}
	lg.Info("database connected", slog.String("host", conf.MySql.HostName))

	accountService := accounts.NewService(store, conf.Accounts.ReserveAttempts, lg)
	inviteRegistry := invites.NewRegistry(store, invites.Config{
		CodeLength:        conf.Invites.CodeLength,
		DefaultUsageLimit: conf.Invites.DefaultUsageLimit,
		DefaultTTLHours:   conf.Invites.DefaultTTLHours,
	}, lg)
	orchestrator := onboarding.New(store, accountService, inviteRegistry, lg)

	handler := core.New(accountService, inviteRegistry, orchestrator, lg)
	handler.SetAuthService(auth.New(store))

	if mongo := database.NewMongoClient(conf); mongo != nil {
		handler.SetTracker(progress.NewTracker(mongo, lg))
		lg.Info("completion tracker enabled", slog.String("host", conf.Mongo.Host))
	}

	if err = api.New(conf, lg, handler); err != nil {
		lg.Error("api server stopped", sl.Err(err))
	}
}
