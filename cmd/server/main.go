package main

import (
	"flag"
	"log/slog"
	"time"

	"supplyhub/impl/core"
	"supplyhub/internal/config"
	repository "supplyhub/internal/database"
	"supplyhub/internal/http-server/api"
	"supplyhub/internal/lib/fileurl"
	"supplyhub/internal/lib/logger"
	"supplyhub/internal/lib/sl"
	"supplyhub/internal/service/auth"
	"supplyhub/internal/service/notify"
	"supplyhub/internal/ws"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting supplyhub", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	handler := core.New(lg)

	authService := auth.NewAuthService(conf, lg)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		authService.SetRepository(db)
		handler.SetRepository(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}
	handler.SetAuthService(authService)

	notifyService := notify.NewNotifyService(conf, lg)
	handler.SetNotifyService(notifyService)
	if conf.Smtp.Enabled {
		lg.With(
			slog.String("host", conf.Smtp.Host),
			slog.String("from", conf.Smtp.From),
		).Info("notify service initialized")
	}

	hub := ws.NewHub(lg)
	hub.SetHandler(handler)
	handler.SetHub(hub)
	go hub.Run()

	links := fileurl.NewSigner(conf.Uploads.LinkSecret, time.Duration(conf.Uploads.LinkTTLHours)*time.Hour)
	handler.SetLinkSigner(links)

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler, hub, links)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
