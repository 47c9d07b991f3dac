package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mica1614/seims-ai-scanner/internal/config"
	"github.com/Mica1614/seims-ai-scanner/internal/firebase"
	"github.com/Mica1614/seims-ai-scanner/internal/handlers"
	apihttp "github.com/Mica1614/seims-ai-scanner/internal/http"
	"github.com/Mica1614/seims-ai-scanner/internal/log"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	log.Configure(log.Config{Level: cfg.LogLevel})
	logger := log.WithComponent("api")
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}

	opts, err := firebase.ClientOptions(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("firebase credentials")
	}

	app, err := firebase.Initialize(ctx, cfg.Firebase, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("firebase app init failed")
	}

	clients, err := firebase.NewClients(ctx, app)
	if err != nil {
		logger.Fatal().Err(err).Msg("firebase clients init failed")
	}
	defer clients.Close()

	uploads := handlers.NewUploads(ctx, cfg)
	defer uploads.Close()

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Cfg:        cfg,
		Verifier:   clients.Auth,
		DataClient: clients.Firestore,
		WebConfig:  handlers.NewWebConfig(app.Config()),
		Uploads:    uploads,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("project", app.ProjectID()).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info().Msg("shutting down...")
	_ = srv.Shutdown(ctxShutdown)
}
