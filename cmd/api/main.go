package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openballot/backend/internal/config"
	"github.com/openballot/backend/internal/server"
)

func main() {
	cfg, err := config.New(os.Args[1:])
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("database_url is required (flag or DATABASE_URL)")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("jwt_secret is required (flag or JWT_SECRET)")
	}

	srv, db, err := server.New(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// signal.Notify requires the channel to be buffered
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	log.Infof("sig=%v, gracefully shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Errorf("database close: %v", err)
	}

	log.Info("server stopped")
}
