package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	datafeed "github.com/fazecat/tokensentry/Internal/database"
	"github.com/fazecat/tokensentry/Internal/handlers"
	settingshandler "github.com/fazecat/tokensentry/Internal/handlers/settings"
	"github.com/fazecat/tokensentry/Internal/utils/config"
	"github.com/fazecat/tokensentry/cmd/api/internal"
	"github.com/joho/godotenv"
)

const requestTimeout = 90 * time.Second

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../../.env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app, err := handlers.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer app.Close()

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Println("Warning: JWT_SECRET_KEY not set, tokens will not survive a restart")
	}
	jwtManager, err := internal.NewJWTManager(secret)
	if err != nil {
		log.Fatalf("Failed to init JWT: %v", err)
	}

	apiServer := &internal.API{
		Analyzer:     app.Analyzer,
		News:         app.News,
		Settings:     settingshandler.NewHandler(app.Settings, app.Cipher),
		JWTManager:   jwtManager,
		AdminKey:     cfg.Auth.AdminKey,
		TokenHours:   cfg.Auth.TokenHours,
		RequireToken: cfg.Auth.RequireToken,
		Health: func() map[string]string {
			components := map[string]string{"database": "disabled", "headlines": "disabled"}
			if app.DatabaseReady {
				components["database"] = "ok"
				if err := datafeed.HealthCheck(ctx); err != nil {
					components["database"] = err.Error()
				}
			}
			if app.News != nil {
				components["headlines"] = "ok"
			}
			return components
		},
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           internal.NewRouter(apiServer, requestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting API server on %s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to generate JWT secret: %v", err)
	}
	return hex.EncodeToString(b)
}
