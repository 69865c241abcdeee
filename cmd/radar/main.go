package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/radarhk/radar"
	"github.com/radarhk/radar/auth"
	"github.com/radarhk/radar/core/pipeline"
	"github.com/radarhk/radar/helper"
	"github.com/radarhk/radar/resolver"
	"github.com/radarhk/radar/server"
)

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		log.Fatalf("invalid database configuration: %v", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	app, err := radar.NewRadar(dbConfig, pipeline.EmbeddingDim)
	if err != nil {
		log.Fatalf("could not initialize radar: %v", err)
	}
	defer app.Close()

	logger := app.Logger()

	unfurler := resolver.NewMicrolinkUnfurler(os.Getenv("MICROLINK_URL"))
	searcher := resolver.NewGooglePlacesClient(
		os.Getenv("GOOGLE_PLACES_API_KEY"),
		envOr("GOOGLE_PLACES_REGION", "hk"),
		"",
	)
	app.SetResolvers(unfurler, searcher)

	if envBool("NER_EXTRACTOR", false) {
		if err := app.UseDefaultExtractor(); err != nil {
			log.Fatalf("could not load ner extractor: %v", err)
		}
	}
	if envBool("SEMANTIC_SEARCH", false) {
		if err := app.UseDefaultEmbedder(); err != nil {
			log.Fatalf("could not load embedder: %v", err)
		}
	}

	issuer, err := auth.NewTokenIssuer(jwtSecret)
	if err != nil {
		log.Fatalf("could not create token issuer: %v", err)
	}

	mvpMode := envBool("MVP_MODE", true)
	if mvpMode {
		logger.Warn("MVP mode enabled, OTP bypass active")
	}
	otp := auth.NewOTPService(app.Users, issuer, mvpMode, logger)

	srv := server.New(app, otp, issuer, mvpMode, logger)

	addr := ":" + envOr("PORT", "8080")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting radar server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", "error", err.Error())
	}

	logger.Info("Server stopped")
}
