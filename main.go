// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v81"

	"go-tours/controllers"
	"go-tours/middleware"
	"go-tours/models"
	"go-tours/routes"
	"go-tours/utils"
	"go-tours/views"
)

func main() {
	// A missing .env is fine in production, variables come from the host.
	_ = godotenv.Load()

	cfg, err := utils.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := utils.NewLogger(cfg.Env)

	stripe.Key = cfg.StripeSecretKey

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := utils.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := client.Disconnect(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("database disconnect failed")
		}
	}()
	log.Info().Msg("database connection successful")

	db := client.Database(cfg.DatabaseName)
	if err := models.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	validate := validator.New()
	stores := models.NewStores(db, validate)

	renderer, err := views.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("template parsing failed")
	}

	errHandler := controllers.NewErrorHandler(log, cfg.IsProduction(), renderer)
	email := utils.NewEmailService(cfg)
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	auth := middleware.NewAuth(tokens, stores.Users, errHandler.Respond)
	limiter := middleware.NewRateLimiter(100, 15*time.Minute, errHandler.Respond)

	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Recovery(log))

	routes.RegisterRoutes(router, routes.Controllers{
		Auth:     controllers.NewAuthController(stores, tokens, email, errHandler, validate, cfg),
		Tours:    controllers.NewTourController(stores, errHandler),
		Users:    controllers.NewUserController(stores, errHandler),
		Reviews:  controllers.NewReviewController(stores, errHandler),
		Bookings: controllers.NewBookingController(stores, errHandler, cfg),
		Views:    controllers.NewViewController(stores, renderer, errHandler),
		Errors:   errHandler,
	}, auth, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
