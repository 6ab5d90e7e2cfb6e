package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mccullochjewellers/storefront/internal/config"
	"github.com/mccullochjewellers/storefront/internal/es"
	"github.com/mccullochjewellers/storefront/internal/handlers"
	"github.com/mccullochjewellers/storefront/internal/httpx"
	"github.com/mccullochjewellers/storefront/internal/logging"
	"github.com/mccullochjewellers/storefront/internal/mailer"
	loggingmw "github.com/mccullochjewellers/storefront/internal/middleware/logging"
	"github.com/mccullochjewellers/storefront/internal/mykafka"
	"github.com/mccullochjewellers/storefront/internal/service/token"
	"github.com/mccullochjewellers/storefront/internal/service/verification"
	httpserver "github.com/mccullochjewellers/storefront/internal/transport/http"
)

const productIndex = "products"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	ctx := context.Background()
	db, err := config.InitDB(ctx, configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	tokenService := &token.Service{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	verificationService := &verification.Service{DB: db}
	mail := &mailer.Mailer{
		Host:        configuration.SMTP_HOST,
		Port:        configuration.SMTP_PORT,
		Username:    configuration.SMTP_USER,
		Password:    configuration.SMTP_PASS,
		From:        configuration.SMTP_FROM,
		FrontendURL: configuration.FRONTEND_URL,
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpx.ErrorHandler
	e.Validator = httpx.NewValidator()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:        db,
		JWTSecret: jwtSecret,
		UserHandler: &handlers.UserHandler{
			DB:           db,
			Tokens:       tokenService,
			Verification: verificationService,
			Mailer:       mail,
			Producer:     producer,
			AutoVerify:   configuration.Development(),
		},
		OAuthHandler: handlers.NewOAuthHandler(
			db,
			tokenService,
			configuration.GOOGLE_CLIENT_ID,
			configuration.GOOGLE_CLIENT_SECRET,
			configuration.FRONTEND_URL+"/api/v1/auth/google/callback",
			configuration.FRONTEND_URL,
		),
		ProductHandler:  &handlers.ProductHandler{DB: db, Producer: producer, ES: esClient, Index: productIndex},
		WatchHandler:    &handlers.WatchHandler{DB: db, Producer: producer},
		FavoriteHandler: &handlers.FavoriteHandler{DB: db, Producer: producer},
		SearchHandler:   &handlers.SearchHandler{ES: esClient, Index: productIndex},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()
	logger.Info("server started", "addr", configuration.HTTP_ADDR, "env", configuration.APP_ENV)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	logger.Info("shutdown complete")
}
