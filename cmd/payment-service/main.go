package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"fest-engine/internal/config"
	"fest-engine/internal/logger"
	handlers "fest-engine/internal/payment/handler"
	"fest-engine/internal/payment/services"
	"fest-engine/internal/payment/storage"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Payment Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()

	store, err := storage.NewPostgreSQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Fee storage init failed: %v", err))
	}
	defer store.Close()

	stripeService, err := services.NewStripeService(cfg.Stripe.SecretKey, store, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Stripe init failed: %v", err))
	}

	handler := handlers.NewStripeHandler(stripeService, cfg.Stripe.WebhookSecret, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	payments := router.Group("/payments")
	{
		payments.POST("/fee-intent", handler.FeeIntent)
		payments.POST("/webhook", handler.Webhook)
	}

	port := os.Getenv("PAYMENT_PORT")
	if port == "" {
		port = ":8085"
	}

	server := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP", "Payment Service running on "+port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Payment Service shutdown complete")
	}
}
