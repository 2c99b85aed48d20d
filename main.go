package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"fest-engine/internal/attendance"
	attendance_api "fest-engine/internal/attendance/api"
	attendance_db "fest-engine/internal/attendance/db"
	"fest-engine/internal/auth"
	"fest-engine/internal/cache"
	"fest-engine/internal/chat"
	"fest-engine/internal/config"
	"fest-engine/internal/database/migrations"
	"fest-engine/internal/events"
	events_api "fest-engine/internal/events/api"
	events_db "fest-engine/internal/events/db"
	"fest-engine/internal/logger"
	"fest-engine/internal/notify"
	"fest-engine/internal/payment/services"
	"fest-engine/internal/payment/storage"
	"fest-engine/internal/registration"
	registration_api "fest-engine/internal/registration/api"
	registration_db "fest-engine/internal/registration/db"
	"fest-engine/internal/teams"
	teams_api "fest-engine/internal/teams/api"
	teams_db "fest-engine/internal/teams/db"
	"fest-engine/internal/tickets/qr"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN())
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Fest Engine initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	if os.Getenv("AUTO_MIGRATE") == "true" {
		runner := migrations.NewRunner(bunDB, log, migrations.DefaultOptions())
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
	}

	var redisClient *redis.Client
	var claimsCache *auth.ClaimsCache
	var listCache *cache.EventListCache
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = auth.InitializeRedis(cfg.Redis.Addr, log)
		if err != nil {
			log.Warn("REDIS", fmt.Sprintf("Redis unavailable, running without caches: %v", err))
		} else {
			defer redisClient.Close()
			claimsCache = auth.NewClaimsCache(redisClient, log)
			listCache = cache.NewEventListCache(redisClient, log)
		}
	}

	var notifier registration.Notifier
	if cfg.Kafka.Enabled {
		requiredTopics := []string{cfg.Kafka.Topics.RegistrationConfirmed}
		if err := notify.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := notify.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.RegistrationConfirmed, log)
		defer producer.Close()
		notifier = producer
		log.Info("KAFKA", "Kafka producer initialized successfully")
	}

	var fees registration.FeeCollector
	if cfg.Stripe.Enabled {
		feeStore, err := storage.NewPostgreSQLStoreWithDB(bunDB.DB, log)
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Fee storage init failed: %v", err))
		}
		stripeService, err := services.NewStripeService(cfg.Stripe.SecretKey, feeStore, log)
		if err != nil {
			log.Fatal("STRIPE", fmt.Sprintf("Stripe init failed: %v", err))
		}
		fees = stripeService
	}

	qrSecret := os.Getenv("QR_SECRET")
	if qrSecret == "" {
		qrSecret = cfg.Auth.JWTSecret
	}
	qrGen := qr.NewGenerator(qrSecret)

	eventService := events.NewService(&events_db.DB{Bun: bunDB}, log)
	registrationService := registration.NewService(&registration_db.DB{Bun: bunDB}, notifier, fees, log)
	teamService := teams.NewService(&teams_db.DB{Bun: bunDB}, log)
	attendanceService := attendance.NewService(&attendance_db.DB{Bun: bunDB}, log)
	presence := chat.NewPresence()

	eventHandler := events_api.NewHandler(eventService, listCache, log)
	registrationHandler := registration_api.NewHandler(registrationService, qrGen, log)
	teamHandler := teams_api.NewHandler(teamService, log)
	attendanceHandler := attendance_api.NewHandler(attendanceService, log)
	chatHandler := chat.NewHandler(presence)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		// Public listing and detail reads.
		r.Get("/events", eventHandler.ListEvents)
		r.Get("/events/{id}", eventHandler.GetEvent)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth, claimsCache, log))

			r.Route("/events", func(r chi.Router) {
				r.Post("/", eventHandler.CreateEvent)
				r.Get("/my", eventHandler.ListMyEvents)
				r.Get("/analytics", eventHandler.Analytics)
				r.Put("/{id}", eventHandler.UpdateEvent)
				r.Delete("/{id}", eventHandler.DeleteEvent)
				r.Get("/{id}/registrations", eventHandler.EventRegistrations)
			})

			r.Route("/registrations", func(r chi.Router) {
				r.Post("/", registrationHandler.Register)
				r.Get("/my", registrationHandler.GetMyRegistrations)
				r.Get("/{id}/ticket", registrationHandler.GetTicket)
			})

			r.Route("/teams", func(r chi.Router) {
				r.Post("/", teamHandler.CreateTeam)
				r.Post("/join", teamHandler.JoinTeam)
				r.Get("/my", teamHandler.GetMyTeams)
				r.Get("/{id}", teamHandler.GetTeam)
				r.Get("/event/{eventId}", teamHandler.GetEventTeams)
				r.Delete("/{id}/leave", teamHandler.LeaveTeam)
				r.Delete("/{id}", teamHandler.DeleteTeam)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/scan", attendanceHandler.Scan)
				r.Post("/manual", attendanceHandler.Manual)
				r.Get("/event/{id}", attendanceHandler.Stats)
				r.Get("/event/{id}/export", attendanceHandler.Export)
			})

			r.Route("/chat/{teamId}", func(r chi.Router) {
				r.Post("/presence", chatHandler.Ping)
				r.Get("/presence", chatHandler.Snapshot)
				r.Post("/typing", chatHandler.Typing)
			})
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", "Fest Engine running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Fest Engine shutdown complete")
	}
}
