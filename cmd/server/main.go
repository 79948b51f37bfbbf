package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-slot-reservation/internal/config"
	"github.com/iliyamo/appointment-slot-reservation/internal/database"
	"github.com/iliyamo/appointment-slot-reservation/internal/handler"
	custommw "github.com/iliyamo/appointment-slot-reservation/internal/middleware"
	"github.com/iliyamo/appointment-slot-reservation/internal/queue"
	"github.com/iliyamo/appointment-slot-reservation/internal/repository"
	"github.com/iliyamo/appointment-slot-reservation/internal/reservation"
	"github.com/iliyamo/appointment-slot-reservation/internal/router"
	queue_publisher "github.com/iliyamo/appointment-slot-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // optional .env for local development
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("schema bootstrap failed: %v", err)
	}

	slotRepo := repository.NewSlotRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	engine := reservation.NewEngine(db, slotRepo, bookingRepo,
		queue_publisher.Notifier{}, nil, cfg.PublicBaseURL)

	slotHandler := handler.NewSlotHandler(slotRepo)
	reservationHandler := handler.NewReservationHandler(engine, bookingRepo)

	e := echo.New()

	// Distributed rate limiting; degrades to a no-op when Redis is absent.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}
	e.Use(custommw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, slotHandler, reservationHandler)
	router.RegisterProtected(e, slotHandler, reservationHandler, cfg.JWTSecret)

	// Background consumer that mirrors reservation events into logs/.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
