package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rehearsal-room-booking/internal/captcha"
	"github.com/iliyamo/rehearsal-room-booking/internal/config"
	"github.com/iliyamo/rehearsal-room-booking/internal/database"
	"github.com/iliyamo/rehearsal-room-booking/internal/handler"
	"github.com/iliyamo/rehearsal-room-booking/internal/notify"
	"github.com/iliyamo/rehearsal-room-booking/internal/payment"
	"github.com/iliyamo/rehearsal-room-booking/internal/repository"
	"github.com/iliyamo/rehearsal-room-booking/internal/router"
	"github.com/iliyamo/rehearsal-room-booking/internal/scheduler"
	"github.com/iliyamo/rehearsal-room-booking/internal/service"
	"github.com/iliyamo/rehearsal-room-booking/internal/settings"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("timezone %q: %v", cfg.Timezone, err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, settings fall back to defaults")
	}
	store := settings.NewStore(rdb, cfg.DefaultPriceCents, cfg.DefaultAccessCode)

	repo := repository.NewReservationRepo(db)
	gateway := payment.NewClient(cfg.PayAPIURL, cfg.PayAPIKey)
	dispatcher := notify.NewDispatcher(repo, notify.AMQPTransport{})
	bookings := service.NewBookingService(repo, gateway, store, dispatcher, loc, cfg.BaseURL, cfg.Currency)

	var verifier captcha.Verifier = captcha.Disabled{}
	if cfg.CaptchaSecret != "" && cfg.CaptchaVerifyURL != "" {
		verifier = captcha.NewHTTPVerifier(cfg.CaptchaVerifyURL, cfg.CaptchaSecret)
	}

	// Background reconciliation: the payment poll and the expiry sweep run
	// on their own clocks; the webhook stays the fast path.
	sched := scheduler.New()
	sched.Add("payment-poll", 30*time.Second, bookings.PollPending)
	sched.Add("expiry-sweep", time.Minute, bookings.ExpireOverdue)
	sched.Start(context.Background())
	defer sched.Stop()

	// Drain the notification queues (writes logs/notify.log).
	go notify.StartConsumer()

	e := echo.New()
	router.RegisterRoutes(e,
		handler.NewBookingHandler(bookings, verifier),
		handler.NewPaymentHandler(bookings),
		handler.NewAdminHandler(bookings, cfg.JWTSecret, cfg.AdminPassHash),
		cfg.JWTSecret,
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
