package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/avasile/ticketbooth/internal/config"
	"github.com/avasile/ticketbooth/internal/database"
	"github.com/avasile/ticketbooth/internal/handler"
	"github.com/avasile/ticketbooth/internal/middleware"
	"github.com/avasile/ticketbooth/internal/queue"
	"github.com/avasile/ticketbooth/internal/repository"
	"github.com/avasile/ticketbooth/internal/router"
)

func main() {
	// Load .env when present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	showHandler := handler.NewShowHandler(shows)
	reservationHandler := handler.NewReservationHandler(reservations)

	// Redis is optional: with no client both middlewares become no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response caching disabled")
	}
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.Use(rateLimit)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterShows(e, showHandler, cfg.JWTSecret, cache)
	router.RegisterReservations(e, reservationHandler, cfg.JWTSecret)

	// Background consumer writes the reservation audit log; it reconnects
	// on its own and never takes the server down.
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
