package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/datahub-labs/auth-service/internal/config"
	"github.com/datahub-labs/auth-service/internal/database"
	"github.com/datahub-labs/auth-service/internal/handler"
	"github.com/datahub-labs/auth-service/internal/queue"
	"github.com/datahub-labs/auth-service/internal/repository"
	"github.com/datahub-labs/auth-service/internal/router"
)

func main() {
	_ = godotenv.Load() // optional .env for local development
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	codes := repository.NewAuthCodeRepo(db)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting and caching disabled")
	}

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	oauthHandler := handler.NewOAuthHandler(cfg, users, tokens, codes)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, authHandler, oauthHandler, rdb)

	// Drain audit events in the background; the consumer reconnects on
	// broker failures and never takes the server down.
	go func() {
		if err := queue.StartAuthEventConsumer(); err != nil {
			log.Printf("auth event consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
