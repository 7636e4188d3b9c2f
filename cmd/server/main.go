package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/evently/internal/config"
	"github.com/iliyamo/evently/internal/queue"
	"github.com/iliyamo/evently/internal/router"
)

func main() {
	// Load .env when present; real deployments set the environment
	// directly and the file is absent.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()
	e := echo.New()
	router.RegisterRoutes(e)

	// Drain the notification queues in the background; the consumer
	// reconnects on its own and never stops the server.
	go func() {
		if err := queue.StartConsumers(); err != nil {
			log.Printf("queue consumers stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
