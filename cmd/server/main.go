// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/e-crumb/blanks/internal/auth"
	"github.com/e-crumb/blanks/internal/cache"
	"github.com/e-crumb/blanks/internal/content"
	"github.com/e-crumb/blanks/internal/database"
	"github.com/e-crumb/blanks/internal/game"
	"github.com/e-crumb/blanks/internal/handlers"
	"github.com/e-crumb/blanks/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		logger.Fatalf("auth init failed: %v", err)
	}

	ctx := context.Background()

	// Postgres backs the event log and custom cards; the game itself is
	// in-memory, so a missing database only degrades those features.
	var eventLog *database.EventLog
	var cardStore *database.CustomCardStore
	if os.Getenv("PG_DATABASE") != "" {
		pool, err := database.Connect(ctx)
		if err != nil {
			logger.Warnf("database unavailable, event log and custom cards disabled: %v", err)
		} else {
			eventLog = database.NewEventLog(pool)
			cardStore = database.NewCustomCardStore(pool)
		}
	}

	var historian *cache.Historian
	if os.Getenv("REDIS_ADDR") != "" {
		h, err := cache.Connect(ctx)
		if err != nil {
			logger.Warnf("redis unavailable, historian disabled: %v", err)
		} else {
			historian = h
		}
	}

	dataDir := os.Getenv("CARD_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	var customSource content.CustomCardSource
	if cardStore != nil {
		customSource = cardStore
	}
	provider, err := content.NewFileProvider(dataDir, customSource)
	if err != nil {
		logger.Fatalf("card packs failed to load: %v", err)
	}

	registry := game.NewSessionRegistry(provider, logger)
	srv := handlers.NewServer(registry, logger)
	srv.Historian = historian
	srv.EventLog = eventLog
	srv.Cards = cardStore

	logged := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()

	mux.Handle("/session/create", logged(http.HandlerFunc(srv.CreateSessionHandler)))
	mux.Handle("/session/end", logged(http.HandlerFunc(srv.EndSessionHandler)))
	mux.Handle("/session/scores", logged(http.HandlerFunc(srv.ScoresHandler)))

	mux.Handle("/cards/submit", logged(http.HandlerFunc(srv.SubmitCardHandler)))
	mux.Handle("/cards/pending", logged(http.HandlerFunc(srv.PendingCardsHandler)))
	mux.Handle("/cards/approve", logged(http.HandlerFunc(srv.ApproveCardHandler)))

	mux.Handle("/session/ws/", logged(http.HandlerFunc(
		handlers.SessionWSHandler(logger, srv),
	)))

	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logger.Infof("listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
