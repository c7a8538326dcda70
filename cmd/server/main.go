package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"feedbox/internal/config"
	"feedbox/internal/db"
	"feedbox/internal/fetch"
	"feedbox/internal/logger"
	"feedbox/internal/repository"
	"feedbox/internal/scheduler"
	"feedbox/internal/service"
	"feedbox/internal/snowflake"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := snowflake.Init(1); err != nil {
		log.Fatalf("init snowflake: %v", err)
	}

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer dbConn.Close()

	feedRepo := repository.NewFeedRepository(dbConn)
	entryRepo := repository.NewEntryRepository(dbConn)
	fetcher := fetch.NewHTTPFetcher(&http.Client{Timeout: cfg.HTTPTimeout})
	feedService := service.NewFeedService(dbConn, feedRepo, entryRepo, fetcher)

	sched := scheduler.New(feedRepo, feedService, cfg.RefreshInterval)
	sched.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
	sched.Stop()
}
