package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/resto/internal/config"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/jobs"
	"github.com/kiwari-pos/resto/internal/router"
	"github.com/kiwari-pos/resto/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	hub := ws.NewHub()
	go hub.Run()

	svcs := router.NewServices(cfg, pool)
	r := router.New(cfg, database.New(pool), svcs, hub)

	sched, err := jobs.NewScheduler(ctx, jobs.NewStockAlertJob(svcs.Stock, hub), cfg.StockAlertInterval)
	if err != nil {
		log.Fatalf("Unable to start scheduler: %v", err)
	}
	sched.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: http shutdown: %v", err)
	}
	if err := sched.Stop(); err != nil {
		log.Printf("ERROR: scheduler shutdown: %v", err)
	}
}
