package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zngsm/chatting/internal/config"
	"github.com/zngsm/chatting/internal/db"
	"github.com/zngsm/chatting/internal/httpapi"
	"github.com/zngsm/chatting/internal/ws"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := ws.NewRegistry()

	var broadcaster ws.Broadcaster = ws.NewLocalBroadcaster(reg)
	if cfg.BroadcastBackend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		rb, err := ws.NewRedisBroadcaster(reg, rdb, cfg.RedisChannel)
		if err != nil {
			log.Fatalf("redis broadcaster: %v", err)
		}
		go rb.Run(ctx)
		broadcaster = rb
		log.Printf("broadcast backend=redis channel=%s", cfg.RedisChannel)
	}

	router := httpapi.NewRouter(gdb, cfg, reg, broadcaster)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("server listening addr=%s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
