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

	"github.com/mindharbor/wellness-platform/internal/config"
	"github.com/mindharbor/wellness-platform/internal/db"
	"github.com/mindharbor/wellness-platform/internal/httpapi"
	"github.com/mindharbor/wellness-platform/internal/store/rabbitmq"
	"github.com/mindharbor/wellness-platform/internal/store/redisstore"
	"github.com/mindharbor/wellness-platform/internal/ws"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	db.Migrate(gdb)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()
	if err := rds.Ping(context.Background()); err != nil {
		log.Printf("redis unavailable: %v", err)
	}

	// Async chat is optional: without rabbit the sync and streaming
	// endpoints still work, /chat/messages/async returns 503.
	rabbit, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Printf("rabbit unavailable, async chat disabled: %v", err)
		rabbit = nil
	} else {
		defer rabbit.Close()
	}

	engine, h := httpapi.NewRouter(gdb, cfg, rds, rabbit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Push worker job completions to the owning user's websocket.
	go func() {
		for {
			err := rds.SubscribeJobDone(ctx, cfg.NotifyChannel, func(n redisstore.JobDone) {
				h.Relay.NotifyJobDone(n.UserID, ws.JobDoneEvent{
					JobID:     n.JobID,
					SessionID: n.SessionID,
					Status:    n.Status,
					MessageID: n.MessageID,
					Error:     n.Error,
				})
			})
			if ctx.Err() != nil {
				return
			}
			log.Printf("job notify subscription dropped, retrying: %v", err)
			time.Sleep(1 * time.Second)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("server shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
