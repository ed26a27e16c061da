package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tayoga/internal/config"
	"tayoga/internal/functions"
	"tayoga/internal/logging"
	"tayoga/internal/notify"
	"tayoga/internal/queue"
	"tayoga/internal/store"
)

// Worker consumes registration jobs and calls the notification function.
func main() {
	cfg := config.Load()
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend == "memory" {
		log.Fatal("QUEUE_BACKEND=memory runs the dispatcher inside the api; the worker needs redis")
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.WithField("addr", cfg.RedisAddr).Warn("redis not reachable yet, consumer will keep polling")
	}

	q := queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	fn := functions.New(cfg.FunctionsURL, cfg.FunctionsKey, cfg.FunctionsSkip, log.WithField("component", "functions"))
	if cfg.FunctionsSkip {
		log.Warn("FUNCTIONS_SKIP is set, notifications are logged and not sent")
	}

	if err := notify.NewDispatcher(fn, log.WithField("component", "dispatcher")).Run(ctx, q); err != nil {
		log.Fatalf("worker failed: %v", err)
	}
	log.Info("worker stopped")
}
