package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"tayoga/internal/auth"
	"tayoga/internal/booking"
	"tayoga/internal/config"
	"tayoga/internal/functions"
	"tayoga/internal/handler"
	"tayoga/internal/httpmiddleware"
	"tayoga/internal/logging"
	"tayoga/internal/notify"
	"tayoga/internal/queue"
	"tayoga/internal/schedule"
	"tayoga/internal/seo"
	"tayoga/internal/store"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Env, cfg.LogLevel)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App, log *logrus.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if db == nil {
		return err
	}
	if err != nil {
		log.WithError(err).Warn("db not reachable, starting degraded")
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		mem := queue.NewInMemory(256)
		q = mem
		// no separate worker reads an in-process queue
		fn := functions.New(cfg.FunctionsURL, cfg.FunctionsKey, cfg.FunctionsSkip, log.WithField("component", "functions"))
		dispatcher := notify.NewDispatcher(fn, log.WithField("component", "dispatcher"))
		go func() {
			if err := dispatcher.Run(ctx, mem); err != nil {
				log.WithError(err).Error("notification dispatcher stopped")
			}
		}()
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	}

	scheduleSvc := schedule.NewService(
		schedule.NewRepository(db.Client),
		schedule.NewRedisCache(redisClient.Client, ""),
		cfg.ScheduleCacheTTL,
		log.WithField("component", "schedule"),
	)
	warmer := schedule.NewWarmer(scheduleSvc, cfg.ScheduleWarmCron, log.WithField("component", "warmer"))
	if err := warmer.Start(); err != nil {
		log.WithError(err).Warn("opening hours warmer disabled")
	} else {
		defer warmer.Stop()
	}

	bookingSvc := booking.NewService(
		scheduleSvc,
		booking.NewRepository(db.Client),
		notify.NewNotifier(q, log.WithField("component", "notifier")),
		log.WithField("component", "booking"),
	)

	sessions := auth.NewSessions(auth.NewDBProvider(db.Client), cfg.SessionTTL, log.WithField("component", "auth"))
	defer sessions.Close()
	bus := auth.NewEventBus(redisClient.Client, "", log.WithField("component", "auth-events"))
	sessions.Subscribe(bus.Forward(ctx))
	go sessions.Watch(ctx, bus.Subscribe(ctx))

	table, err := seo.LoadTable(cfg.SEOTablePath)
	if err != nil {
		return err
	}
	page, err := os.ReadFile(filepath.Join(cfg.WebDir, "index.html"))
	if err != nil {
		log.WithError(err).Warn("site shell not found, pages disabled")
	}

	h := handler.New(handler.Deps{
		Schedule: scheduleSvc,
		Bookings: bookingSvc,
		Sessions: sessions,
		Tokens:   auth.NewTokenService(cfg.JWTIssuer, cfg.JWTSigningKey),
		SEO:      seo.NewInjector(table, cfg.SiteURL),
		Page:     page,
		WebDir:   cfg.WebDir,
		Checks: map[string]handler.HealthCheck{
			"db":    db.Healthy,
			"redis": redisClient.Healthy,
		},
		Log: log.WithField("component", "http"),
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    logging.Writer(log),
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS(cfg.AllowedOrigins))
	r.Use(httpmiddleware.SecurityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	limiter := httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin/3, cfg.RateLimitPerMin)
	h.Routes(r, limiter.GinMiddleware())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server forced shutdown")
	}
	log.Info("server exited")
	return nil
}
