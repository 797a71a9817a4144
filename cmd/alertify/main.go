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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Alertify/internal/dispatch"
	"Alertify/internal/handler"
	"Alertify/internal/journey"
	"Alertify/internal/listeners"
	"Alertify/internal/models"
	"Alertify/internal/store"
	"Alertify/pkg/cache"
	"Alertify/pkg/config"
	"Alertify/pkg/logger"
	"Alertify/pkg/metrics"
	"Alertify/pkg/middleware"
	"Alertify/pkg/notification"
	"Alertify/pkg/scheduler"
	"Alertify/pkg/sse"
	"Alertify/pkg/util"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	zlog := logger.L()

	db, err := util.OpenDatabase(cfg.DBDriver, cfg.DSN)
	if err != nil {
		zlog.Fatal("open database", zap.Error(err))
	}
	if err := models.Migrate(db); err != nil {
		zlog.Fatal("migrate database", zap.Error(err))
	}
	stores := store.NewStores(db)

	appCache, err := cache.NewCache(cfg.Cache)
	if err != nil {
		zlog.Fatal("init cache", zap.Error(err))
	}
	defer appCache.Close()

	hub := sse.NewHub()

	var senders []dispatch.Sender
	switch cfg.SMSProvider {
	case "aliyun":
		senders = append(senders, &dispatch.SMSSender{Provider: notification.NewAliyunSMS(cfg.Aliyun, nil)})
	default:
		senders = append(senders, &dispatch.SMSSender{Provider: notification.NewTwilioSMS(cfg.Twilio, nil)})
	}
	var mail *notification.MailNotification
	if cfg.Mail.Host != "" {
		mail = notification.NewMailNotification(cfg.Mail)
		senders = append(senders, &dispatch.EmailSender{Mail: mail})
	}

	formatter := &dispatch.Formatter{BaseURL: cfg.PublicBaseURL}
	dispatcher := dispatch.NewDispatcher(dispatch.DispatcherConfig{
		Stores:       stores,
		Senders:      senders,
		Formatter:    formatter,
		Hub:          hub,
		Interval:     cfg.AlertInterval,
		SendTimeout:  cfg.SendTimeout,
		TrackCadence: cfg.TrackCadence,
		Logger:       zlog,
	})
	journeys := journey.NewService(stores, dispatcher, zlog)

	listeners.Init(stores, mail, zlog)

	// Dispatch is server-owned; a restart must not silence an active alert.
	if err := dispatcher.RestoreActive(context.Background()); err != nil {
		zlog.Error("restore active alerts", zap.Error(err))
	}

	gin.SetMode(cfg.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.InjectDB(db))
	if cfg.RateLimit != "" {
		rl, err := middleware.RateLimiter(middleware.RateLimiterConfig{
			Rate: cfg.RateLimit,
			SkipPaths: []string{
				cfg.APIPrefix + "/sos",
				cfg.APIPrefix + "/track",
				"/metrics",
			},
		})
		if err != nil {
			zlog.Fatal("init rate limiter", zap.Error(err))
		}
		r.Use(rl)
	}
	r.GET("/metrics", metrics.Handler())

	h := handler.New(db, stores, dispatcher, journeys, hub, appCache, zlog)
	h.Register(r, cfg.APIPrefix)

	sched := scheduler.New()
	watchdog := journey.NewWatchdog(journeys, stores, cfg.JourneyGrace, zlog)
	sched.Every(time.Minute, watchdog)

	cr := scheduler.NewCron(time.UTC)
	if _, err := cr.Add("30 3 * * *", scheduler.FuncJob(func(ctx context.Context) {
		cutoff := time.Now().Add(-cfg.LocationRetention)
		n, err := stores.Locations.TrimOlderThan(ctx, cutoff)
		if err != nil {
			zlog.Error("trim location history", zap.Error(err))
			return
		}
		zlog.Info("trimmed location history", zap.Int64("rows", n), zap.Time("cutoff", cutoff))
	})); err != nil {
		zlog.Fatal("schedule retention trim", zap.Error(err))
	}
	cr.Start()

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		zlog.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("http shutdown", zap.Error(err))
	}
	sched.Stop()
	cr.Stop()
	dispatcher.StopAll(cfg.SendTimeout + 5*time.Second)
	zlog.Info("bye")
}
