package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/karnika-s/heart-temp-sub000/internal/config"
	"github.com/karnika-s/heart-temp-sub000/internal/database"
	"github.com/karnika-s/heart-temp-sub000/internal/handler"
	"github.com/karnika-s/heart-temp-sub000/internal/logger"
	"github.com/karnika-s/heart-temp-sub000/internal/metrics"
	"github.com/karnika-s/heart-temp-sub000/internal/middleware"
	"github.com/karnika-s/heart-temp-sub000/internal/notify"
	"github.com/karnika-s/heart-temp-sub000/internal/queue"
	"github.com/karnika-s/heart-temp-sub000/internal/repository"
	"github.com/karnika-s/heart-temp-sub000/internal/router"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logger.New(logger.Options{
		Prefix:       "ledger",
		Env:          cfg.Env,
		RollbarToken: cfg.RollbarToken,
		Debug:        cfg.Env == "dev",
	})
	defer log.Close()

	if err := run(cfg, log); err != nil {
		log.Errorf("server: %v", err)
		log.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// set up DB
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	applied, err := database.Migrate(db)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, name := range applied {
		log.Infof("applied migration %s", name)
	}
	store := repository.NewStore(db)

	// set up services
	m := metrics.New()
	notifier, closeNotifier, err := buildNotifier(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	opts := []service.Option{service.WithObserver(m), service.WithLinkBase(cfg.AppURL)}
	if notifier != nil {
		opts = append(opts, service.WithNotifier(notifier))
	}
	svc := service.New(store, opts...)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warnf("redis unavailable: caching and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Logger = log
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Errorf("%s %s %d %s: %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(middleware.CORS(cfg.CORSOrigins))
	e.Use(m.Middleware())

	router.RegisterRoutes(e, db, m)
	router.RegisterAuth(e, handler.NewAuthHandler(store.Users(), cfg.JWTSecret, cfg.AccessTTL), cfg.JWTSecret)
	router.RegisterLedger(e, handler.NewLedgerHandler(svc, handler.NewValidator()), cfg.JWTSecret, router.LedgerOptions{
		RateLimit: middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewResponseCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	log.Infof("listening on %s (env=%s, notify=%s)", addr, cfg.Env, cfg.NotifyMode)
	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
	defer cancel()
	return e.Shutdown(sctx)
}

// buildNotifier picks the delivery path for cfg.NotifyMode.  "queue"
// publishes to RabbitMQ and starts an in-process consumer that sends
// the mail; "direct" sends from a goroutine per message; "off" returns
// a nil notifier.
func buildNotifier(ctx context.Context, cfg config.Config, log *logger.Logger) (service.Notifier, func(), error) {
	noop := func() {}
	if cfg.NotifyMode == "off" {
		return nil, noop, nil
	}

	r, err := notify.NewRenderer()
	if err != nil {
		return nil, noop, err
	}
	sender, err := notify.NewSender(cfg.MailProvider, cfg.MailFrom, cfg.ResendAPIKey, cfg.SendgridKey, log)
	if err != nil {
		return nil, noop, err
	}
	mailer := notify.NewMailer(r, sender)

	switch cfg.NotifyMode {
	case "direct":
		return notify.NewAsync(mailer, log, 30*time.Second), noop, nil
	case "queue":
		pub := queue.NewPublisher(cfg.AMQPURL, log)
		consumer := queue.NewConsumer(cfg.AMQPURL, mailer, log)
		cctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := consumer.Run(cctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("notification consumer stopped: %v", err)
			}
		}()
		return pub, func() {
			cancel()
			_ = pub.Close()
			<-done
		}, nil
	}
	return nil, noop, fmt.Errorf("unsupported NOTIFY_MODE %q", cfg.NotifyMode)
}
