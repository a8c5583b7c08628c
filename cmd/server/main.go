package main

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

	"github.com/iliyamo/cinema-showtime-reservation/internal/config"
	"github.com/iliyamo/cinema-showtime-reservation/internal/database"
	"github.com/iliyamo/cinema-showtime-reservation/internal/handler"
	"github.com/iliyamo/cinema-showtime-reservation/internal/logger"
	"github.com/iliyamo/cinema-showtime-reservation/internal/middleware"
	"github.com/iliyamo/cinema-showtime-reservation/internal/queue"
	"github.com/iliyamo/cinema-showtime-reservation/internal/repository"
	"github.com/iliyamo/cinema-showtime-reservation/internal/router"
	"github.com/iliyamo/cinema-showtime-reservation/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		if err := log.WithFile(cfg.LogFile); err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		v, err := database.Migrate(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.LogDatabase("migrate", "schema_migrations", fmt.Sprintf("schema at version %d", v))
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	txm := database.NewTxManager(db, cfg.DBTxTimeout)
	showtimes := repository.NewShowtimeRepo(db)
	reservations := repository.NewReservationRepo(db)

	var events service.EventPublisher
	if cfg.RabbitMQURL != "" {
		pub := queue.NewPublisher(cfg.RabbitMQURL, log)
		defer pub.Close()
		events = pub
		go func() {
			if err := queue.StartTicketConsumer(ctx, cfg.RabbitMQURL, cfg.TicketAuditLog, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("QUEUE", "ticket consumer stopped: "+err.Error())
			}
		}()
	} else {
		log.Warn("QUEUE", "RABBITMQ_URL not set; ticket events disabled")
	}

	showtimeSvc := service.NewShowtimeService(showtimes, reservations, txm, log, service.WithMinLead(cfg.ShowtimeMinLead))
	reservationSvc := service.NewReservationService(reservations, txm, events, log)

	deps := router.Deps{
		Showtimes:    handler.NewShowtimeHandler(showtimeSvc),
		Reservations: handler.NewReservationHandler(reservationSvc),
		JWTSecret:    cfg.JWTSecret,
		Log:          log,
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("REDIS", "redis unavailable; using in-process rate limiting, response cache off")
	} else {
		defer rdb.Close()
	}
	if rl := config.LoadRateLimitConfig(); rl.Enabled {
		deps.RateLimit = middleware.RateLimit(rl, rdb, log)
	}
	if cc := config.LoadCacheConfig(); cc.Enabled && rdb != nil {
		deps.Cache = middleware.ResponseCache(cc, rdb)
	}

	e := router.New(deps)
	return serve(ctx, e, ":"+cfg.Port, cfg.Env, log)
}

func serve(ctx context.Context, e *echo.Echo, addr, env string, log *logger.Logger) error {
	errc := make(chan error, 1)
	go func() {
		log.Info("HTTP", fmt.Sprintf("listening on %s (env=%s)", addr, env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("HTTP", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
