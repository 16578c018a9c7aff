// cmd/reservation-sweeper/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"flashmart/internal/pkg/bootstrap"
	"flashmart/internal/pkg/httpclient"
	"flashmart/internal/pkg/logger"
	"flashmart/internal/pkg/redis"
	"flashmart/internal/pkg/tracing"
	"flashmart/internal/service/flashpromo/application"
	"flashmart/internal/service/flashpromo/domain/port"
	"flashmart/internal/service/flashpromo/infrastructure"
	"flashmart/internal/service/flashpromo/infrastructure/adapter"
)

const serviceName = "reservation-sweeper"

// 定时器二进制：周期性清扫过期预留，并对窗口内的激活促销做通知扇出。
// 把调度放在独立进程里，API 实例可以无状态水平扩容。
func main() {
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}
	defer tp.Shutdown(context.Background())

	tracer := otel.Tracer(serviceName)

	db, err := infrastructure.NewDB(cfg.Infra.MySQL.DSN)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize mysql")
	}

	redisClient := redis.NewClient(cfg.Infra.Redis.Addr)
	defer redisClient.Close()

	promoRepo := infrastructure.NewGormPromoRepository(db)
	userRepo := infrastructure.NewGormUserRepository(db)
	reservationRepo := infrastructure.NewGormReservationRepository(db)

	// 激活 tick 要做真实的通知扇出，渠道配置与 API 实例一致
	httpClient := httpclient.NewClient(tracer)
	channels := []port.NotificationChannel{
		adapter.NewEmailChannel(),
		adapter.NewPushHTTPAdapter(httpClient, cfg.PushGateway.Endpoint),
		adapter.NewSMSChannel(),
	}
	ledger := adapter.NewRedisNotificationLedger(redisClient)

	locker, err := adapter.NewRedisProductLocker(redisClient)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize product locker")
	}

	reservationSvc := application.NewReservationService(
		reservationRepo, promoRepo, userRepo, locker, 0, tracer)
	notificationSvc := application.NewNotificationService(userRepo, channels, ledger, nil, tracer)
	promoSvc := application.NewPromoService(promoRepo, userRepo, notificationSvc, tracer)

	interval := sweepInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Logger().Printf("%s started, interval %s", serviceName, interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if _, err := reservationSvc.SweepExpiredReservations(ctx); err != nil {
				logger.Logger().Printf("sweep failed: %v", err)
			}
			if _, err := promoSvc.ActivatePromosForTime(ctx, time.Now()); err != nil {
				logger.Logger().Printf("promo activation tick failed: %v", err)
			}
			cancel()
		case <-quit:
			logger.Logger().Printf("shutting down %s...", serviceName)
			return
		}
	}
}

func sweepInterval() time.Duration {
	if raw := os.Getenv("SWEEP_INTERVAL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Minute
}
