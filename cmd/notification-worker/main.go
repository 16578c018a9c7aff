// cmd/notification-worker/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"flashmart/internal/pkg/bootstrap"
	"flashmart/internal/pkg/httpclient"
	"flashmart/internal/pkg/logger"
	"flashmart/internal/pkg/mq"
	"flashmart/internal/pkg/redis"
	"flashmart/internal/pkg/tracing"
	"flashmart/internal/service/flashpromo/application"
	"flashmart/internal/service/flashpromo/domain/port"
	"flashmart/internal/service/flashpromo/infrastructure"
	"flashmart/internal/service/flashpromo/infrastructure/adapter"
)

const (
	serviceName     = "notification-worker"
	consumerGroupID = "notification-worker-group"
)

// 批量通知任务的消费端。没有 HTTP 面，只有 kafka 消费循环。
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

	httpClient := httpclient.NewClient(tracer)
	channels := []port.NotificationChannel{
		adapter.NewEmailChannel(),
		adapter.NewPushHTTPAdapter(httpClient, cfg.PushGateway.Endpoint),
		adapter.NewSMSChannel(),
	}
	ledger := adapter.NewRedisNotificationLedger(redisClient)

	// worker 自己不再投递任务，taskQueue 传 nil
	notificationSvc := application.NewNotificationService(userRepo, channels, ledger, nil, tracer)

	reader := mq.NewReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.NotificationTopic, consumerGroupID)
	consumer := infrastructure.NewNotificationConsumerAdapter(reader, notificationSvc, promoRepo)

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger().Printf("shutting down %s...", serviceName)
	cancel()
	consumer.Stop()
}
