// cmd/flashpromo-service/main.go
package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"

	"flashmart/internal/pkg/bootstrap"
	"flashmart/internal/pkg/httpclient"
	"flashmart/internal/pkg/logger"
	"flashmart/internal/pkg/mq"
	"flashmart/internal/pkg/redis"
	"flashmart/internal/service/flashpromo/application"
	"flashmart/internal/service/flashpromo/domain/port"
	"flashmart/internal/service/flashpromo/infrastructure"
	"flashmart/internal/service/flashpromo/infrastructure/adapter"
	"flashmart/internal/service/flashpromo/infrastructure/rule"
	"flashmart/internal/service/flashpromo/interfaces"
	"flashmart/internal/zookeeper"
)

const serviceName = "flashpromo-service"

// main 函数是应用的"组装根" (Composition Root)。
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	cfg := bootstrap.GetCurrentConfig()

	db, err := infrastructure.NewDB(cfg.Infra.MySQL.DSN)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize mysql")
	}

	redisClient := redis.NewClient(cfg.Infra.Redis.Addr)

	kafkaWriter := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.NotificationTopic)
	taskQueue := adapter.NewNotificationKafkaAdapter(kafkaWriter)

	tracer := otel.Tracer(serviceName)

	// 仓储：促销仓储外面包一层活动列表的 Redis 读缓存
	promoRepo := adapter.NewCachedPromoRepository(
		infrastructure.NewGormPromoRepository(db), redisClient)
	userRepo := infrastructure.NewGormUserRepository(db)
	reservationRepo := infrastructure.NewGormReservationRepository(db)

	// 商品锁：默认 Redis SET NX，部署了 ZK 的环境可切换
	var locker port.ProductLocker
	var zkConn *zookeeper.Conn
	switch cfg.Reservation.LockBackend {
	case "zookeeper":
		zkConn, err = zookeeper.Connect(cfg.Infra.Zookeeper.Servers, 5*time.Second)
		if err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
		locker = adapter.NewZookeeperProductLocker(zkConn)
	default:
		locker, err = adapter.NewRedisProductLocker(redisClient)
		if err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to initialize redis locker")
		}
	}

	// 通知渠道：邮件优先，App 推送次之，短信兜底
	httpClient := httpclient.NewClient(tracer)
	channels := []port.NotificationChannel{
		adapter.NewEmailChannel(),
		adapter.NewPushHTTPAdapter(httpClient, cfg.PushGateway.Endpoint),
		adapter.NewSMSChannel(),
	}
	ledger := adapter.NewRedisNotificationLedger(redisClient)

	ruleEngine, err := rule.NewCELRuleEngineAdapter()
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize rule engine")
	}

	notificationSvc := application.NewNotificationService(userRepo, channels, ledger, taskQueue, tracer)
	promoSvc := application.NewPromoService(promoRepo, userRepo, notificationSvc, tracer)
	reservationSvc := application.NewReservationService(
		reservationRepo, promoRepo, userRepo, locker,
		time.Duration(cfg.Reservation.DefaultDurationMinutes)*time.Minute, tracer)
	userSvc := application.NewUserService(userRepo, tracer)
	segmentationSvc := application.NewSegmentationService(
		userRepo, application.DefaultThresholds(), ruleEngine, nil, tracer)

	handler := interfaces.NewFlashPromoHandler(promoSvc, reservationSvc, userSvc, segmentationSvc)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8080,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			kafkaWriter.Close()
			redisClient.Close()
			if zkConn != nil {
				zkConn.Close()
			}
		},
	})
}
