package main

import (
	"context"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/config"
	"github.com/Kostikrut/bubbly-back/internal/consumer"
	"github.com/Kostikrut/bubbly-back/internal/email"
	"github.com/Kostikrut/bubbly-back/internal/export"
	"github.com/Kostikrut/bubbly-back/internal/handlers"
	"github.com/Kostikrut/bubbly-back/internal/media"
	"github.com/Kostikrut/bubbly-back/internal/repositories"
	"github.com/Kostikrut/bubbly-back/internal/routers"
	"github.com/Kostikrut/bubbly-back/internal/services"
	"github.com/Kostikrut/bubbly-back/internal/storage"
	"github.com/Kostikrut/bubbly-back/internal/utils"
	"github.com/Kostikrut/bubbly-back/internal/ws"
	"github.com/Kostikrut/bubbly-back/middleware/jwt"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
	"github.com/Kostikrut/bubbly-back/pkg/mq"
	"github.com/Kostikrut/bubbly-back/pkg/ratelimit"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("配置初始化失败: %v", err)
	}

	// 初始化日志
	appLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer appLogger.Close()

	// 初始化全局 Worker Pool (协程池)
	// 用于异步处理请求，防止高并发下 Goroutine 暴涨
	utils.InitGlobalWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)

	// 初始化 PostgreSQL
	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	postgres, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		appLogger.Fatal("postgres 初始化失败", zap.Error(err))
	}

	// 初始化 Redis
	redisClient, err := storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		appLogger.Fatal("redis 初始化失败", zap.Error(err))
	}

	// 初始化仓储层
	userRepo := repositories.NewUserRepository(postgres)
	messageRepo := repositories.NewMessageRepository(postgres)

	// 初始化媒体上传与邮件
	uploader, err := media.NewDiskUploader(&cfg.Media, appLogger)
	if err != nil {
		appLogger.Fatal("媒体上传目录初始化失败", zap.Error(err))
	}
	mailer := email.NewSMTPMailer(&cfg.SMTP, appLogger)

	// 初始化 WebSocket Hub
	hub := ws.NewHub(messageRepo, appLogger)

	// 初始化 JWT
	tokens := jwt.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.RefreshHours)

	// 初始化限流器
	limiter := ratelimit.NewRedisLimiter(redisClient, appLogger.Logger, cfg.RateLimit.Fallback)

	// 初始化 Kafka Producer（失败则降级：仅本节点实时推送）
	var publisher services.MessagePublisher
	kafkaProducer, err := mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.NodeID, appLogger.Logger)
	if err != nil {
		appLogger.Warn("Kafka 生产者初始化失败，系统将以降级模式运行", zap.Error(err))
	} else {
		defer kafkaProducer.Close()
		publisher = kafkaProducer
	}

	// 初始化 Kafka Consumer (如果 Kafka 可用)
	if kafkaProducer != nil {
		relay := consumer.NewRelayConsumer(hub, cfg.Kafka.NodeID, appLogger)
		if err := consumer.Start(context.Background(), cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NodeID, cfg.Kafka.Topic, relay, appLogger); err != nil {
			appLogger.Warn("Kafka 消费者启动失败", zap.Error(err))
		}
	}

	// 初始化服务层
	authService := services.NewAuthService(userRepo, tokens, mailer, cfg.Server.ClientURL, appLogger)
	userService := services.NewUserService(userRepo, uploader, appLogger)
	messageService := services.NewMessageService(messageRepo, userRepo, uploader, hub, publisher, appLogger)
	exporter := export.NewExporter(userRepo, messageRepo, &cfg.Export, cfg.Media.BaseURL, uploader.Dir(), appLogger)

	// 初始化处理器
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	userHandler := handlers.NewUserHandler(userService, appLogger)
	messageHandler := handlers.NewMessageHandler(messageService, appLogger)
	exportHandler := handlers.NewExportHandler(exporter, appLogger)

	// 配置并创建 Gin 引擎
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// 设置路由
	routers.SetupRoutes(r,
		cfg,
		tokens,
		userRepo,
		authHandler,
		userHandler,
		messageHandler,
		exportHandler,
		hub,
		limiter,
		uploader.Dir(),
		appLogger,
	)

	// 启动服务器
	appLogger.Info("正在启动服务器", zap.Int("port", cfg.Server.Port))
	if err := r.Run(":" + strconv.FormatInt(int64(cfg.Server.Port), 10)); err != nil {
		appLogger.Fatal("启动服务器失败", zap.Error(err))
	}
}
