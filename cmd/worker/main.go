package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/social-graph/social-graph/internal/config"
	"github.com/social-graph/social-graph/internal/repository"
	"github.com/social-graph/social-graph/internal/services"
	"github.com/social-graph/social-graph/internal/workers"
	"github.com/social-graph/social-graph/pkg/cache"
	"github.com/social-graph/social-graph/pkg/logger"
	"github.com/social-graph/social-graph/pkg/queue"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting Social Graph Worker...")

	// 初始化数据库
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// 初始化Redis缓存
	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 检查Redis连接
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	// 初始化Kafka消费者
	feedEventsConsumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.FeedEvents, cfg.Kafka.ConsumerGroup)
	defer feedEventsConsumer.Close()

	// 初始化仓库与服务
	userRepo := repository.NewUserRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)

	feedCache := services.NewRedisFeedCache(redisClient, cfg.Feed.CacheTTL, logger)
	recoveryService := services.NewCounterRecoveryService(postRepo, userRepo, feedCache, cfg.Recovery.BatchSize, logger)

	feedWorker := workers.NewFeedWorker(feedCache, postRepo, recoveryService, feedEventsConsumer, cfg.Recovery.Interval, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := feedWorker.Start(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Feed worker stopped with error")
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-done:
	}

	logger.Info("Shutting down worker...")
	cancel()
	<-done

	logger.Info("Worker exited")
}
