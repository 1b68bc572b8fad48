package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/social-graph/social-graph/internal/config"
	"github.com/social-graph/social-graph/internal/handlers"
	"github.com/social-graph/social-graph/internal/middleware"
	"github.com/social-graph/social-graph/internal/repository"
	"github.com/social-graph/social-graph/internal/services"
	"github.com/social-graph/social-graph/pkg/cache"
	"github.com/social-graph/social-graph/pkg/logger"
	"github.com/social-graph/social-graph/pkg/queue"
	"github.com/social-graph/social-graph/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting Social Graph API server...")

	ctx := context.Background()

	// 链路追踪
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, tracing.Options{
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			SampleRatio: cfg.Tracing.SampleRatio,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize tracing")
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.WithError(err).Error("Failed to flush traces")
			}
		}()
	}

	// 初始化数据库
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// 自动迁移数据库表
	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	// 初始化Redis缓存
	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	// Redis不可用时feed直接读库，不阻止启动
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Redis unavailable, feeds will be served without cache")
	}

	// 初始化Kafka生产者
	feedEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.FeedEvents)
	defer feedEventsProducer.Close()

	userEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.UserEvents)
	defer userEventsProducer.Close()

	// 初始化仓库
	userRepo := repository.NewUserRepository(db.DB)
	relationshipRepo := repository.NewRelationshipRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)
	likeRepo := repository.NewLikeRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	bookmarkRepo := repository.NewBookmarkRepository(db.DB)
	conversationRepo := repository.NewConversationRepository(db.DB)

	// 初始化服务
	feedCache := services.NewRedisFeedCache(redisClient, cfg.Feed.CacheTTL, logger)
	userService := services.NewUserService(userRepo, userEventsProducer, logger)
	graphService := services.NewSocialGraphService(userRepo, relationshipRepo, feedCache, feedEventsProducer, &cfg.Graph, logger)
	postService := services.NewPostService(userRepo, postRepo, feedCache, feedEventsProducer, logger)
	engagementService := services.NewEngagementService(userRepo, postRepo, likeRepo, commentRepo, feedCache, feedEventsProducer, logger)
	feedService := services.NewFeedService(relationshipRepo, postRepo, feedCache, &cfg.Feed, logger)
	recoveryService := services.NewCounterRecoveryService(postRepo, userRepo, feedCache, cfg.Recovery.BatchSize, logger)
	bookmarkService := services.NewBookmarkService(userRepo, postRepo, bookmarkRepo, userEventsProducer, logger)
	messagingService := services.NewMessagingService(userRepo, conversationRepo, userEventsProducer, logger)

	// 初始化处理器
	userHandler := handlers.NewUserHandler(userService, graphService, cfg.JWT.Secret, cfg.JWT.ExpireTime, logger)
	feedHandler := handlers.NewFeedHandler(feedService, postService, engagementService, logger)
	adminHandler := handlers.NewAdminHandler(recoveryService, logger)
	bookmarkHandler := handlers.NewBookmarkHandler(bookmarkService, logger)
	messagingHandler := handlers.NewMessagingHandler(messagingService, logger)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}

	// 添加CORS中间件
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))

	if len(cfg.Admin.UserIDs) == 0 {
		logger.Warn("No admin.user_ids configured, admin endpoints will reject every caller")
	}
	handlers.RegisterRoutes(router, handlers.Routes{
		Users:        userHandler,
		Feed:         feedHandler,
		Bookmarks:    bookmarkHandler,
		Messaging:    messagingHandler,
		Admin:        adminHandler,
		JWT:          &middleware.JWTConfig{Secret: cfg.JWT.Secret},
		AdminUserIDs: cfg.Admin.UserIDs,
	})

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func init() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	if err := ensureDefaultConfig(configPath); err != nil {
		log.Printf("Failed to create default config: %v", err)
	}
}

// ensureDefaultConfig 配置文件不存在时在其所在目录写入默认配置
func ensureDefaultConfig(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return createDefaultConfig(path)
}

func createDefaultConfig(path string) error {
	defaultConfig := `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 30s
  write_timeout: 30s

database:
  host: "localhost"
  port: 5432
  user: "social"
  password: "social"
  dbname: "socialgraph"
  sslmode: "disable"
  max_open_conns: 100
  max_idle_conns: 10

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 100
  min_idle_conns: 10

kafka:
  brokers:
    - "localhost:9092"
  topics:
    user_events: "user-events"
    feed_events: "feed-events"
  consumer_group: "feed-worker-group"

jwt:
  secret: "your-secret-key-change-in-production"
  expire_time: 24h

log:
  level: "info"

feed:
  default_limit: 50
  max_feed_size: 200     # 单次请求最大条数
  trending_window: 168h  # 非关注内容注入窗口
  cache_ttl: 5m
  assembly_timeout: 5s
  engagement_preview: 20 # 每条帖子附带的点赞和评论数

graph:
  private_requires_approval: true

recovery:
  interval: 10m
  batch_size: 500

tracing:
  enabled: false
  endpoint: "localhost:4317"
  service_name: "social-graph"
  sample_ratio: 1.0
  insecure: true

metrics:
  path: "/metrics"

admin:
  user_ids: []`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
