package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Recovery RecoveryConfig `mapstructure:"recovery"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogSQL       bool   `mapstructure:"log_sql"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topics        Topics   `mapstructure:"topics"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
}

type Topics struct {
	UserEvents string `mapstructure:"user_events"`
	FeedEvents string `mapstructure:"feed_events"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_time"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type FeedConfig struct {
	DefaultLimit   int           `mapstructure:"default_limit"`
	MaxFeedSize    int           `mapstructure:"max_feed_size"`   // 单次请求feed最大条数
	TrendingWindow time.Duration `mapstructure:"trending_window"` // 非关注内容的注入时间窗口
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`

	AssemblyTimeout   time.Duration `mapstructure:"assembly_timeout"`   // 合并后的组装查询超时
	EngagementPreview int           `mapstructure:"engagement_preview"` // 每条帖子随feed返回的点赞和评论上限
}

type AdminConfig struct {
	UserIDs []string `mapstructure:"user_ids"`
}

type GraphConfig struct {
	PrivateRequiresApproval bool `mapstructure:"private_requires_approval"` // 私密账号需要审批关注请求
}

type RecoveryConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Insecure    bool    `mapstructure:"insecure"`
}

type MetricsConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_idle_conns", 10)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 100)
	v.SetDefault("redis.min_idle_conns", 10)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topics.user_events", "user-events")
	v.SetDefault("kafka.topics.feed_events", "feed-events")
	v.SetDefault("kafka.consumer_group", "feed-worker-group")

	v.SetDefault("jwt.expire_time", 24*time.Hour)
	v.SetDefault("log.level", "info")

	v.SetDefault("feed.default_limit", 50)
	v.SetDefault("feed.max_feed_size", 200)
	v.SetDefault("feed.trending_window", 7*24*time.Hour)
	v.SetDefault("feed.cache_ttl", 5*time.Minute)
	v.SetDefault("feed.assembly_timeout", 5*time.Second)
	v.SetDefault("feed.engagement_preview", 20)

	v.SetDefault("graph.private_requires_approval", true)

	v.SetDefault("recovery.interval", 10*time.Minute)
	v.SetDefault("recovery.batch_size", 500)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.service_name", "social-graph")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("admin.user_ids", []string{})
}

// LoadConfig 读取CONFIG_PATH指定的YAML，环境变量SOCIAL_*可覆盖任意配置项
func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SOCIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate 检查启动必需的配置
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Feed.DefaultLimit <= 0 || c.Feed.MaxFeedSize <= 0 {
		return fmt.Errorf("feed.default_limit and feed.max_feed_size must be positive")
	}
	if c.Feed.DefaultLimit > c.Feed.MaxFeedSize {
		return fmt.Errorf("feed.default_limit (%d) exceeds feed.max_feed_size (%d)", c.Feed.DefaultLimit, c.Feed.MaxFeedSize)
	}
	if c.Feed.TrendingWindow <= 0 {
		return fmt.Errorf("feed.trending_window must be positive")
	}
	if c.Feed.EngagementPreview < 0 {
		return fmt.Errorf("feed.engagement_preview must not be negative")
	}
	for _, id := range c.Admin.UserIDs {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("admin.user_ids contains invalid id %q", id)
		}
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
