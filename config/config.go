package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Media     MediaConfig     `mapstructure:"media"`
	Export    ExportConfig    `mapstructure:"export"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`

	WorkerPool WorkerPoolConfig `mapstructure:"worker_pool"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	Mode      string `mapstructure:"mode"`
	ClientURL string `mapstructure:"client_url"`
}

type PostgresConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret       string `mapstructure:"secret"`
	ExpireHours  int    `mapstructure:"expire_hours"`
	RefreshHours int    `mapstructure:"refresh_hours"`
}

type RateLimitConfig struct {
	AuthPerMinute    int  `mapstructure:"auth_per_minute"`
	MessagePerMinute int  `mapstructure:"message_per_minute"`
	Fallback         bool `mapstructure:"fallback"` // fail-open when Redis is unavailable
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"` // json or console
	Output   string `mapstructure:"output"` // stdout or file
	FilePath string `mapstructure:"file_path"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MediaConfig struct {
	UploadDir string `mapstructure:"upload_dir"` // where decoded data-URI payloads land
	BaseURL   string `mapstructure:"base_url"`   // public prefix the stored files are served under
	MaxBytes  int64  `mapstructure:"max_bytes"`  // cap on a single decoded upload
}

type ExportConfig struct {
	TempDir            string `mapstructure:"temp_dir"`             // root for per-export staging directories
	DownloadTimeoutSec int    `mapstructure:"download_timeout_sec"` // bound on a single media download
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
	NodeID  string   `mapstructure:"node_id"`
}

type WorkerPoolConfig struct {
	Size      int `mapstructure:"size"`
	QueueSize int `mapstructure:"queue_size"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	v.SetDefault("server.mode", "debug")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("jwt.refresh_hours", 168)
	v.SetDefault("ratelimit.fallback", true)
	v.SetDefault("media.upload_dir", "uploads")
	v.SetDefault("media.base_url", "/media")
	v.SetDefault("media.max_bytes", 5<<20)
	v.SetDefault("export.temp_dir", "temp")
	v.SetDefault("export.download_timeout_sec", 30)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}
