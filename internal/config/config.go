package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig HTTP / WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置，未启用时房间只保存在内存中
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig 回合归档，DSN 为空时不归档
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// GameConfig 游戏配置
type GameConfig struct {
	TickInterval    int     `yaml:"tick_interval"`    // 倒计时步长（毫秒）
	ShutdownTimeout int     `yaml:"shutdown_timeout"` // 优雅关闭等待时间（秒）
	WorldWidth      float64 `yaml:"world_width"`      // 角色可移动区域，0 表示不限制
	WorldHeight     float64 `yaml:"world_height"`
}

// TickIntervalDuration 返回倒计时步长
func (c *GameConfig) TickIntervalDuration() time.Duration {
	return time.Duration(c.TickInterval) * time.Millisecond
}

// ShutdownTimeoutDuration 返回优雅关闭等待时间
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	ConnLimit      ConnLimitConfig    `yaml:"conn_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// ConnLimitConfig 单 IP 建连速率限制
type ConnLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	Burst        int `yaml:"burst"`
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	Burst        int `yaml:"burst"`
	MaxWarnings  int `yaml:"max_warnings"` // 超过后断开连接
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3001
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = 1000
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Game.TickInterval == 0 {
		c.Game.TickInterval = 1000
	}
	if c.Game.ShutdownTimeout == 0 {
		c.Game.ShutdownTimeout = 10
	}
	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if c.Security.ConnLimit.MaxPerSecond == 0 {
		c.Security.ConnLimit.MaxPerSecond = 5
	}
	if c.Security.ConnLimit.Burst == 0 {
		c.Security.ConnLimit.Burst = 10
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = 30
	}
	if c.Security.MessageLimit.Burst == 0 {
		c.Security.MessageLimit.Burst = 60
	}
	if c.Security.MessageLimit.MaxWarnings == 0 {
		c.Security.MessageLimit.MaxWarnings = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// LoadDotEnv 加载 .env 文件，文件不存在时忽略
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv 用环境变量覆盖配置
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		c.Security.AllowedOrigins = strings.Split(v, ",")
		for i, o := range c.Security.AllowedOrigins {
			c.Security.AllowedOrigins[i] = strings.TrimSpace(o)
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}
