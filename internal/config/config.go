// Package config loads service and generator settings.
//
// Order of precedence: built-in defaults, YAML file, .env file, process env.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"agri-price-backend/internal/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development" validate:"oneof=development production test"`
	Server      ServerConfig    `yaml:"server"`
	Log         logger.Config   `yaml:"log"`
	Data        DataConfig      `yaml:"data"`
	Generator   GeneratorConfig `yaml:"generator"`
	Scheduler   SchedulerConfig `yaml:"scheduler"`
	Cache       CacheConfig     `yaml:"cache"`
	Auth        AuthConfig      `yaml:"auth"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"3001" validate:"min=1,max=65535"`
	Mode            string        `yaml:"mode" default:"release" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	AllowOrigins    []string      `yaml:"allow_origins" default:"[\"http://localhost:5173\",\"http://localhost:3000\"]"`
}

// DataConfig 数据文件位置
type DataConfig struct {
	JSONPath   string `yaml:"json_path" default:"data/agri_price_mock_data.json" validate:"required"`
	SQLitePath string `yaml:"sqlite_path"`
	XLSXPath   string `yaml:"xlsx_path"`
	// Source 启动时的数据来源：json、sqlite，或generate直接生成
	Source string `yaml:"source" default:"json" validate:"oneof=json sqlite generate"`
}

// GeneratorConfig 模拟数据生成参数
type GeneratorConfig struct {
	EndDate          string  `yaml:"end_date" default:"2024-10-24" validate:"omitempty,datetime=2006-01-02"`
	Days             int     `yaml:"days" default:"365" validate:"min=1,ltefield=MaxDays"`
	BaseIndex        float64 `yaml:"base_index" default:"120" validate:"gt=0"`
	Seed             uint64  `yaml:"seed"` // 0表示按时间取种子
	EventProbability float64 `yaml:"event_probability" default:"0.05" validate:"min=0,max=1"`
	MaxDays          int     `yaml:"max_days" default:"3660" validate:"min=1"`
}

type CacheConfig struct {
	Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis none"`
	TTL     time.Duration `yaml:"ttl" default:"10m"`
	Redis   RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`
	Prefix   string `yaml:"prefix" default:"agri:"`
}

// AuthConfig 管理员验证
type AuthConfig struct {
	AdminCode   string        `yaml:"admin_code"`
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl" default:"24h"`
}

type RateLimitConfig struct {
	// GeneratePerMinute 生成接口每分钟允许的请求数
	GeneratePerMinute float64 `yaml:"generate_per_minute" default:"2" validate:"gt=0"`
	GenerateBurst     int     `yaml:"generate_burst" default:"1" validate:"min=1"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

var validate = validator.New()

// Default 仅含默认值的配置
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load 读取配置：默认值、YAML文件（可选）、.env、环境变量，最后校验
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := LoadEnvFiles(".env"); err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Scheduler.Enabled {
		if _, _, err := c.Scheduler.Clock(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnvString("APP_ENV", c.Environment)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.Mode = getEnvString("GIN_MODE", c.Server.Mode)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.AllowOrigins = splitList(v)
	}

	c.Log.Level = getEnvString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvString("LOG_FORMAT", c.Log.Format)

	c.Data.JSONPath = getEnvString("DATA_JSON_PATH", c.Data.JSONPath)
	c.Data.SQLitePath = getEnvString("DATA_SQLITE_PATH", c.Data.SQLitePath)
	c.Data.Source = getEnvString("DATA_SOURCE", c.Data.Source)

	c.Generator.EndDate = getEnvString("GEN_END_DATE", c.Generator.EndDate)
	c.Generator.Days = getEnvInt("GEN_DAYS", c.Generator.Days)
	c.Generator.BaseIndex = getEnvFloat("GEN_BASE_INDEX", c.Generator.BaseIndex)
	c.Generator.Seed = getEnvUint("GEN_SEED", c.Generator.Seed)

	c.Scheduler.Enabled = getEnvBool("DAILY_GENERATE_ENABLED", c.Scheduler.Enabled)
	c.Scheduler.Time = getEnvString("DAILY_GENERATE_TIME", c.Scheduler.Time)
	c.Scheduler.Retries = getEnvInt("DAILY_GENERATE_RETRIES", c.Scheduler.Retries)
	c.Scheduler.RetryInterval = getEnvDuration("DAILY_GENERATE_RETRY_INTERVAL", c.Scheduler.RetryInterval)

	c.Cache.Backend = getEnvString("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.Redis.Addr = getEnvString("REDIS_ADDR", c.Cache.Redis.Addr)
	c.Cache.Redis.Password = getEnvString("REDIS_PASSWORD", c.Cache.Redis.Password)

	c.Auth.AdminCode = getEnvString("ADMIN_CODE", c.Auth.AdminCode)
	c.Auth.TokenSecret = getEnvString("TOKEN_SECRET", c.Auth.TokenSecret)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// LoadEnvFiles 依次加载env文件，不存在的文件跳过，已有环境变量不覆盖
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
