package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SchedulerConfig 每日定时生成配置
type SchedulerConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Time          string        `yaml:"time" default:"02:00"` // HH:MM，本地时间
	Retries       int           `yaml:"retries" default:"3" validate:"min=0"`
	RetryInterval time.Duration `yaml:"retry_interval" default:"1m"`
}

// Clock 解析HH:MM
func (s SchedulerConfig) Clock() (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s.Time), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid scheduler time %q, want HH:MM", s.Time)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid scheduler hour in %q", s.Time)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid scheduler minute in %q", s.Time)
	}
	return hour, minute, nil
}

// 辅助函数
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
