package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN            string `env:"DATABASE_DSN,required=true"`
	RedisURL               string `env:"REDIS_URL,required=true"`
	RabbitMQURL            string `env:"RABBITMQ_URL,required=true"`
	UidaiBaseURL           string `env:"UIDAI_BASE_URL,required=true"`
	MaxOtpAttempts         int    `env:"MAX_OTP_ATTEMPTS,default=3"`
	OtpTTLMinutes          int    `env:"OTP_TTL_MINUTES,default=10"`
	ProviderTimeoutSeconds int    `env:"PROVIDER_TIMEOUT_SECONDS,default=30"`
	RetentionDays          int    `env:"RETENTION_DAYS,default=30"`
	ResendLimitPerMin      int    `env:"RESEND_LIMIT_PER_MIN,default=3"`
	APIPort                int    `env:"API_PORT,default=8080"`
	LogLevel               string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) OtpTTL() time.Duration {
	return time.Duration(c.OtpTTLMinutes) * time.Minute
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
