// Package config содержит конфигурацию сервера-заглушки API магазина.
package config

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"gemshop/pkg/logger"
)

// Константы ошибок и сообщений для конфигурации.
const (
	LogLoadingConfig    = "Loading stub API configuration"
	LogConfigLoaded     = "Configuration loaded successfully"
	ErrFailedLoadConfig = "Failed to load configuration"
)

// Config представляет конфигурацию сервера-заглушки.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	JWT     JWTConfig     `yaml:"jwt"`
	Seed    SeedConfig    `yaml:"seed"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig представляет настройки HTTP сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"STUB_HTTP_HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"STUB_HTTP_PORT" env-default:"8080"`
}

// Address возвращает адрес для прослушивания.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// JWTConfig представляет настройки выпуска токенов.
type JWTConfig struct {
	Secret          string `yaml:"secret" env:"STUB_JWT_SECRET" env-default:"stub-secret-key"`
	AccessTTLMin    int    `yaml:"access_ttl_minutes" env:"STUB_JWT_ACCESS_TTL_MINUTES" env-default:"15"`
	RefreshTTLHours int    `yaml:"refresh_ttl_hours" env:"STUB_JWT_REFRESH_TTL_HOURS" env-default:"720"`
}

// AccessTTL возвращает срок жизни access токена.
func (c *JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}

// RefreshTTL возвращает срок жизни refresh токена.
func (c *JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLHours) * time.Hour
}

// SeedConfig представляет учетные данные предзаполненных пользователей.
type SeedConfig struct {
	AdminEmail       string `yaml:"admin_email" env:"STUB_SEED_ADMIN_EMAIL" env-default:"admin@gemshop.dev"`
	AdminPassword    string `yaml:"admin_password" env:"STUB_SEED_ADMIN_PASSWORD" env-default:"admin-password"`
	CustomerEmail    string `yaml:"customer_email" env:"STUB_SEED_CUSTOMER_EMAIL" env-default:"customer@gemshop.dev"`
	CustomerPassword string `yaml:"customer_password" env:"STUB_SEED_CUSTOMER_PASSWORD" env-default:"customer-password"`
}

// LoggingConfig представляет настройки логирования.
type LoggingConfig struct {
	Level string `yaml:"level" env:"STUB_LOG_LEVEL" env-default:"info"`
	Mode  string `yaml:"mode" env:"STUB_LOG_MODE" env-default:"development"`
}

// GetEnvironment возвращает режим работы логгера.
func (c *LoggingConfig) GetEnvironment() logger.Environment {
	if c.Mode == "production" {
		return logger.Production
	}
	return logger.Development
}

// Load загружает конфигурацию из переменных окружения.
func Load(ctx context.Context) (*Config, error) {
	log := logger.Log(ctx)

	log.Info(ctx, LogLoadingConfig)

	var cfg Config
	err := cleanenv.ReadEnv(&cfg)
	if err != nil {
		log.Error(ctx, ErrFailedLoadConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	log.Info(ctx, LogConfigLoaded,
		zap.String("address", cfg.HTTP.Address()),
		zap.String("log_level", cfg.Logging.Level))

	return &cfg, nil
}
