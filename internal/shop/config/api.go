package config

import (
	"time"
)

// APIConfig представляет конфигурацию удаленного API магазина.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url" env:"SHOP_API_BASE_URL" env-default:"http://localhost:8080"`
	RefreshPath string        `yaml:"refresh_path" env:"SHOP_API_REFRESH_PATH" env-default:"/api/auth/refresh"`
	Timeout     time.Duration `yaml:"timeout" env:"SHOP_API_TIMEOUT" env-default:"30s"`
}

// RefreshURL возвращает полный адрес endpoint обновления токенов.
func (c *APIConfig) RefreshURL() string {
	return c.BaseURL + c.RefreshPath
}
