package config

// Бэкенды хранилища сессии.
const (
	StoreBackendFile  = "file"
	StoreBackendRedis = "redis"
)

// StoreConfig представляет конфигурацию хранилища сессии.
// Namespace разделяет поверхности приложения: storefront и admin
// держат сессии в непересекающихся пространствах ключей.
type StoreConfig struct {
	Backend   string `yaml:"backend" env:"SHOP_STORE_BACKEND" env-default:"file"`
	Namespace string `yaml:"namespace" env:"SHOP_STORE_NAMESPACE" env-default:"storefront"`
	Dir       string `yaml:"dir" env:"SHOP_STORE_DIR" env-default:".gemshop"`
}
