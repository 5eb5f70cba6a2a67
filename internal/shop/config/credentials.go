package config

// CredentialsConfig содержит необязательные учетные данные для входа
// при запуске. Пустые значения означают работу с сохраненной сессией.
type CredentialsConfig struct {
	Email    string `yaml:"email" env:"SHOP_LOGIN_EMAIL" env-default:""`
	Password string `yaml:"password" env:"SHOP_LOGIN_PASSWORD" env-default:""`
}

// Provided сообщает, заданы ли учетные данные.
func (c *CredentialsConfig) Provided() bool {
	return c.Email != "" && c.Password != ""
}
