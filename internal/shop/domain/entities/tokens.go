// Package entities содержит доменные сущности клиента магазина.
package entities

// TokenPair представляет пару токенов сессии: access и refresh.
// Пара считается валидной только целиком - оба токена либо присутствуют,
// либо отсутствуют.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Complete сообщает, установлены ли оба токена пары.
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Empty сообщает, что ни один токен пары не установлен.
func (p TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}
