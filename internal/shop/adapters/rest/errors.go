package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Ошибки удаленного API, различимые вызывающим кодом.
var (
	// ErrUnauthorized возвращается при терминальном отказе аутентификации.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound возвращается для несуществующего ресурса.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicateItem возвращается при добавлении уже имеющегося изделия.
	ErrDuplicateItem = errors.New("item already in cart")
	// ErrValidation возвращается при отклонении запроса до его выполнения.
	ErrValidation = errors.New("request validation failed")
	// ErrServer возвращается для прочих ошибок сервера.
	ErrServer = errors.New("server error")
)

// errorPayload описывает тело ошибки удаленного API.
type errorPayload struct {
	Error string `json:"error"`
}

// mapError переводит статус и тело ответа в доменную ошибку.
func mapError(statusCode int, body []byte) error {
	message := ""
	var payload errorPayload
	if json.Unmarshal(body, &payload) == nil {
		message = payload.Error
	}

	var base error
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		base = ErrUnauthorized
	case http.StatusNotFound:
		base = ErrNotFound
	case http.StatusConflict:
		base = ErrDuplicateItem
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		base = ErrValidation
	default:
		base = ErrServer
	}

	if message == "" {
		return fmt.Errorf("%w: status %d", base, statusCode)
	}
	return fmt.Errorf("%w: %s", base, message)
}
