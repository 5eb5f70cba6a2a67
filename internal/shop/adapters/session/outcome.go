package session

// refreshOutcome - результат завершения одного цикла обновления токена.
// Ровно одно из полей значимо: token при успехе, err при отказе.
// Все ожидающие запросы цикла получают один и тот же исход.
type refreshOutcome struct {
	token string
	err   error
}
