// Package session содержит Session Guard - транспорт, делающий истечение
// и обновление токенов невидимыми для вызывающего кода. Каждый запрос
// либо получает успешный ответ, либо терминальную ошибку аутентификации.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"gemshop/internal/shop/app/dto"
	"gemshop/internal/shop/ports/tokens"
	"gemshop/pkg/logger"
)

// Константы для логирования.
const (
	LogRefreshStarted   = "token refresh started"
	LogRefreshSucceeded = "token refresh succeeded"
	LogRefreshFailed    = "token refresh failed, session ended"
	LogRequestDeferred  = "request deferred until refresh settles"
	LogRequestReplayed  = "request replayed with refreshed token"
	LogStartupExpired   = "access token stale at startup, refreshing"

	ErrorRefreshCall     = "refresh endpoint call failed"
	ErrorRefreshRejected = "refresh endpoint rejected the token"
	ErrorClearTokens     = "failed to clear token pair"
)

// Ошибки Session Guard.
var (
	// ErrSessionEnded возвращается, когда цикл обновления завершился
	// отказом и сессия была принудительно закрыта.
	ErrSessionEnded = errors.New("session ended")
	// ErrNoSession возвращается при попытке обновления без refresh токена.
	ErrNoSession = errors.New("no active session")
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "

	defaultTimeout = 30 * time.Second
	// startupLeeway - запас, в пределах которого токен на старте
	// считается уже истекшим.
	startupLeeway = 30 * time.Second
)

// Config содержит настройки Session Guard.
type Config struct {
	// RefreshURL - полный адрес endpoint обновления токенов.
	RefreshURL string
	// Timeout - таймаут HTTP запросов, включая запрос обновления.
	Timeout time.Duration
	// OnSessionEnded вызывается один раз на каждый неудачный цикл
	// обновления, после очистки пары токенов.
	OnSessionEnded func()
}

// Guard перехватывает каждый исходящий запрос и каждый входящий ответ:
// прикрепляет bearer токен, распознает отказ по истекшему токену,
// выполняет единственное обновление на все конкурентные запросы и
// повторяет отложенные запросы с новым токеном.
type Guard struct {
	store          tokens.Store
	refreshURL     string
	client         *http.Client
	refreshClient  *http.Client
	onSessionEnded func()
	now            func() time.Time

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshOutcome
}

// New создает новый Session Guard поверх хранилища токенов.
// refreshClient - отдельный транспорт без перехвата, чтобы запрос
// обновления не мог рекурсивно запустить еще одно обновление.
func New(store tokens.Store, cfg Config) *Guard {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Guard{
		store:          store,
		refreshURL:     cfg.RefreshURL,
		client:         &http.Client{Timeout: timeout},
		refreshClient:  &http.Client{Timeout: timeout},
		onSessionEnded: cfg.OnSessionEnded,
		now:            time.Now,
	}
}

// Do выполняет запрос с прозрачным обновлением токена.
// Первый отказ 401 приводит к обновлению и ровно одному повтору запроса;
// повторный 401 терминален и отдается вызывающему без новых попыток.
func (g *Guard) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	pair, err := g.store.Pair(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading token pair: %w", err)
	}
	if pair.AccessToken != "" {
		req.Header.Set(headerAuthorization, bearerPrefix+pair.AccessToken)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusUnauthorized || pair.RefreshToken == "" {
		return resp, nil
	}

	// Токен отклонен - запрос становится участником цикла обновления.
	closeBody(resp)

	token, err := g.refreshAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	retry, err := cloneRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	retry.Header.Set(headerAuthorization, bearerPrefix+token)

	logger.Log(ctx).Debug(ctx, LogRequestReplayed, zap.String("url", req.URL.Path))

	resp, err = g.client.Do(retry)
	if err != nil {
		return nil, fmt.Errorf("request replay failed: %w", err)
	}
	// Повторный 401 после обновления терминален для этого запроса.
	return resp, nil
}

// CheckStartupExpiry выполняет справочную проверку истечения на старте
// приложения и заранее обновляет заведомо устаревший токен. На пути
// запросов эта проверка не используется: авторитет по истечению - сервер.
func (g *Guard) CheckStartupExpiry(ctx context.Context) error {
	pair, err := g.store.Pair(ctx)
	if err != nil {
		return fmt.Errorf("reading token pair: %w", err)
	}
	if !pair.Complete() {
		return nil
	}

	exp, err := Expiry(pair.AccessToken)
	if err != nil {
		// Непрозрачный или нечитаемый токен - решение остается серверу.
		logger.Log(ctx).Debug(ctx, "access token expiry unreadable", zap.Error(err))
		return nil
	}

	if g.now().Add(startupLeeway).Before(exp) {
		return nil
	}

	logger.Log(ctx).Info(ctx, LogStartupExpired, zap.Time("expired_at", exp))

	if _, err := g.refreshAccessToken(ctx); err != nil {
		return err
	}
	return nil
}

// refreshAccessToken выполняет обновление в режиме single-flight.
// Первый вошедший запускает сетевой вызов; остальные встают в очередь
// ожидания и получают тот же исход, когда цикл завершится.
func (g *Guard) refreshAccessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	if g.refreshing {
		waiter := make(chan refreshOutcome, 1)
		g.waiters = append(g.waiters, waiter)
		g.mu.Unlock()

		logger.Log(ctx).Debug(ctx, LogRequestDeferred)

		select {
		case out := <-waiter:
			return out.token, out.err
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for refresh: %w", ctx.Err())
		}
	}
	g.refreshing = true
	g.mu.Unlock()

	token, err := g.executeRefresh(ctx)

	g.mu.Lock()
	g.refreshing = false
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()

	out := refreshOutcome{token: token, err: err}
	for _, waiter := range waiters {
		waiter <- out
	}

	return token, err
}

// executeRefresh выполняет ровно один вызов endpoint обновления.
// Любой отказ - сетевой или явный - терминален для цикла: пара токенов
// очищается целиком и сессия завершается. Повтор самого обновления
// исключен, чтобы не допустить неограниченной рекурсии.
func (g *Guard) executeRefresh(ctx context.Context) (string, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogRefreshStarted)

	pair, err := g.store.Pair(ctx)
	if err != nil {
		return "", fmt.Errorf("reading token pair: %w", err)
	}
	if pair.RefreshToken == "" {
		return "", ErrNoSession
	}

	refreshed, err := g.callRefreshEndpoint(ctx, pair.RefreshToken)
	if err != nil {
		g.endSession(ctx)
		log.Warn(ctx, LogRefreshFailed, zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrSessionEnded, err)
	}

	newPair := pair
	newPair.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		newPair.RefreshToken = refreshed.RefreshToken
	}

	if err := g.store.SavePair(ctx, newPair); err != nil {
		g.endSession(ctx)
		return "", fmt.Errorf("%w: persisting refreshed pair: %w", ErrSessionEnded, err)
	}

	log.Info(ctx, LogRefreshSucceeded)
	return newPair.AccessToken, nil
}

// callRefreshEndpoint выполняет сам HTTP вызов через непрослушиваемый
// транспорт.
func (g *Guard) callRefreshEndpoint(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	body, err := json.Marshal(dto.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("marshaling refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.refreshURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.refreshClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrorRefreshCall, err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", ErrorRefreshRejected, resp.StatusCode)
	}

	var refreshed dto.RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		return nil, fmt.Errorf("decoding refresh response: %w", err)
	}
	if refreshed.AccessToken == "" {
		return nil, fmt.Errorf("%s: empty access token", ErrorRefreshRejected)
	}

	return &refreshed, nil
}

// endSession очищает пару токенов целиком и сигнализирует о завершении
// сессии. Вызывается только исполнителем цикла обновления, поэтому
// сигнал срабатывает не чаще одного раза на цикл.
func (g *Guard) endSession(ctx context.Context) {
	if err := g.store.Clear(ctx); err != nil {
		logger.Log(ctx).Error(ctx, ErrorClearTokens, zap.Error(err))
	}
	if g.onSessionEnded != nil {
		g.onSessionEnded()
	}
}

// cloneRequest готовит копию запроса для повтора, восстанавливая тело
// через GetBody.
func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		retry.Body = body
	}
	return retry, nil
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
