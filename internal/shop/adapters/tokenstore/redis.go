// Package tokenstore содержит реализации персистентного хранилища сессии.
// Каждая поверхность приложения (storefront, admin) получает собственный
// namespace, поэтому параллельные сессии не пересекаются.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gemshop/internal/shop/config"
	"gemshop/internal/shop/domain/entities"
	"gemshop/internal/shop/ports/tokens"
	"gemshop/pkg/logger"
)

// Константы для логирования.
const (
	LogMethodPair        = "pair"
	LogMethodSavePair    = "save_pair"
	LogMethodProfile     = "profile"
	LogMethodSaveProfile = "save_profile"
	LogMethodClear       = "clear"

	ErrorFailedToRead  = "failed to read session from redis"
	ErrorFailedToWrite = "failed to write session to redis"
	ErrorFailedToClear = "failed to clear session in redis"
	ErrorFailedToClose = "failed to close redis connection"
)

// Поля hash сессии.
const (
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
	fieldProfile      = "profile"
)

// RedisStore реализует интерфейс Store поверх Redis.
// Вся сессия namespace хранится в одном hash, поэтому SavePair и Clear
// атомарны: после любого исхода в хранилище либо оба токена, либо ни
// одного.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore создает хранилище сессии в Redis для указанного namespace.
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig, namespace string) (tokens.Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.GetAddressString(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     cfg.ConnectTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdle,
		ConnMaxIdleTime: cfg.IdleTimeout,
		ConnMaxLifetime: cfg.MaxConnLifetime,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		namespace: namespace,
	}, nil
}

// key возвращает ключ hash сессии для namespace хранилища.
func (s *RedisStore) key() string {
	return s.namespace + ":session"
}

// Pair возвращает сохраненную пару токенов.
func (s *RedisStore) Pair(ctx context.Context) (entities.TokenPair, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodPair), zap.String("namespace", s.namespace))

	values, err := s.client.HMGet(ctx, s.key(), fieldAccessToken, fieldRefreshToken).Result()
	if err != nil {
		log.Error(ctx, ErrorFailedToRead, zap.Error(err))
		return entities.TokenPair{}, fmt.Errorf("%s: %w", ErrorFailedToRead, err)
	}

	var pair entities.TokenPair
	if access, ok := values[0].(string); ok {
		pair.AccessToken = access
	}
	if refresh, ok := values[1].(string); ok {
		pair.RefreshToken = refresh
	}
	return pair, nil
}

// SavePair сохраняет оба токена одной командой.
func (s *RedisStore) SavePair(ctx context.Context, pair entities.TokenPair) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodSavePair), zap.String("namespace", s.namespace))

	err := s.client.HSet(ctx, s.key(),
		fieldAccessToken, pair.AccessToken,
		fieldRefreshToken, pair.RefreshToken,
	).Err()
	if err != nil {
		log.Error(ctx, ErrorFailedToWrite, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToWrite, err)
	}
	return nil
}

// Profile возвращает кэшированный профиль или nil.
func (s *RedisStore) Profile(ctx context.Context) (*entities.UserProfile, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodProfile), zap.String("namespace", s.namespace))

	raw, err := s.client.HGet(ctx, s.key(), fieldProfile).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		log.Error(ctx, ErrorFailedToRead, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToRead, err)
	}

	var profile entities.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("decoding cached profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile сохраняет кэшированный профиль.
func (s *RedisStore) SaveProfile(ctx context.Context, profile *entities.UserProfile) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodSaveProfile), zap.String("namespace", s.namespace))

	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	if err := s.client.HSet(ctx, s.key(), fieldProfile, string(raw)).Err(); err != nil {
		log.Error(ctx, ErrorFailedToWrite, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToWrite, err)
	}
	return nil
}

// Clear удаляет всю сессию namespace одной командой.
func (s *RedisStore) Clear(ctx context.Context) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodClear), zap.String("namespace", s.namespace))

	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		log.Error(ctx, ErrorFailedToClear, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToClear, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToClose, err)
	}
	return nil
}
