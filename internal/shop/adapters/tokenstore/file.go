package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gemshop/internal/shop/domain/entities"
	"gemshop/internal/shop/ports/tokens"
)

const (
	sessionFilePerm = 0o600
	sessionDirPerm  = 0o700
)

// sessionFile описывает формат файла сессии на диске.
type sessionFile struct {
	AccessToken  string                `json:"access_token,omitempty"`
	RefreshToken string                `json:"refresh_token,omitempty"`
	Profile      *entities.UserProfile `json:"profile,omitempty"`
}

// FileStore реализует интерфейс Store поверх локального JSON файла.
// Файл именуется по namespace, запись выполняется во временный файл
// с последующим переименованием, поэтому оба токена появляются и
// исчезают только вместе.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore создает файловое хранилище сессии для указанного namespace.
func NewFileStore(dir, namespace string) (tokens.Store, error) {
	if err := os.MkdirAll(dir, sessionDirPerm); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	return &FileStore{
		path: filepath.Join(dir, namespace+".json"),
	}, nil
}

// Pair возвращает сохраненную пару токенов.
func (s *FileStore) Pair(_ context.Context) (entities.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		return entities.TokenPair{}, err
	}
	return entities.TokenPair{
		AccessToken:  state.AccessToken,
		RefreshToken: state.RefreshToken,
	}, nil
}

// SavePair сохраняет оба токена атомарной заменой файла.
func (s *FileStore) SavePair(_ context.Context, pair entities.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		return err
	}
	state.AccessToken = pair.AccessToken
	state.RefreshToken = pair.RefreshToken
	return s.write(state)
}

// Profile возвращает кэшированный профиль или nil.
func (s *FileStore) Profile(_ context.Context) (*entities.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		return nil, err
	}
	return state.Profile, nil
}

// SaveProfile сохраняет кэшированный профиль.
func (s *FileStore) SaveProfile(_ context.Context, profile *entities.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		return err
	}
	state.Profile = profile
	return s.write(state)
}

// Clear удаляет файл сессии целиком.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// Close освобождает ресурсы хранилища. Для файла делать нечего.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (sessionFile, error) {
	var state sessionFile

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return state, fmt.Errorf("reading session file: %w", err)
	}

	if err := json.Unmarshal(raw, &state); err != nil {
		return sessionFile{}, fmt.Errorf("decoding session file: %w", err)
	}
	return state, nil
}

func (s *FileStore) write(state sessionFile) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, sessionFilePerm); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}
