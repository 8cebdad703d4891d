package session

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

// ключи локального хранилища
const (
	KeyAuthenticated = "isAuthenticated"
	KeyToken         = "authToken"
	KeyRole          = "userRole"
	KeyEmail         = "email"
)

var AllKeys = []string{KeyAuthenticated, KeyToken, KeyRole, KeyEmail}

// Store: персистентное key/value (файл YAML). Пустой path = только в памяти.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]string{}}
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read session file %s", path)
	}
	if err := yaml.Unmarshal(b, &s.values); err != nil {
		return nil, errors.Wrapf(err, "parse session file %s", path)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

func (s *Store) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Set пишет пачку ключей и сразу сохраняет файл
func (s *Store) Set(kv map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range kv {
		s.values[k] = v
	}
	return s.saveLocked()
}

func (s *Store) Clear(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return s.saveLocked()
}

// saveLocked: запись во временный файл + rename
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	b, err := yaml.Marshal(s.values)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "create session dir")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return errors.Wrap(err, "write session")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "replace session file")
	}
	return nil
}
