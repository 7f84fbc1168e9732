package secret

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// EnvStore implements SecretStore over process environment variables.
// Keys are upper-cased and prefixed, so "shop_db" reads PAGEBUILDER_SHOP_DB
// unless the key already names a variable that is set.
type EnvStore struct {
	prefix string

	mu        sync.RWMutex
	overrides map[string][]byte
}

// NewEnvStore creates an EnvStore. An empty prefix disables prefixing.
func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{prefix: prefix, overrides: make(map[string][]byte)}
}

func (s *EnvStore) envName(key string) string {
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(key))
	if s.prefix == "" {
		return name
	}
	return s.prefix + "_" + name
}

// Set keeps value in memory for the life of the process. The environment
// itself is never modified.
func (s *EnvStore) Set(key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("secret set: empty key")
	}
	s.mu.Lock()
	s.overrides[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

func (s *EnvStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	v, ok := s.overrides[key]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}
	if v, ok := os.LookupEnv(key); ok && key != "" {
		return []byte(v), nil
	}
	if v, ok := os.LookupEnv(s.envName(key)); ok {
		return []byte(v), nil
	}
	return []byte{}, nil
}

func (s *EnvStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.overrides, key)
	s.mu.Unlock()
	return nil
}
