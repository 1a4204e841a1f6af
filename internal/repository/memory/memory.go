// Package memory implements repository.Namespace with a map held in process
// memory. Nothing survives a restart; it backs tests and throwaway sessions.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/sakif/daily-code/internal/apperror"
	"github.com/sakif/daily-code/internal/repository"
)

var _ repository.Namespace = (*Store)(nil)

// Store is a mutex-guarded map. The zero value is not usable; call New.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
	quota   int64
}

// New returns an empty store. quota limits the total bytes of keys and
// values; zero means unlimited.
func New(quota int64) *Store {
	return &Store{
		entries: make(map[string]string),
		quota:   quota,
	}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return "", apperror.NotFound("entry", key)
	}
	return value, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quota > 0 {
		var used int64
		for k, v := range s.entries {
			if k == key {
				continue
			}
			used += int64(len(k) + len(v))
		}
		if used+int64(len(key)+len(value)) > s.quota {
			return repository.ErrQuotaExceeded
		}
	}

	s.entries[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
