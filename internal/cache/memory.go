package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used when REDIS_ADDR is unset and in
// tests. TTLs are honored lazily on read.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]memoryValue
	sets   map[string]map[string]struct{}
}

type memoryValue struct {
	data      string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]memoryValue),
		sets:   make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrMiss
	}
	if !v.expiresAt.IsZero() && time.Now().After(v.expiresAt) {
		s.mu.Lock()
		delete(s.values, key)
		s.mu.Unlock()
		return "", ErrMiss
	}
	return v.data, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.values[key] = memoryValue{data: value, expiresAt: expires}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.values, key)
		delete(s.sets, key)
	}
	s.mu.Unlock()
	return nil
}

// FindKeyWithPrefix returns the first live key starting with prefix, or "".
// Handy in tests for retrieving opaque tokens.
func (s *MemoryStore) FindKeyWithPrefix(prefix string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	for key, v := range s.values {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !v.expiresAt.IsZero() && now.After(v.expiresAt) {
			continue
		}
		return key
	}
	return ""
}

func (s *MemoryStore) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	if set, ok := s.sets[key]; ok {
		for _, m := range members {
			delete(set, m)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[key]
	if !ok {
		return nil, nil
	}
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}
