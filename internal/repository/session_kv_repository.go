package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

type kvObserver interface {
	ObserveKV(op string, duration time.Duration)
}

func keyNotFound(key string) error {
	return appErrors.Clone(appErrors.ErrKeyNotFound, fmt.Sprintf("key %q not found", key))
}

// RedisKVStore keeps session keys in Redis under "<prefix>:<device>:".
type RedisKVStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	metrics   kvObserver
}

// NewRedisKVStore returns the root store. Use Scope to obtain a device view.
// ttl of zero keeps keys forever.
func NewRedisKVStore(client *redis.Client, prefix string, ttl time.Duration, metrics kvObserver) *RedisKVStore {
	return &RedisKVStore{client: client, namespace: strings.TrimSuffix(prefix, ":") + ":", ttl: ttl, metrics: metrics}
}

// Scope returns the store restricted to one device.
func (r *RedisKVStore) Scope(deviceID string) *RedisKVStore {
	scoped := *r
	scoped.namespace = r.namespace + deviceID + ":"
	return &scoped
}

// Namespace returns the key prefix every key of this store carries.
func (r *RedisKVStore) Namespace() string {
	return r.namespace
}

func (r *RedisKVStore) observe(op string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveKV(op, time.Since(start))
	}
}

// Get returns the value for key.
func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	defer r.observe("get", time.Now())
	value, err := r.client.Get(ctx, r.namespace+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", keyNotFound(key)
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, refreshing the TTL.
func (r *RedisKVStore) Set(ctx context.Context, key, value string) error {
	defer r.observe("set", time.Now())
	if err := r.client.Set(ctx, r.namespace+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (r *RedisKVStore) Remove(ctx context.Context, key string) error {
	defer r.observe("remove", time.Now())
	if err := r.client.Del(ctx, r.namespace+key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys of this namespace without the prefix, sorted.
func (r *RedisKVStore) Keys(ctx context.Context) ([]string, error) {
	defer r.observe("keys", time.Now())
	var keys []string
	iter := r.client.Scan(ctx, 0, escapeGlob(r.namespace)+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", r.namespace, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping checks the connection.
func (r *RedisKVStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

type memoryData struct {
	mu     sync.RWMutex
	values map[string]string
}

// MemoryKVStore is the in-process store used in development and tests.
// Scoped views share the same underlying map.
type MemoryKVStore struct {
	data      *memoryData
	namespace string
}

// NewMemoryKVStore returns an empty root store.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{data: &memoryData{values: make(map[string]string)}}
}

// Scope returns the store restricted to one device.
func (m *MemoryKVStore) Scope(deviceID string) *MemoryKVStore {
	return &MemoryKVStore{data: m.data, namespace: m.namespace + deviceID + ":"}
}

// Get returns the value for key.
func (m *MemoryKVStore) Get(_ context.Context, key string) (string, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	value, ok := m.data.values[m.namespace+key]
	if !ok {
		return "", keyNotFound(key)
	}
	return value, nil
}

// Set stores value under key.
func (m *MemoryKVStore) Set(_ context.Context, key, value string) error {
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	m.data.values[m.namespace+key] = value
	return nil
}

// Remove deletes key.
func (m *MemoryKVStore) Remove(_ context.Context, key string) error {
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	delete(m.data.values, m.namespace+key)
	return nil
}

// Keys lists the keys of this namespace without the prefix, sorted.
func (m *MemoryKVStore) Keys(_ context.Context) ([]string, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	keys := make([]string, 0)
	for k := range m.data.values {
		if strings.HasPrefix(k, m.namespace) {
			keys = append(keys, strings.TrimPrefix(k, m.namespace))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping always succeeds.
func (m *MemoryKVStore) Ping(context.Context) error {
	return nil
}
