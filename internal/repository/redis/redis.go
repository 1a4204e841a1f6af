// Package redis implements repository.Namespace on a Redis (or Valkey) server.
//
// Every key is stored under a configurable namespace prefix, e.g.
//
//	dailycode:code_widget_hello.py
//	dailycode:groq_api_key
//
// so several tools can share one Redis database. The prefix is added on
// write and stripped again by Keys.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/daily-code/internal/apperror"
	"github.com/sakif/daily-code/internal/repository"
)

var _ repository.Namespace = (*Store)(nil)

// Options configures the connection.
type Options struct {
	Addr     string // ex: "localhost:6379"
	Password string // optional
	DB       int    // Redis DB number
	Prefix   string // key namespace, ex: "dailycode:"
}

// Store is a Namespace backed by a go-redis client.
type Store struct {
	client *redis.Client
	prefix string
}

// Connect creates a client and verifies the connection with a ping.
func Connect(opts Options, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}

	logger.Info("redis connected",
		slog.String("addr", opts.Addr),
		slog.Int("db", opts.DB),
		slog.String("prefix", opts.Prefix),
	)
	return NewStore(client, opts.Prefix), nil
}

// NewStore wraps an existing client.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get returns the value for key; redis.Nil becomes apperror.NotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperror.NotFound("entry", key)
		}
		return "", fmt.Errorf("redis: getting %s: %w", key, err)
	}
	return value, nil
}

// Set stores value with no expiry. A server running out of maxmemory
// reports an OOM error, which surfaces here like any other write failure.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key. DEL on a missing key returns 0, not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: deleting %s: %w", key, err)
	}
	return nil
}

// Keys walks the keyspace with SCAN (never KEYS, which blocks the server)
// and returns matching keys without the namespace prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(s.key(prefix)) + "*"

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis: scanning %s: %w", pattern, err)
	}
	return keys, nil
}

// escapeGlob backslash-escapes the characters Redis MATCH patterns treat
// specially, so a filename like "a[1].js" is matched literally.
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^', '-':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
