// Package repository defines the storage contract shared by every backend.
//
// Everything the application persists lives in ONE flat key-value namespace:
//
//	groq_api_key              → the API credential
//	code_widget_<filename>    → one JSON-encoded snippet record per filename
//
// Backends (sqlite, redis, memory) only move strings around; they know
// nothing about snippets or credentials.
package repository

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by Set when the write would push the namespace
// past its configured size limit.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Namespace is a durable string-to-string map.
//
//   - Get returns an apperror.NotFound error when the key is absent.
//   - Set overwrites unconditionally.
//   - Delete succeeds whether or not the key exists.
//   - Keys lists every key starting with prefix, in no particular order.
type Namespace interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
