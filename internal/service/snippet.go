// Package service contains the application logic, sitting between the
// adapters (HTTP handlers, CLI commands) and storage.
//
//	Adapter (HTTP / CLI)   → parses input, renders output
//	Service                → SnippetStore + EditorController
//	Repository             → a flat key-value Namespace
//
// Services accept plain Go values and return plain Go values, so the same
// code serves the HTTP API, the CLI, and tests without change.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/daily-code/internal/apperror"
	"github.com/sakif/daily-code/internal/model"
	"github.com/sakif/daily-code/internal/repository"
)

// SnippetKeyPrefix precedes the filename in every snippet key:
// "hello.py" is stored under "code_widget_hello.py".
const SnippetKeyPrefix = "code_widget_"

// SnippetKey returns the namespace key for filename.
func SnippetKey(filename string) string {
	return SnippetKeyPrefix + filename
}

// FilenameFromKey strips SnippetKeyPrefix from a namespace key.
func FilenameFromKey(key string) (string, bool) {
	return strings.CutPrefix(key, SnippetKeyPrefix)
}

// SnippetStore persists snippets in a repository.Namespace.
//
// FAILURE POLICY:
// Storage errors never leave this type. They are logged and turned into a
// false / not-found result, so callers branch on a bool instead of
// inspecting errors.
type SnippetStore struct {
	ns     repository.Namespace
	logger *slog.Logger
	now    func() time.Time
}

// NewSnippetStore creates a SnippetStore over ns.
func NewSnippetStore(ns repository.Namespace, logger *slog.Logger) *SnippetStore {
	return &SnippetStore{
		ns:     ns,
		logger: logger,
		now:    time.Now,
	}
}

// Save writes the snippet under filename, replacing any existing record
// entirely, and stamps lastModified with the current time.
// It returns false if the namespace rejects the write (e.g. quota exceeded).
func (s *SnippetStore) Save(ctx context.Context, filename, language, code string) bool {
	snippet := model.Snippet{
		Language:     language,
		Filename:     filename,
		Code:         code,
		LastModified: s.now().UTC(),
	}

	data, err := json.Marshal(snippet)
	if err != nil {
		s.logger.Error("failed to encode snippet",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return false
	}

	if err := s.ns.Set(ctx, SnippetKey(filename), string(data)); err != nil {
		s.logger.Error("failed to save snippet",
			slog.String("filename", filename),
			slog.Bool("quota_exceeded", errors.Is(err, repository.ErrQuotaExceeded)),
			slog.String("error", apperror.StorageFailure("write", err).Error()),
		)
		return false
	}

	s.logger.Info("snippet saved",
		slog.String("filename", filename),
		slog.String("language", language),
		slog.Int("bytes", len(code)),
	)
	return true
}

// Load returns the snippet stored under filename. The second result is false
// when there is no such snippet, when it cannot be read, or when the stored
// record is malformed.
func (s *SnippetStore) Load(ctx context.Context, filename string) (*model.Snippet, bool) {
	raw, err := s.ns.Get(ctx, SnippetKey(filename))
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to load snippet",
				slog.String("filename", filename),
				slog.String("error", apperror.StorageFailure("read", err).Error()),
			)
		}
		return nil, false
	}

	snippet, err := decodeSnippet(raw, filename)
	if err != nil {
		s.logger.Warn("ignoring malformed snippet",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return snippet, true
}

// List returns a summary of every stored snippet, without code.
// Order is unspecified. Malformed records are skipped; if the namespace
// fails part-way, the summaries collected so far are returned.
func (s *SnippetStore) List(ctx context.Context) []model.SnippetSummary {
	keys, err := s.ns.Keys(ctx, SnippetKeyPrefix)
	if err != nil {
		s.logger.Error("failed to list snippets",
			slog.String("error", apperror.StorageFailure("list", err).Error()),
		)
		return []model.SnippetSummary{}
	}

	summaries := make([]model.SnippetSummary, 0, len(keys))
	for _, key := range keys {
		filename, _ := FilenameFromKey(key)

		raw, err := s.ns.Get(ctx, key)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue // deleted since Keys ran
			}
			s.logger.Error("failed to read snippet while listing",
				slog.String("filename", filename),
				slog.String("error", apperror.StorageFailure("read", err).Error()),
			)
			return summaries
		}

		snippet, err := decodeSnippet(raw, filename)
		if err != nil {
			s.logger.Warn("skipping malformed snippet",
				slog.String("filename", filename),
				slog.String("error", err.Error()),
			)
			continue
		}
		summaries = append(summaries, snippet.Summary())
	}

	return summaries
}

// Delete removes the snippet stored under filename. Deleting a filename
// that was never saved still reports true.
func (s *SnippetStore) Delete(ctx context.Context, filename string) bool {
	if err := s.ns.Delete(ctx, SnippetKey(filename)); err != nil {
		s.logger.Error("failed to delete snippet",
			slog.String("filename", filename),
			slog.String("error", apperror.StorageFailure("delete", err).Error()),
		)
		return false
	}

	s.logger.Info("snippet deleted", slog.String("filename", filename))
	return true
}

// decodeSnippet parses a stored record. A record without a filename takes
// the one from its key.
func decodeSnippet(raw, filename string) (*model.Snippet, error) {
	var snippet model.Snippet
	if err := json.Unmarshal([]byte(raw), &snippet); err != nil {
		return nil, err
	}
	if snippet.Filename == "" {
		snippet.Filename = filename
	}
	return &snippet, nil
}
