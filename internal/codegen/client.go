// Package codegen asks a chat-completion model for example code.
//
// The Client owns two things:
//
//  1. The API credential, kept in the shared key-value namespace under
//     CredentialKey (optionally sealed, see package secret).
//  2. The generation call: one POST to an OpenAI-compatible
//     /chat/completions endpoint (Groq by default), followed by
//     ExtractCode on the reply.
//
// Errors from Generate are always *apperror.AppError values of kind
// ErrMissingCredential, ErrAPI or ErrTransport.
package codegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sakif/daily-code/internal/apperror"
	"github.com/sakif/daily-code/internal/repository"
)

// CredentialKey is where the API key lives in the namespace. It sits outside
// the snippet prefix so it never shows up in the snippet list.
const CredentialKey = "groq_api_key"

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "qwen-2.5-coder-32b"
	DefaultTimeout = 60 * time.Second

	Temperature = 0.7
	MaxTokens   = 2048
)

// SystemPrompt tells the model to answer with optional prose followed by
// exactly one fenced code block.
const SystemPrompt = "You are a helpful coding assistant that generates high-quality, educational code snippets. " +
	"Your response should follow this exact format: First, provide any explanatory comments in plain text (not in code blocks). " +
	"Then, provide ONLY the code in a single markdown code block with the appropriate language tag. " +
	"Do not wrap the entire response in quotes."

// DefaultPrompt is the user message sent when the caller gives no prompt.
func DefaultPrompt(language string) string {
	return fmt.Sprintf("Generate an interesting and educational code snippet in %s that demonstrates a useful concept or technique.", language)
}

// Sealer protects the credential at rest. *secret.Sealer satisfies it.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

type plainSealer struct{}

func (plainSealer) Seal(s string) (string, error) { return s, nil }
func (plainSealer) Open(s string) (string, error) { return s, nil }

// Config holds the endpoint settings.
type Config struct {
	BaseURL string        // without the /chat/completions suffix
	Model   string
	Timeout time.Duration // per generation; zero or negative disables it

	// HTTPClient overrides the transport (tests point it at httptest servers).
	HTTPClient *http.Client
}

// Client issues generation requests and manages the stored credential.
type Client struct {
	store  repository.Namespace
	sealer Sealer
	config Config
	logger *slog.Logger
}

// NewClient creates a Client. A nil sealer stores the credential as-is.
// Empty config fields fall back to the Default* constants.
func NewClient(store repository.Namespace, sealer Sealer, cfg Config, logger *slog.Logger) *Client {
	if sealer == nil {
		sealer = plainSealer{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{
		store:  store,
		sealer: sealer,
		config: cfg,
		logger: logger,
	}
}

// =========================================================================
// CREDENTIAL
// =========================================================================

// SetCredential stores key, replacing any previous one. It reports false
// when key is blank or the namespace rejects the write.
func (c *Client) SetCredential(ctx context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		c.logger.Warn("refusing to store an empty API key")
		return false
	}

	sealed, err := c.sealer.Seal(key)
	if err != nil {
		c.logger.Error("failed to seal API key", slog.String("error", err.Error()))
		return false
	}

	if err := c.store.Set(ctx, CredentialKey, sealed); err != nil {
		c.logger.Error("failed to store API key",
			slog.String("error", apperror.StorageFailure("write", err).Error()),
		)
		return false
	}

	c.logger.Info("API key stored")
	return true
}

// Credential returns the stored key. The second result is false when no key
// is stored, or when it cannot be read or unsealed.
func (c *Client) Credential(ctx context.Context) (string, bool) {
	value, err := c.store.Get(ctx, CredentialKey)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			c.logger.Error("failed to read API key",
				slog.String("error", apperror.StorageFailure("read", err).Error()),
			)
		}
		return "", false
	}

	key, err := c.sealer.Open(value)
	if err != nil {
		c.logger.Warn("stored API key cannot be opened", slog.String("error", err.Error()))
		return "", false
	}
	if key == "" {
		return "", false
	}
	return key, true
}

// HasCredential reports whether a usable key is stored.
func (c *Client) HasCredential(ctx context.Context) bool {
	_, ok := c.Credential(ctx)
	return ok
}

// =========================================================================
// GENERATION
// =========================================================================

// Generate asks the model for a code snippet in language and returns the
// extracted code. An empty prompt is replaced by DefaultPrompt(language).
//
// The credential is checked first: without one, ErrMissingCredential is
// returned and no request is made.
func (c *Client) Generate(ctx context.Context, language, prompt string) (string, error) {
	key, ok := c.Credential(ctx)
	if !ok {
		return "", apperror.MissingCredential()
	}

	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultPrompt(language)
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	id := xid.New().String()
	log := c.logger.With(
		slog.String("generation_id", id),
		slog.String("language", language),
		slog.String("model", c.config.Model),
	)
	log.Info("requesting code generation")
	start := time.Now()

	resp, err := c.openAIClient(key).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		appErr := classify(err)
		log.Error("code generation failed",
			slog.String("error", appErr.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return "", appErr
	}

	if len(resp.Choices) == 0 {
		err := apperror.TransportFailure(errors.New("codegen: response contained no choices"))
		log.Error("code generation failed", slog.String("error", err.Error()))
		return "", err
	}

	code := ExtractCode(resp.Choices[0].Message.Content)

	log.Info("code generated",
		slog.Duration("duration", time.Since(start)),
		slog.Int("bytes", len(code)),
	)
	return code, nil
}

func (c *Client) openAIClient(key string) *openai.Client {
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = c.config.BaseURL
	if c.config.HTTPClient != nil {
		cfg.HTTPClient = c.config.HTTPClient
	}
	return openai.NewClientWithConfig(cfg)
}

// classify maps an error from the go-openai client onto the apperror
// taxonomy.
//
//   - an HTTP failure status becomes ErrAPI with the remote error.message,
//     or the status text when the body carries none;
//   - everything else (dial errors, timeouts, undecodable bodies) becomes
//     ErrTransport.
func classify(err error) *apperror.AppError {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && isFailureStatus(reqErr.HTTPStatusCode) {
		msg := remoteMessage(reqErr.Body)
		var nested *openai.APIError
		if msg == "" && errors.As(reqErr.Err, &nested) {
			msg = nested.Message
		}
		if msg == "" {
			msg = statusText(reqErr.HTTPStatusCode)
		}
		return apperror.APIFailure(reqErr.HTTPStatusCode, msg)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && isFailureStatus(apiErr.HTTPStatusCode) {
		msg := apiErr.Message
		if msg == "" {
			msg = statusText(apiErr.HTTPStatusCode)
		}
		return apperror.APIFailure(apiErr.HTTPStatusCode, msg)
	}

	return apperror.TransportFailure(err)
}

func isFailureStatus(code int) bool {
	return code < http.StatusOK || code >= http.StatusBadRequest
}

// remoteMessage pulls error.message out of a raw error body, if present.
func remoteMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error.Message
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", code)
}
