package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sakif/daily-code/internal/apperror"
	"github.com/sakif/daily-code/internal/model"
)

// NoticeDuration is how long a notice stays visible before it dismisses itself.
const NoticeDuration = 3 * time.Second

// UntitledFilename fills the filename field until the user types one or
// loads a snippet.
const UntitledFilename = "untitled"

// Snippets is the part of SnippetStore the controller needs.
type Snippets interface {
	Save(ctx context.Context, filename, language, code string) bool
	Load(ctx context.Context, filename string) (*model.Snippet, bool)
	List(ctx context.Context) []model.SnippetSummary
	Delete(ctx context.Context, filename string) bool
}

// Generator is the part of codegen.Client the controller needs.
type Generator interface {
	HasCredential(ctx context.Context) bool
	SetCredential(ctx context.Context, key string) bool
	Generate(ctx context.Context, language, prompt string) (string, error)
}

// CredentialPrompter asks the user for an API key. It is called at most
// once per Init, and only when no key is stored.
type CredentialPrompter interface {
	PromptCredential(ctx context.Context) (string, error)
}

// PromptFunc adapts a function to CredentialPrompter.
type PromptFunc func(ctx context.Context) (string, error)

func (f PromptFunc) PromptCredential(ctx context.Context) (string, error) { return f(ctx) }

// NoticeKind distinguishes success messages from error messages.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient status message.
type Notice struct {
	Kind         NoticeKind
	Message      string
	DismissAfter time.Duration
}

// EditorState is the transient editor buffer plus the generate trigger's
// disabled flag.
type EditorState struct {
	Filename    string `json:"filename"`
	Language    string `json:"language"`
	LanguageTag string `json:"languageTag"`
	Code        string `json:"code"`
	Generating  bool   `json:"generating"`
}

// Outcome is the result of one controller action.
type Outcome struct {
	State    EditorState
	Notice   *Notice                // nil when there is nothing to show
	Snippets []model.SnippetSummary // set by List and Delete
	Err      error                  // nil on success
}

var (
	errSaveRejected   = errors.New("snippet store rejected the write")
	errDeleteRejected = errors.New("snippet store rejected the delete")
	errKeyRejected    = errors.New("credential store rejected the write")
)

// EditorController turns user actions into SnippetStore and Generator calls
// and keeps the editor buffer in sync with their results.
//
// The buffer is guarded by mu. Generation is guarded separately by an
// atomic flag: while one generation is in flight, further Regenerate and
// Init calls are refused instead of queued.
type EditorController struct {
	snippets  Snippets
	generator Generator
	logger    *slog.Logger

	mu    sync.Mutex
	state EditorState

	generating atomic.Bool
}

// NewEditorController creates a controller with an empty buffer in the
// default language.
func NewEditorController(snippets Snippets, generator Generator, logger *slog.Logger) *EditorController {
	return &EditorController{
		snippets:  snippets,
		generator: generator,
		logger:    logger,
		state: EditorState{
			Filename:    UntitledFilename,
			Language:    model.DefaultLanguage,
			LanguageTag: model.LanguageTag(model.DefaultLanguage),
		},
	}
}

// State returns a copy of the editor buffer.
func (c *EditorController) State() EditorState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Generating = c.generating.Load()
	return s
}

// HasCredential reports whether an API key is stored.
func (c *EditorController) HasCredential(ctx context.Context) bool {
	return c.generator.HasCredential(ctx)
}

// Init runs the start-up flow. Without a stored credential the prompter is
// asked for one first; with a credential (stored or just supplied) a
// snippet is generated for language and replaces the buffer.
func (c *EditorController) Init(ctx context.Context, language string, prompter CredentialPrompter) Outcome {
	if !c.generator.HasCredential(ctx) {
		if prompter == nil {
			err := apperror.MissingCredential()
			return c.fail(err, err.Error())
		}

		key, err := prompter.PromptCredential(ctx)
		if err != nil {
			return c.fail(err, "Error: "+err.Error())
		}

		if out := c.SetCredential(ctx, key); out.Err != nil {
			return out
		}
	}

	return c.Regenerate(ctx, language, "")
}

// SetCredential stores a new API key.
func (c *EditorController) SetCredential(ctx context.Context, key string) Outcome {
	if strings.TrimSpace(key) == "" {
		return c.fail(apperror.ValidationFailed("apiKey", "Please enter a valid API key"), "Please enter a valid API key")
	}
	if !c.generator.SetCredential(ctx, key) {
		return c.fail(apperror.StorageFailure("write", errKeyRejected), "Failed to save API key")
	}
	return c.succeed("API key saved successfully!")
}

// Save copies the given fields into the buffer and saves them as a snippet.
func (c *EditorController) Save(ctx context.Context, filename, language, code string) Outcome {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return c.fail(apperror.ValidationFailed("filename", "Please enter a filename"), "Please enter a filename")
	}
	if language == "" {
		language = c.State().Language
	}

	c.mu.Lock()
	c.state.Filename = filename
	c.state.Language = language
	c.state.LanguageTag = model.LanguageTag(language)
	c.state.Code = code
	c.mu.Unlock()

	if !c.snippets.Save(ctx, filename, language, code) {
		return c.fail(apperror.StorageFailure("write", errSaveRejected), "Failed to save snippet")
	}
	return c.succeed("Snippet saved successfully!")
}

// List returns every saved snippet, sorted by filename.
func (c *EditorController) List(ctx context.Context) Outcome {
	return Outcome{
		State:    c.State(),
		Snippets: c.sortedSnippets(ctx),
	}
}

// Load replaces the buffer with the snippet saved under filename.
func (c *EditorController) Load(ctx context.Context, filename string) Outcome {
	snippet, ok := c.snippets.Load(ctx, filename)
	if !ok {
		return c.fail(apperror.NotFound("snippet", filename), "Snippet not found")
	}

	c.mu.Lock()
	c.state.Filename = snippet.Filename
	c.state.Language = snippet.Language
	c.state.LanguageTag = model.LanguageTag(snippet.Language)
	c.state.Code = snippet.Code
	c.mu.Unlock()

	return c.succeed("Snippet loaded successfully!")
}

// Delete removes a saved snippet and returns the remaining list.
// The buffer is left as it is, even when it shows the deleted snippet.
func (c *EditorController) Delete(ctx context.Context, filename string) Outcome {
	if !c.snippets.Delete(ctx, filename) {
		out := c.fail(apperror.StorageFailure("delete", errDeleteRejected), "Failed to delete snippet")
		out.Snippets = c.sortedSnippets(ctx)
		return out
	}

	out := c.succeed("Snippet deleted successfully!")
	out.Snippets = c.sortedSnippets(ctx)
	return out
}

// Regenerate asks the generator for a new snippet and, on success, replaces
// the buffer's code, language and tag. An empty language keeps the current
// one. A call made while another generation is running is refused.
func (c *EditorController) Regenerate(ctx context.Context, language, prompt string) Outcome {
	if language == "" {
		language = c.State().Language
	}

	if !c.generating.CompareAndSwap(false, true) {
		err := apperror.Busy("generation")
		return c.fail(err, "Error: "+err.Error())
	}

	c.logger.Info("generating code", slog.String("language", language))

	if err := c.generate(ctx, language, prompt); err != nil {
		return c.fail(err, "Error: "+err.Error())
	}
	return c.succeed("Code generated successfully!")
}

// generate runs one generation and copies the result into the buffer. The
// in-flight flag is cleared on every exit, including a panicking Generator,
// so the outcome built by the caller shows the trigger enabled again.
func (c *EditorController) generate(ctx context.Context, language, prompt string) error {
	defer c.generating.Store(false)

	code, err := c.generator.Generate(ctx, language, prompt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.state.Language = language
	c.state.LanguageTag = model.LanguageTag(language)
	c.state.Code = code
	c.mu.Unlock()
	return nil
}

func (c *EditorController) sortedSnippets(ctx context.Context) []model.SnippetSummary {
	list := c.snippets.List(ctx)
	sort.Slice(list, func(i, j int) bool {
		return list[i].Filename < list[j].Filename
	})
	return list
}

func (c *EditorController) succeed(message string) Outcome {
	return Outcome{
		State: c.State(),
		Notice: &Notice{
			Kind:         NoticeSuccess,
			Message:      message,
			DismissAfter: NoticeDuration,
		},
	}
}

func (c *EditorController) fail(err error, message string) Outcome {
	c.logger.Warn("editor action failed",
		slog.String("notice", message),
		slog.String("error", err.Error()),
	)
	return Outcome{
		State: c.State(),
		Notice: &Notice{
			Kind:         NoticeError,
			Message:      message,
			DismissAfter: NoticeDuration,
		},
		Err: err,
	}
}
