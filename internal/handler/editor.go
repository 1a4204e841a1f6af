// Package handler contains the HTTP handlers of the editor API.
//
// Handlers are the glue between HTTP and the EditorController: they decode
// the request, call exactly one controller method and write its outcome.
// No editor logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/daily-code/internal/apperror"
	"github.com/sakif/daily-code/internal/service"
)

// Editor is the controller surface the handlers use.
// *service.EditorController satisfies it.
type Editor interface {
	State() service.EditorState
	HasCredential(ctx context.Context) bool
	Init(ctx context.Context, language string, prompter service.CredentialPrompter) service.Outcome
	SetCredential(ctx context.Context, key string) service.Outcome
	Save(ctx context.Context, filename, language, code string) service.Outcome
	List(ctx context.Context) service.Outcome
	Load(ctx context.Context, filename string) service.Outcome
	Delete(ctx context.Context, filename string) service.Outcome
	Regenerate(ctx context.Context, language, prompt string) service.Outcome
}

// EditorHandler serves the /api routes.
type EditorHandler struct {
	editor Editor
	logger *slog.Logger
}

// NewEditorHandler creates an EditorHandler.
func NewEditorHandler(editor Editor, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{editor: editor, logger: logger}
}

// Routes mounts the handlers on r.
func (h *EditorHandler) Routes(r chi.Router) {
	r.Get("/editor", h.HandleState)
	r.Post("/editor/init", h.HandleInit)

	r.Get("/credential", h.HandleCredentialStatus)
	r.Put("/credential", h.HandleSetCredential)

	r.Get("/snippets", h.HandleList)
	r.Post("/snippets", h.HandleSave)
	r.Post("/snippets/{filename}/load", h.HandleLoad)
	r.Delete("/snippets/{filename}", h.HandleDelete)

	r.Post("/generate", h.HandleGenerate)
}

// ---------- Request bodies ----------

type initRequest struct {
	Language string `json:"language"`
	APIKey   string `json:"apiKey"` // answers the credential prompt, if one is needed
}

type credentialRequest struct {
	APIKey string `json:"apiKey"`
}

type saveRequest struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

type generateRequest struct {
	Language string `json:"language"`
	Prompt   string `json:"prompt"`
}

type credentialStatus struct {
	Present bool `json:"present"`
}

// decode reads a JSON body into dst. On failure it writes a 400 and
// returns false.
func (h *EditorHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("invalid request JSON",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON body"))
		return false
	}
	return true
}

// filenameParam returns the {filename} path segment, decoded exactly once.
// chi routes on r.URL.RawPath when it is set, so the segment is still
// escaped in that case; otherwise it comes from the already decoded
// r.URL.Path and must be used as-is.
func filenameParam(r *http.Request) string {
	param := chi.URLParam(r, "filename")
	if r.URL.RawPath == "" {
		return param
	}
	if name, err := url.PathUnescape(param); err == nil {
		return name
	}
	return param
}

// ---------- Handlers ----------

// HandleState returns the editor buffer.
//
// HTTP: GET /api/editor
func (h *EditorHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.editor.State())
}

// HandleInit runs the start-up flow.
//
// HTTP: POST /api/editor/init
// REQUEST BODY: {"language": "python", "apiKey": "gsk_..."}
//
// Without a stored key and without apiKey the answer is 428, which tells
// the client to ask the user for a key and retry.
func (h *EditorHandler) HandleInit(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if !h.decode(w, r, &req) {
		return
	}

	var prompter service.CredentialPrompter
	if req.APIKey != "" {
		prompter = service.PromptFunc(func(context.Context) (string, error) {
			return req.APIKey, nil
		})
	}

	writeOutcome(w, h.editor.Init(r.Context(), req.Language, prompter), false)
}

// HandleCredentialStatus reports whether a key is stored. The key itself is
// never returned.
//
// HTTP: GET /api/credential
func (h *EditorHandler) HandleCredentialStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, credentialStatus{Present: h.editor.HasCredential(r.Context())})
}

// HandleSetCredential stores a new key.
//
// HTTP: PUT /api/credential
// REQUEST BODY: {"apiKey": "gsk_..."}
func (h *EditorHandler) HandleSetCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeOutcome(w, h.editor.SetCredential(r.Context(), req.APIKey), false)
}

// HandleList returns every saved snippet, sorted by filename.
//
// HTTP: GET /api/snippets
func (h *EditorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, h.editor.List(r.Context()), true)
}

// HandleSave saves the given buffer under its filename.
//
// HTTP: POST /api/snippets
// REQUEST BODY: {"filename": "demo.py", "language": "python", "code": "print(1)"}
func (h *EditorHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeOutcome(w, h.editor.Save(r.Context(), req.Filename, req.Language, req.Code), false)
}

// HandleLoad loads a saved snippet into the buffer.
//
// HTTP: POST /api/snippets/{filename}/load
func (h *EditorHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, h.editor.Load(r.Context(), filenameParam(r)), false)
}

// HandleDelete removes a saved snippet and returns the rest.
//
// HTTP: DELETE /api/snippets/{filename}
func (h *EditorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, h.editor.Delete(r.Context(), filenameParam(r)), true)
}

// HandleGenerate replaces the buffer with freshly generated code.
//
// HTTP: POST /api/generate
// REQUEST BODY: {"language": "python", "prompt": "optional custom prompt"}
//
// The request context is passed through, so a client that disconnects
// aborts the remote call.
func (h *EditorHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeOutcome(w, h.editor.Regenerate(r.Context(), req.Language, req.Prompt), false)
}
