package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/daily-code/internal/apperror"
	"github.com/sakif/daily-code/internal/handler"
	"github.com/sakif/daily-code/internal/repository/memory"
	"github.com/sakif/daily-code/internal/service"
)

// MockGenerator stands in for the codegen client so handler tests run
// without network access.
type MockGenerator struct {
	mu      sync.Mutex
	Key     string
	Code    string
	Err     error
	Prompts []string
}

func (m *MockGenerator) HasCredential(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Key != ""
}

func (m *MockGenerator) SetCredential(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Key = key
	return true
}

func (m *MockGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	return m.Code, m.Err
}

// outcome mirrors handler.OutcomeResponse with a plain slice so tests can
// tell a missing list from an empty one by checking for nil.
type outcome struct {
	State    service.EditorState     `json:"state"`
	Notice   *handler.NoticeResponse `json:"notice"`
	Snippets []struct {
		Filename string `json:"filename"`
		Language string `json:"language"`
	} `json:"snippets"`
	Error string `json:"error"`
}

func newTestRouter(t *testing.T, gen *MockGenerator) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := service.NewSnippetStore(memory.New(0), logger)
	ctrl := service.NewEditorController(store, gen, logger)

	r := chi.NewRouter()
	r.Route("/api", handler.NewEditorHandler(ctrl, logger).Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeOutcome(t *testing.T, rr *httptest.ResponseRecorder) outcome {
	t.Helper()
	var out outcome
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

func TestEditorHandler_State(t *testing.T) {
	h := newTestRouter(t, &MockGenerator{})

	rr := do(t, h, http.MethodGet, "/api/editor", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var state service.EditorState
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
	assert.Equal(t, "javascript", state.Language)
	assert.Equal(t, service.UntitledFilename, state.Filename)
}

func TestEditorHandler_Init(t *testing.T) {
	t.Run("missing key without apiKey is 428", func(t *testing.T) {
		h := newTestRouter(t, &MockGenerator{})

		rr := do(t, h, http.MethodPost, "/api/editor/init", `{"language":"python"}`)

		assert.Equal(t, http.StatusPreconditionRequired, rr.Code)
		out := decodeOutcome(t, rr)
		assert.Equal(t, "missing_credential", out.Error)
		require.NotNil(t, out.Notice)
		assert.Equal(t, service.NoticeError, out.Notice.Kind)
	})

	t.Run("apiKey answers the prompt", func(t *testing.T) {
		gen := &MockGenerator{Code: "print(1)"}
		h := newTestRouter(t, gen)

		rr := do(t, h, http.MethodPost, "/api/editor/init", `{"language":"python","apiKey":"gsk_1"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		out := decodeOutcome(t, rr)
		assert.Equal(t, "print(1)", out.State.Code)
		assert.Equal(t, "gsk_1", gen.Key)
		require.NotNil(t, out.Notice)
		assert.Equal(t, "Code generated successfully!", out.Notice.Message)
		assert.Equal(t, int64(3000), out.Notice.DismissAfterMs)
		assert.Nil(t, out.Snippets)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		h := newTestRouter(t, &MockGenerator{})

		rr := do(t, h, http.MethodPost, "/api/editor/init", `{"language":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var errResp handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
		assert.Equal(t, "validation_error", errResp.Error)
	})
}

func TestEditorHandler_Credential(t *testing.T) {
	gen := &MockGenerator{}
	h := newTestRouter(t, gen)

	rr := do(t, h, http.MethodGet, "/api/credential", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"present":false}`, rr.Body.String())

	rr = do(t, h, http.MethodPut, "/api/credential", `{"apiKey":"gsk_2"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "gsk_2")

	rr = do(t, h, http.MethodGet, "/api/credential", "")
	assert.JSONEq(t, `{"present":true}`, rr.Body.String())

	rr = do(t, h, http.MethodPut, "/api/credential", `{"apiKey":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEditorHandler_SnippetLifecycle(t *testing.T) {
	h := newTestRouter(t, &MockGenerator{})

	rr := do(t, h, http.MethodGet, "/api/snippets", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"snippets":[]`)

	for _, body := range []string{
		`{"filename":"b.py","language":"python","code":"b"}`,
		`{"filename":"my file.js","language":"javascript","code":"a"}`,
	} {
		rr = do(t, h, http.MethodPost, "/api/snippets", body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	out := decodeOutcome(t, do(t, h, http.MethodGet, "/api/snippets", ""))
	require.Len(t, out.Snippets, 2)
	assert.Equal(t, "b.py", out.Snippets[0].Filename)
	assert.Equal(t, "my file.js", out.Snippets[1].Filename)

	rr = do(t, h, http.MethodPost, "/api/snippets/b.py/load", "")
	require.Equal(t, http.StatusOK, rr.Code)
	out = decodeOutcome(t, rr)
	assert.Equal(t, "b", out.State.Code)
	assert.Equal(t, "python", out.State.Language)

	rr = do(t, h, http.MethodDelete, "/api/snippets/my%20file.js", "")
	require.Equal(t, http.StatusOK, rr.Code)
	out = decodeOutcome(t, rr)
	require.Len(t, out.Snippets, 1)
	assert.Equal(t, "b.py", out.Snippets[0].Filename)
	assert.Equal(t, "Snippet deleted successfully!", out.Notice.Message)
}

func TestEditorHandler_SaveEmptyFilename(t *testing.T) {
	h := newTestRouter(t, &MockGenerator{})

	rr := do(t, h, http.MethodPost, "/api/snippets", `{"filename":"","language":"python","code":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	out := decodeOutcome(t, rr)
	assert.Equal(t, "validation_error", out.Error)
}

func TestEditorHandler_LoadMissing(t *testing.T) {
	h := newTestRouter(t, &MockGenerator{})

	rr := do(t, h, http.MethodPost, "/api/snippets/nope.js/load", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	out := decodeOutcome(t, rr)
	assert.Equal(t, "Snippet not found", out.Notice.Message)
}

func TestEditorHandler_Generate(t *testing.T) {
	tests := []struct {
		name       string
		gen        *MockGenerator
		wantStatus int
		wantError  string
	}{
		{"success", &MockGenerator{Key: "k", Code: "x"}, http.StatusOK, ""},
		{"missing credential", &MockGenerator{Err: apperror.MissingCredential()}, http.StatusPreconditionRequired, "missing_credential"},
		{"api error", &MockGenerator{Key: "k", Err: apperror.APIFailure(401, "bad key")}, http.StatusBadGateway, "api_error"},
		{"transport error", &MockGenerator{Key: "k", Err: apperror.TransportFailure(errors.New("dial tcp"))}, http.StatusBadGateway, "transport_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, tt.gen)

			rr := do(t, h, http.MethodPost, "/api/generate", `{"language":"go","prompt":"worker pool"}`)

			assert.Equal(t, tt.wantStatus, rr.Code)
			out := decodeOutcome(t, rr)
			assert.Equal(t, tt.wantError, out.Error)
			require.Len(t, tt.gen.Prompts, 1)
			assert.Equal(t, "worker pool", tt.gen.Prompts[0])
		})
	}
}

func TestEditorHandler_EscapedFilenames(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		path     string // escaped path segment
	}{
		{"literal percent sequence", "report%41.js", "report%2541.js"},
		{"bare percent", "100%.py", "100%25.py"},
		{"escaped slash", "dir/a.js", "dir%2Fa.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &MockGenerator{})

			body, err := json.Marshal(map[string]string{
				"filename": tt.filename, "language": "javascript", "code": "ok",
			})
			require.NoError(t, err)
			rr := do(t, h, http.MethodPost, "/api/snippets", string(body))
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			rr = do(t, h, http.MethodPost, "/api/snippets/"+tt.path+"/load", "")
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			out := decodeOutcome(t, rr)
			assert.Equal(t, tt.filename, out.State.Filename)
			assert.Equal(t, "ok", out.State.Code)

			rr = do(t, h, http.MethodDelete, "/api/snippets/"+tt.path, "")
			require.Equal(t, http.StatusOK, rr.Code)
			out = decodeOutcome(t, rr)
			assert.Empty(t, out.Snippets)
		})
	}
}
