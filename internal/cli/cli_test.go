// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatdesk/internal/api"
	"github.com/jeranaias/chatdesk/internal/config"
	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/session"
	"github.com/jeranaias/chatdesk/internal/store"
	"github.com/jeranaias/chatdesk/internal/stream"
	"github.com/jeranaias/chatdesk/internal/ui/styles"
)

// =============================================================================
// FAKE SERVER
// =============================================================================

// fakeAPI is an in-process chat API.
type fakeAPI struct {
	mu       sync.Mutex
	token    string
	models   string
	chatFail bool
	requests []map[string]any
	users    string
	role     string
	// adminHits counts requests to the admin endpoints.
	adminHits int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{
		token:  "tok-1",
		role:   "admin",
		models: `[{"key":"gpt","label":"GPT"},{"key":"claude","label":"Claude"}]`,
		users: `[{"id":1,"username":"alice","role":"admin","is_active":1,"monthly_token_limit":1000,"monthly_tokens_used":250,"allowed_models":[]},
			{"id":2,"username":"bob","is_active":0,"allowed_models":"gpt"}]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+f.token
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/api/login" {
		var body struct{ Username, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"Invalid credentials"}`)
			return
		}
		fmt.Fprintf(w, `{"token":%q}`, f.token)
		return
	}
	if !f.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"unauthorized"}`)
		return
	}

	switch r.URL.Path {
	case "/api/me":
		fmt.Fprintf(w, `{"user":{"username":"alice","role":%q,"monthly_token_limit":1000,"tokens_used_this_month":250}}`, f.role)
	case "/api/models":
		io.WriteString(w, f.models)
	case "/api/chat":
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.requests = append(f.requests, body)
		if f.chatFail {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":"model overloaded"}`)
			return
		}
		io.WriteString(w, "data: {\"content\":\"Hello \",\"chat_id\":\"chat-42\"}\n")
		io.WriteString(w, "data: {\"content\":\"world\"}\n")
		io.WriteString(w, "data: [DONE]\n")
	case "/api/admin/users":
		f.adminHits++
		io.WriteString(w, f.users)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"not found"}`)
	}
}

func (f *fakeAPI) lastRequest() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// =============================================================================
// HARNESS
// =============================================================================

type result struct {
	out  string
	err  string
	code int
}

// setupHome points the config dir and API base at temporary locations.
func setupHome(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("CHATDESK_HOME", home)
	t.Setenv("NO_COLOR", "1")
	if srv != nil {
		t.Setenv("CHATDESK_API_BASE", srv.URL)
	}
	return home
}

// run executes one chatdesk invocation the way Execute does.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	root, app := NewRootCommand(IOStreams{In: strings.NewReader(stdin), Out: &out, ErrOut: &errOut})
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		DisplayError(&errOut, app.Theme, err, app.opts.jsonMode)
	}
	require.NoError(t, app.Close())
	return result{out: out.String(), err: errOut.String(), code: GetExitCode(err)}
}

func login(t *testing.T) {
	t.Helper()
	res := run(t, "secret\n", "login", "-u", "alice", "--password-stdin")
	require.Equal(t, ExitSuccess, res.code, res.err)
}

// decodeData unwraps a --json envelope into v.
func decodeData(t *testing.T, raw string, v any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &env), raw)
	require.True(t, env.Success, raw)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// =============================================================================
// AUTH
// =============================================================================

func TestLoginWhoamiLogout(t *testing.T) {
	_, srv := newFakeAPI(t)
	setupHome(t, srv)

	res := run(t, "secret\n", "login", "-u", "alice", "--password-stdin")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Logged in as alice")

	res = run(t, "", "whoami")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "alice")
	assert.Contains(t, res.out, "API: "+srv.URL+"/api")
	assert.Contains(t, res.out, "250 / 1.0K tokens used")

	res = run(t, "", "logout")
	require.Equal(t, ExitSuccess, res.code)

	res = run(t, "", "whoami")
	assert.Equal(t, ExitAuthError, res.code)
	assert.Contains(t, res.err, SessionExpiredText)
}

func TestLogin_Rejected(t *testing.T) {
	_, srv := newFakeAPI(t)
	setupHome(t, srv)

	res := run(t, "wrong-password\n", "login", "-u", "alice", "--password-stdin")
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Contains(t, res.err, "Invalid credentials")

	res = run(t, "ab\n", "login", "-u", "alice", "--password-stdin")
	assert.Equal(t, ExitUsageError, res.code)
	assert.Contains(t, res.err, "at least 4 characters")
}

func TestExpiredTokenIsCleared(t *testing.T) {
	f, srv := newFakeAPI(t)
	setupHome(t, srv)
	login(t)

	f.mu.Lock()
	f.token = "rotated"
	f.mu.Unlock()

	res := run(t, "", "whoami")
	assert.Equal(t, ExitAuthError, res.code)

	// The stale token is gone, so the next call fails locally.
	res = run(t, "", "whoami", "--json")
	assert.Equal(t, ExitAuthError, res.code)
	assert.Contains(t, res.err, `"success": false`)
}

func TestModels(t *testing.T) {
	_, srv := newFakeAPI(t)
	setupHome(t, srv)
	login(t)

	res := run(t, "", "models")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "GPT (gpt)")
	assert.Contains(t, res.out, "Claude (claude)")
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_StreamsAndRecords(t *testing.T) {
	f, srv := newFakeAPI(t)
	setupHome(t, srv)
	login(t)

	res := run(t, "", "ask", "-m", "claude", "--thinking", "3", "What is Go?")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Hello world")

	req := f.lastRequest()
	assert.Equal(t, "What is Go?", req["message"])
	assert.Equal(t, "claude", req["model"])
	assert.EqualValues(t, 3, req["thinking_level"])
	assert.Nil(t, req["chat_id"])

	res = run(t, "", "conversations", "list", "--json")
	require.Equal(t, ExitSuccess, res.code, res.err)
	var convs []struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	decodeData(t, res.out, &convs)
	require.Len(t, convs, 1)
	assert.Equal(t, "chat-42", convs[0].ID)
	assert.Equal(t, "What is Go?", convs[0].Title)
	require.Len(t, convs[0].Messages, 2)
	assert.Equal(t, "Hello world", convs[0].Messages[1].Content)

	// Continuing sends the stored id.
	res = run(t, "", "ask", "-m", "gpt", "-c", "chat-4", "and Rust?")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Equal(t, "chat-42", f.lastRequest()["chat_id"])
}

func TestAsk_ReadsStdinAndPrintsJSON(t *testing.T) {
	_, srv := newFakeAPI(t)
	setupHome(t, srv)
	login(t)

	res := run(t, "explain this diff\n", "ask", "--json")
	require.Equal(t, ExitSuccess, res.code, res.err)
	var reply struct {
		Reply  string `json:"reply"`
		ChatID string `json:"chat_id"`
		Model  string `json:"model"`
	}
	decodeData(t, res.out, &reply)
	assert.Equal(t, "Hello world", reply.Reply)
	assert.Equal(t, "chat-42", reply.ChatID)
	assert.Equal(t, "gpt", reply.Model, "first server model is the fallback")
}

func TestAsk_NoModelAvailable(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.models = `[]`
	setupHome(t, srv)
	login(t)

	res := run(t, "", "ask", "hello")
	assert.Equal(t, ExitUsageError, res.code)
	assert.Contains(t, res.err, "Please select a model first.")
	assert.NotContains(t, res.err, "no model selected", "toasted errors are not printed twice")
}

func TestAsk_EmptyMessage(t *testing.T) {
	_, srv := newFakeAPI(t)
	setupHome(t, srv)
	login(t)

	res := run(t, "", "ask", "-m", "gpt", "   ")
	assert.Equal(t, ExitUsageError, res.code)
	assert.Contains(t, res.err, "Please enter a message or attach a file.")
}

func TestAsk_ServerFailure(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.chatFail = true
	setupHome(t, srv)
	login(t)

	res := run(t, "", "ask", "-m", "gpt", "hello")
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Empty(t, strings.TrimSpace(res.out))

	res = run(t, "", "conversations", "list")
	require.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.out, "No conversations yet.")
}

func TestAsk_AttachmentTooLarge(t *testing.T) {
	_, srv := newFakeAPI(t)
	home := setupHome(t, srv)
	login(t)

	big := filepath.Join(home, "big.bin")
	f, err := os.Create(big)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(session.MaxAttachmentSize+1))
	require.NoError(t, f.Close())

	res := run(t, "", "ask", "-m", "gpt", "-a", big, "look")
	assert.Equal(t, ExitUsageError, res.code)
	assert.Contains(t, res.err, "exceeds maximum size of 10MB")
}

// =============================================================================
// PROJECTS AND CONVERSATIONS
// =============================================================================

func TestProjectsLifecycle(t *testing.T) {
	f, srv := newFakeAPI(t)
	setupHome(t, srv)
	login(t)

	res := run(t, "", "projects", "create", "Research", "-d", "papers to read")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.err, "created successfully")

	res = run(t, "", "projects", "create", "research")
	assert.Equal(t, ExitUsageError, res.code)
	assert.Contains(t, res.err, "already exists")

	res = run(t, "", "ask", "-m", "gpt", "-p", "Research", "summarize")
	require.Equal(t, ExitSuccess, res.code, res.err)
	project := f.lastRequest()["project_id"]
	require.NotNil(t, project)

	res = run(t, "", "projects", "update", "Research", "--name", "Papers", "--instructions", "be brief")
	require.Equal(t, ExitSuccess, res.code, res.err)

	res = run(t, "", "projects", "list", "--json")
	require.Equal(t, ExitSuccess, res.code, res.err)
	var rows []projectRow
	decodeData(t, res.out, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Papers", rows[0].Name)
	assert.Equal(t, "papers to read", rows[0].Description, "unchanged flags keep their value")
	assert.Equal(t, "be brief", rows[0].Instructions)
	assert.Equal(t, 1, rows[0].Conversations)

	res = run(t, "", "projects", "delete", "Papers")
	assert.Equal(t, ExitUsageError, res.code, "non-interactive delete needs --yes")

	res = run(t, "", "projects", "delete", "Papers", "--yes")
	require.Equal(t, ExitSuccess, res.code, res.err)

	res = run(t, "", "conversations", "list", "--orphaned")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "summarize")
	assert.Contains(t, res.out, "(deleted ")

	res = run(t, "", "conversations", "list", "--global")
	require.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.out, "No conversations yet.")
}

func TestProjects_NotFound(t *testing.T) {
	_, srv := newFakeAPI(t)
	setupHome(t, srv)

	res := run(t, "", "projects", "show", "nothing-here")
	assert.Equal(t, ExitNotFoundError, res.code)
	assert.Contains(t, res.err, "nothing-here")
}

func TestConversations_ShowExportDelete(t *testing.T) {
	_, srv := newFakeAPI(t)
	home := setupHome(t, srv)
	login(t)

	res := run(t, "", "ask", "-m", "gpt", "What is Go?")
	require.Equal(t, ExitSuccess, res.code, res.err)

	res = run(t, "", "conversations", "show", "chat-42")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "You")
	assert.Contains(t, res.out, "Assistant")
	assert.Contains(t, res.out, "Hello world")

	out := filepath.Join(home, "export.md")
	res = run(t, "", "conversations", "export", "chat", "-o", out)
	require.Equal(t, ExitSuccess, res.code, res.err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "What is Go?")
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	res = run(t, "", "conversations", "export", "chat-42", "-f", "pdf")
	assert.Equal(t, ExitUsageError, res.code)

	res = run(t, "", "conversations", "delete", "chat-42", "--yes")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Conversation deleted.")

	res = run(t, "", "conversations", "show", "chat-42")
	assert.Equal(t, ExitNotFoundError, res.code)
}

func TestConversations_ClearRequiresYesInJSON(t *testing.T) {
	_, srv := newFakeAPI(t)
	setupHome(t, srv)

	res := run(t, "", "conversations", "clear", "--json")
	assert.Equal(t, ExitUsageError, res.code)
	assert.Contains(t, res.err, "--yes is required")

	res = run(t, "", "conversations", "clear", "--json", "--yes")
	assert.Equal(t, ExitSuccess, res.code, res.err)
}

// =============================================================================
// CHAT REPL
// =============================================================================

func TestChat_PipedSession(t *testing.T) {
	f, srv := newFakeAPI(t)
	setupHome(t, srv)
	login(t)

	script := strings.Join([]string{
		"/model claude",
		"first question",
		"follow up",
		"/list",
		"/thinking 11",
		"/bogus",
		"/quit",
		"never sent",
	}, "\n") + "\n"

	res := run(t, script, "chat")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Signed in as alice")
	assert.Contains(t, res.out, "Model: claude")
	assert.Equal(t, 2, strings.Count(res.out, "Hello world"))
	assert.Contains(t, res.out, "first question")
	assert.Contains(t, res.out, "250 / 1.0K tokens used")
	assert.Contains(t, res.err, "thinking level must be 0-10")
	assert.Contains(t, res.err, "unknown command /bogus")

	req := f.lastRequest()
	assert.Equal(t, "follow up", req["message"])
	assert.Equal(t, "claude", req["model"])
	assert.Equal(t, "chat-42", req["chat_id"], "the second message continues the conversation")
}

func TestChat_ProjectCommands(t *testing.T) {
	f, srv := newFakeAPI(t)
	setupHome(t, srv)
	login(t)

	script := strings.Join([]string{
		"/project new Notes",
		"for the notes project",
		"",
		"y",
		"hello",
		"/global",
		"/project",
	}, "\n") + "\n"

	res := run(t, script, "chat", "-m", "gpt")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.err, "created successfully")
	assert.NotNil(t, f.lastRequest()["project_id"])
	assert.Contains(t, res.out, "No project selected")
}

// pipeOpener streams whatever is written to the pipe.
type pipeOpener struct {
	body io.ReadCloser
}

func (o pipeOpener) OpenStream(ctx context.Context, path string, body any) (io.ReadCloser, error) {
	return o.body, nil
}

func TestReloadWhenIdle_WaitsForExchange(t *testing.T) {
	kv := store.NewMemoryKV()
	pr, pw := io.Pipe()
	mgr := session.NewManager(store.New(kv, nil), stream.NewConsumer(pipeOpener{body: pr}, nil), nil, nil)
	reload := reloadWhenIdle(mgr)

	done := make(chan stream.Outcome)
	go func() {
		done <- mgr.Send(context.Background(), "hi", session.SendOptions{Model: "gpt"}, nil)
	}()
	require.Eventually(t, mgr.State().InFlight, 5*time.Second, 5*time.Millisecond)

	external := store.New(kv, nil)
	require.NoError(t, external.SaveConversations([]model.Conversation{{ID: "from-elsewhere", Title: "Other"}}))

	reload()
	assert.Empty(t, mgr.AllConversations(), "no reload while a reply streams")

	pw.Close()
	require.Equal(t, stream.Completed, (<-done).Status)

	require.NoError(t, external.SaveConversations([]model.Conversation{{ID: "from-elsewhere", Title: "Other"}}))
	reload()
	require.Len(t, mgr.AllConversations(), 1)
	assert.Equal(t, "from-elsewhere", mgr.AllConversations()[0].ID)
}

func TestChat_RequiresLogin(t *testing.T) {
	_, srv := newFakeAPI(t)
	setupHome(t, srv)

	res := run(t, "", "chat")
	assert.Equal(t, ExitAuthError, res.code)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAdminUsersList(t *testing.T) {
	_, srv := newFakeAPI(t)
	setupHome(t, srv)
	login(t)

	res := run(t, "", "admin", "users", "list")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "alice")
	assert.Contains(t, res.out, "250 / 1,000 (25%)")
	assert.Contains(t, res.out, "bob")
	assert.Contains(t, res.out, "GPT")
	assert.Contains(t, res.out, "all")

	res = run(t, "", "admin", "users", "delete", "nobody", "--yes")
	assert.Equal(t, ExitNotFoundError, res.code)
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.role = "basic"
	setupHome(t, srv)
	login(t)

	res := run(t, "", "admin", "users", "list")
	assert.Equal(t, ExitAuthError, res.code)
	assert.Contains(t, res.err, "admin role required")
	assert.Zero(t, f.adminHits, "no admin endpoint is called")
}

func TestAdmin_RequiresLogin(t *testing.T) {
	_, srv := newFakeAPI(t)
	setupHome(t, srv)

	res := run(t, "", "admin", "users", "list")
	assert.Equal(t, ExitAuthError, res.code)
}

// =============================================================================
// CONFIG, API BASE, THEME
// =============================================================================

func TestConfigSetGet(t *testing.T) {
	home := setupHome(t, nil)

	res := run(t, "", "config", "set", "chat.default_model", "claude")
	require.Equal(t, ExitSuccess, res.code, res.err)

	res = run(t, "", "config", "get", "chat.default_model")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Equal(t, "claude\n", res.out)

	res = run(t, "", "config", "set", "chat.thinking_level", "42")
	assert.Equal(t, ExitConfigError, res.code)

	res = run(t, "", "config", "set", "chat.nope", "1")
	assert.Equal(t, ExitUsageError, res.code)

	res = run(t, "", "config", "path")
	assert.Equal(t, filepath.Join(home, "config.toml")+"\n", res.out)

	data, err := os.ReadFile(filepath.Join(home, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `default_model = "claude"`)
}

func TestAPIBaseOverride(t *testing.T) {
	setupHome(t, nil)

	res := run(t, "", "api-base")
	assert.Equal(t, config.DefaultAPIBase+"\n", res.out)

	res = run(t, "", "api-base", "https://chat.example.com")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "https://chat.example.com/api")
	assert.Contains(t, res.out, "(override)")

	res = run(t, "", "api-base", "ftp://nope")
	assert.Equal(t, ExitUsageError, res.code)

	res = run(t, "", "api-base", "--clear")
	assert.Equal(t, config.DefaultAPIBase+"\n", res.out)
}

func TestThemeToggle(t *testing.T) {
	setupHome(t, nil)

	res := run(t, "", "theme", "dark")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Equal(t, "dark\n", res.out)

	res = run(t, "", "theme", "toggle")
	assert.Equal(t, "light\n", res.out)

	res = run(t, "", "theme")
	assert.Equal(t, "light\n", res.out)

	res = run(t, "", "theme", "sepia")
	assert.Equal(t, ExitUsageError, res.code)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"unauthorized", api.ErrUnauthorized, ExitAuthError},
		{"usage", usageErrorf("bad"), ExitUsageError},
		{"validation", api.ValidateCredentials("", ""), ExitUsageError},
		{"project", &session.ProjectError{Field: "name", Message: "x"}, ExitUsageError},
		{"not found", &NotFoundError{Resource: "project", Ref: "x"}, ExitNotFoundError},
		{"conversation sentinel", session.ErrConversationNotFound, ExitNotFoundError},
		{"transport", &api.TransportError{Err: errors.New("refused")}, ExitNetworkError},
		{"config", config.ValidateErrors{{Field: "a", Message: "b"}}, ExitConfigError},
		{"reported keeps type", reported(session.ErrNoModel), ExitUsageError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError_SkipsReported(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, nil, reported(errors.New("already shown")), false)
	assert.Empty(t, buf.String())

	DisplayError(&buf, nil, reported(errors.New("already shown")), true)
	assert.Contains(t, buf.String(), "already shown")
}

func TestBestMatch(t *testing.T) {
	i, ok := bestMatch("rust", []string{"Go memory model", "Rust lifetimes", "Python typing"})
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = bestMatch("zzz", []string{"abc"})
	assert.False(t, ok)

	_, ok = bestMatch("go", []string{"go", "go"})
	assert.False(t, ok, "ties are ambiguous")
}

func asciiTheme() *styles.Theme {
	th := styles.NewThemeWithProfile(styles.ModeDark, termenv.Ascii, true)
	th.Apply()
	return th
}

func TestTable_AlignsWideRunes(t *testing.T) {
	var buf bytes.Buffer
	tbl := newTable("ID", "TITLE")
	tbl.Row("1", "日本語")
	tbl.Row("22", "abc")
	tbl.Render(&buf, asciiTheme())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID  TITLE", lines[0])
	assert.Equal(t, "1   日本語", lines[1])
	assert.Equal(t, "22  abc", lines[2])
}
