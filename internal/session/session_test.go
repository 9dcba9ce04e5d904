// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/store"
	"github.com/jeranaias/chatdesk/internal/stream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// TEST DOUBLES
// =============================================================================

type note struct {
	Level   string
	Message string
	D       time.Duration
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (r *recordingNotifier) add(level, msg string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{level, msg, d})
}

func (r *recordingNotifier) Success(m string, d time.Duration) { r.add("success", m, d) }
func (r *recordingNotifier) Error(m string, d time.Duration)   { r.add("error", m, d) }
func (r *recordingNotifier) Warning(m string, d time.Duration) { r.add("warning", m, d) }
func (r *recordingNotifier) Info(m string, d time.Duration)    { r.add("info", m, d) }

func (r *recordingNotifier) last() note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return note{}
	}
	return r.notes[len(r.notes)-1]
}

// scriptedOpener replies with a body produced per request.
type scriptedOpener struct {
	mu       sync.Mutex
	requests []stream.Request
	respond  func(req stream.Request) (io.ReadCloser, error)
}

func (s *scriptedOpener) OpenStream(ctx context.Context, path string, body any) (io.ReadCloser, error) {
	req := body.(stream.Request)
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.respond(req)
}

func (s *scriptedOpener) lastRequest() stream.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func replyWith(lines ...string) func(stream.Request) (io.ReadCloser, error) {
	return func(stream.Request) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(strings.Join(lines, "\n") + "\n")), nil
	}
}

type fixture struct {
	mgr    *Manager
	store  *store.Store
	notes  *recordingNotifier
	opener *scriptedOpener
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(store.NewMemoryKV(), nil)
	notes := &recordingNotifier{}
	opener := &scriptedOpener{respond: replyWith(`data: {"content":"ok"}`)}

	var tick model.Timestamp = 1000
	mgr := NewManager(st, stream.NewConsumer(opener, nil), notes, nil).
		WithClock(func() model.Timestamp {
			tick += 10
			return tick
		})
	return &fixture{mgr: mgr, store: st, notes: notes, opener: opener}
}

func ids(convs []model.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestRecordExchange_NewThenAppend(t *testing.T) {
	f := newFixture(t)

	first, err := f.mgr.RecordExchange("hello there", "hi")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ID, "chat-"))
	assert.Equal(t, "hello there", first.Title)
	require.NotNil(t, f.mgr.State().ConversationID())

	f.mgr.StartNewConversation()
	second, err := f.mgr.RecordExchange("another", "reply")
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, ids(f.mgr.AllConversations()))

	_, ok := f.mgr.SelectConversation(first.ID)
	require.True(t, ok)
	updated, err := f.mgr.RecordExchange("follow up", "sure")
	require.NoError(t, err)

	assert.Equal(t, []string{first.ID, second.ID}, ids(f.mgr.AllConversations()), "updated conversation moves to the front")
	assert.Len(t, updated.Messages, 4)
	assert.Greater(t, updated.UpdatedAt, first.UpdatedAt)
	assert.Equal(t, "hello there", updated.Title, "title comes from the first message")

	if diff := cmp.Diff(f.mgr.AllConversations(), f.store.Conversations()); diff != "" {
		t.Errorf("stored collection differs (-mem +stored):\n%s", diff)
	}
}

func TestRecordExchange_TitleTruncated(t *testing.T) {
	f := newFixture(t)
	conv, err := f.mgr.RecordExchange(strings.Repeat("é", 60), "x")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 50)+"...", conv.Title)
}

func TestRecordExchange_UsesProjectScope(t *testing.T) {
	f := newFixture(t)
	p, err := f.mgr.CreateProject(ProjectInput{Name: "Alpha"})
	require.NoError(t, err)

	conv, err := f.mgr.RecordExchange("q", "a")
	require.NoError(t, err)
	require.NotNil(t, conv.ProjectID)
	assert.Equal(t, p.ID, *conv.ProjectID)
}

func TestListConversations_FilterKeepsStoredOrder(t *testing.T) {
	a := "A"
	st := store.New(store.NewMemoryKV(), nil)
	require.NoError(t, st.SaveConversations([]model.Conversation{
		{ID: "1", ProjectID: &a},
		{ID: "2"},
		{ID: "3", ProjectID: &a},
	}))
	mgr := NewManager(st, nil, nil, nil)

	assert.Equal(t, []string{"1", "3"}, ids(mgr.ListConversations(&a)))
	assert.Equal(t, []string{"2"}, ids(mgr.ListConversations(nil)))
	assert.Empty(t, mgr.ListConversations(model.StringPtr("B")))
}

func TestSelectConversation(t *testing.T) {
	f := newFixture(t)
	p, err := f.mgr.CreateProject(ProjectInput{Name: "Scoped"})
	require.NoError(t, err)
	conv, err := f.mgr.RecordExchange("q", "a")
	require.NoError(t, err)

	f.mgr.SelectGlobal()
	before := f.mgr.State().Snapshot()

	_, ok := f.mgr.SelectConversation("missing")
	assert.False(t, ok)
	assert.Equal(t, before, f.mgr.State().Snapshot(), "unknown id is a no-op")

	got, ok := f.mgr.SelectConversation(conv.ID)
	require.True(t, ok)
	assert.Equal(t, conv.Messages, got.Messages)
	assert.Equal(t, conv.ID, *f.mgr.State().ConversationID())
	assert.Equal(t, p.ID, *f.mgr.State().ProjectID())
}

func TestDeleteConversation(t *testing.T) {
	f := newFixture(t)
	keep, _ := f.mgr.RecordExchange("keep", "a")
	f.mgr.StartNewConversation()
	active, _ := f.mgr.RecordExchange("active", "b")

	require.NoError(t, f.mgr.DeleteConversation(active.ID))
	assert.Nil(t, f.mgr.State().ConversationID(), "deleting the active conversation starts a new one")
	assert.Equal(t, []string{keep.ID}, ids(f.store.Conversations()))

	assert.ErrorIs(t, f.mgr.DeleteConversation("missing"), ErrConversationNotFound)
}

func TestClearHistory(t *testing.T) {
	f := newFixture(t)
	f.mgr.RecordExchange("a", "b")
	require.NoError(t, f.mgr.ClearHistory())
	assert.Empty(t, f.mgr.AllConversations())
	assert.Empty(t, f.store.Conversations())
	assert.Nil(t, f.mgr.State().ConversationID())
}

func TestReload(t *testing.T) {
	f := newFixture(t)
	conv, _ := f.mgr.RecordExchange("a", "b")

	// Another process empties the store.
	require.NoError(t, f.store.SaveConversations(nil))
	f.mgr.Reload()

	assert.Empty(t, f.mgr.AllConversations())
	assert.Nil(t, f.mgr.State().ConversationID(), "vanished active conversation is cleared")
	_, ok := f.mgr.Conversation(conv.ID)
	assert.False(t, ok)
}

// =============================================================================
// PROJECT TESTS
// =============================================================================

func TestValidateProjectName(t *testing.T) {
	existing := []model.Project{{ID: "p1", Name: "Research"}}
	tests := []struct {
		name    string
		exclude string
		wantErr bool
	}{
		{"", "", true},
		{"   ", "", true},
		{"a", "", true},
		{" ab ", "", false},
		{strings.Repeat("x", 100), "", false},
		{strings.Repeat("x", 101), "", true},
		{"RESEARCH", "", true},
		{" research ", "p1", false},
		{"research", "p2", true},
	}
	for _, tt := range tests {
		err := ValidateProjectName(tt.name, existing, tt.exclude)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateProjectName(%q, exclude=%q) error = %v, wantErr %v", tt.name, tt.exclude, err, tt.wantErr)
		}
		if err != nil {
			var pe *ProjectError
			assert.True(t, errors.As(err, &pe))
		}
	}
}

func TestCreateProject(t *testing.T) {
	f := newFixture(t)
	f.mgr.RecordExchange("before", "x")

	p, err := f.mgr.CreateProject(ProjectInput{Name: "  Alpha  ", Description: " d ", Instructions: " be brief "})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Name)
	assert.Equal(t, "d", p.Description)
	assert.Equal(t, "be brief", p.Instructions)
	assert.True(t, strings.HasPrefix(p.ID, "proj-"))

	assert.Equal(t, p.ID, *f.mgr.State().ProjectID())
	assert.Nil(t, f.mgr.State().ConversationID(), "creating a project starts a new conversation")
	assert.Equal(t, note{"success", `Project "Alpha" created successfully.`, 3 * time.Second}, f.notes.last())
	assert.Equal(t, []model.Project{p}, f.store.Projects())

	_, err = f.mgr.CreateProject(ProjectInput{Name: "alpha"})
	require.Error(t, err)
	assert.Equal(t, "warning", f.notes.last().Level)
	assert.Equal(t, 4*time.Second, f.notes.last().D)
	assert.Len(t, f.store.Projects(), 1)
}

func TestUpdateProject(t *testing.T) {
	f := newFixture(t)
	a, _ := f.mgr.CreateProject(ProjectInput{Name: "Alpha"})
	_, _ = f.mgr.CreateProject(ProjectInput{Name: "Beta"})

	got, err := f.mgr.UpdateProject(a.ID, ProjectInput{Name: "ALPHA", Instructions: "new"})
	require.NoError(t, err, "renaming to its own name in another case is allowed")
	assert.Equal(t, "ALPHA", got.Name)
	assert.Equal(t, "Project settings updated successfully.", f.notes.last().Message)

	_, err = f.mgr.UpdateProject(a.ID, ProjectInput{Name: "beta"})
	var pe *ProjectError
	assert.ErrorAs(t, err, &pe)

	_, err = f.mgr.UpdateProject("nope", ProjectInput{Name: "Gamma"})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestDeleteProject_NoCascade(t *testing.T) {
	f := newFixture(t)
	p, _ := f.mgr.CreateProject(ProjectInput{Name: "Doomed"})
	conv, _ := f.mgr.RecordExchange("q", "a")

	require.NoError(t, f.mgr.DeleteProject(p.ID))
	assert.Nil(t, f.mgr.State().ProjectID())
	assert.Equal(t, `"Doomed" deleted successfully.`, f.notes.last().Message)

	kept, ok := f.mgr.Conversation(conv.ID)
	require.True(t, ok, "conversations survive project deletion")
	assert.Equal(t, p.ID, *kept.ProjectID, "project reference is left dangling")

	assert.Empty(t, f.mgr.ListConversations(nil))
	assert.Equal(t, []string{conv.ID}, ids(f.mgr.OrphanedConversations()))

	assert.ErrorIs(t, f.mgr.DeleteProject(p.ID), ErrProjectNotFound)
}

func TestSelectProjectAndGlobal(t *testing.T) {
	f := newFixture(t)
	p, _ := f.mgr.CreateProject(ProjectInput{Name: "One"})
	f.mgr.SelectGlobal()
	assert.Nil(t, f.mgr.State().ProjectID())
	assert.Equal(t, "No project selected", f.mgr.Scope())

	f.mgr.RecordExchange("q", "a")
	require.NoError(t, f.mgr.SelectProject(p.ID))
	assert.Equal(t, p.ID, *f.mgr.State().ProjectID())
	assert.Nil(t, f.mgr.State().ConversationID())
	assert.Equal(t, "One", f.mgr.Scope())

	assert.ErrorIs(t, f.mgr.SelectProject("missing"), ErrProjectNotFound)

	found, ok := f.mgr.FindProject("ONE")
	assert.True(t, ok)
	assert.Equal(t, p.ID, found.ID)
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSend_CompletesAndRecords(t *testing.T) {
	f := newFixture(t)
	f.opener.respond = replyWith(
		`data: {"content":"Hel","chat_id":"srv-9"}`,
		`data: {"content":"lo"}`,
		`data: [DONE]`,
	)
	f.mgr.SetQuote("  quoted  ")

	var texts []string
	out := f.mgr.Send(context.Background(), "  hi  ", SendOptions{Model: "m", ThinkingLevel: 3}, func(s stream.Snapshot) {
		texts = append(texts, s.Text)
	})

	require.Equal(t, stream.Completed, out.Status)
	assert.NoError(t, out.Err)
	assert.NotEmpty(t, texts)
	assert.Equal(t, "Hello", texts[len(texts)-1])
	assert.False(t, f.mgr.State().InFlight())

	req := f.opener.lastRequest()
	assert.Equal(t, "hi", req.Message)
	assert.Equal(t, 3, req.ThinkingLevel)
	assert.Nil(t, req.ChatID)
	assert.Equal(t, "quoted", req.Quote)
	assert.Empty(t, f.mgr.State().Quote(), "quote is cleared on send")

	conv, ok := f.mgr.CurrentConversation()
	require.True(t, ok)
	assert.Equal(t, "srv-9", conv.ID, "server chat id becomes the conversation id")
	assert.Equal(t, []model.Message{model.UserMessage("hi"), model.AssistantMessage("Hello")}, conv.Messages)

	f.mgr.Send(context.Background(), "again", SendOptions{Model: "m"}, nil)
	assert.Equal(t, "srv-9", *f.opener.lastRequest().ChatID)
}

func TestSend_RequestBodyShape(t *testing.T) {
	f := newFixture(t)
	f.mgr.Send(context.Background(), "hi", SendOptions{Model: "m"}, nil)

	data, err := json.Marshal(f.opener.lastRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"hi","model":"m","thinking_level":0,"chat_id":null,"project_id":null}`, string(data))
}

func TestSend_Validation(t *testing.T) {
	f := newFixture(t)

	out := f.mgr.Send(context.Background(), "   ", SendOptions{Model: "m"}, nil)
	var me *MessageError
	require.ErrorAs(t, out.Err, &me)
	assert.Equal(t, note{"warning", "Please enter a message or attach a file.", 4 * time.Second}, f.notes.last())

	out = f.mgr.Send(context.Background(), strings.Repeat("x", MaxMessageLength+1), SendOptions{Model: "m"}, nil)
	require.ErrorAs(t, out.Err, &me)
	assert.Equal(t, "Message is too long (max 50,000 characters).", f.notes.last().Message)

	out = f.mgr.Send(context.Background(), "hi", SendOptions{}, nil)
	assert.ErrorIs(t, out.Err, ErrNoModel)
	assert.Equal(t, "Please select a model first.", f.notes.last().Message)

	assert.Empty(t, f.opener.requests)
	assert.False(t, f.mgr.State().InFlight())
}

func TestSend_AttachmentOnlyIsValid(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0600))

	_, err := f.mgr.Attach(path)
	require.NoError(t, err)
	assert.Equal(t, "1 file(s) attached successfully.", f.notes.last().Message)

	out := f.mgr.Send(context.Background(), "", SendOptions{Model: "m"}, nil)
	assert.Equal(t, stream.Completed, out.Status)
	assert.Empty(t, f.mgr.State().Attachments(), "attachments are cleared on send")
}

func TestSend_FailureNotifies(t *testing.T) {
	f := newFixture(t)
	f.opener.respond = func(stream.Request) (io.ReadCloser, error) {
		return nil, errors.New("quota exceeded")
	}

	out := f.mgr.Send(context.Background(), "hi", SendOptions{Model: "m"}, nil)
	assert.Equal(t, stream.Failed, out.Status)
	assert.Equal(t, note{"error", "quota exceeded", 5 * time.Second}, f.notes.last())
	assert.False(t, f.mgr.State().InFlight())
	assert.Empty(t, f.mgr.AllConversations())
}

func TestSend_StopDiscardsPartial(t *testing.T) {
	f := newFixture(t)
	existing, _ := f.mgr.RecordExchange("earlier", "reply")
	before := f.store.Conversations()

	pr, pw := io.Pipe()
	defer pw.Close()
	f.opener.respond = func(stream.Request) (io.ReadCloser, error) { return pr, nil }

	done := make(chan stream.Outcome)
	go func() {
		done <- f.mgr.Send(context.Background(), "new question", SendOptions{Model: "m"}, nil)
	}()

	require.Eventually(t, f.mgr.State().InFlight, 5*time.Second, 5*time.Millisecond)
	assert.True(t, f.mgr.Stop())

	out := <-done
	assert.Equal(t, stream.Aborted, out.Status)
	assert.Equal(t, note{"info", "Message sending was stopped.", 3 * time.Second}, f.notes.last())
	assert.False(t, f.mgr.State().InFlight())
	assert.Equal(t, existing.ID, *f.mgr.State().ConversationID())

	if diff := cmp.Diff(before, f.store.Conversations()); diff != "" {
		t.Errorf("aborted exchange changed stored conversations:\n%s", diff)
	}
}

func TestSend_WhileInFlightCancels(t *testing.T) {
	f := newFixture(t)
	pr, pw := io.Pipe()
	defer pw.Close()
	f.opener.respond = func(stream.Request) (io.ReadCloser, error) { return pr, nil }

	done := make(chan stream.Outcome)
	go func() {
		done <- f.mgr.Send(context.Background(), "first", SendOptions{Model: "m"}, nil)
	}()
	require.Eventually(t, f.mgr.State().InFlight, 5*time.Second, 5*time.Millisecond)

	second := f.mgr.Send(context.Background(), "second", SendOptions{Model: "m"}, nil)
	assert.Equal(t, stream.Aborted, second.Status)

	assert.Equal(t, stream.Aborted, (<-done).Status)
	assert.Len(t, f.opener.requests, 1, "the second send does not start a request")
}

func TestState_BeginWhileInFlightCancelsRunning(t *testing.T) {
	var s State
	firstCtx, firstCancel := context.WithCancel(context.Background())
	defer firstCancel()
	require.True(t, s.begin(firstCancel))

	_, secondCancel := context.WithCancel(context.Background())
	defer secondCancel()
	assert.False(t, s.begin(secondCancel))
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled, "the running exchange is stopped")
	assert.True(t, s.InFlight(), "the flag stays set until the running exchange ends")

	s.end()
	assert.False(t, s.InFlight())
}

func TestStop_NothingInFlight(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.mgr.Stop())
}

// =============================================================================
// ATTACHMENT TESTS
// =============================================================================

func TestAttach_RejectsLargeFile(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	small := filepath.Join(dir, "small.txt")
	big := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(small, []byte("x"), 0600))

	fh, err := os.Create(big)
	require.NoError(t, err)
	require.NoError(t, fh.Truncate(MaxAttachmentSize+1))
	require.NoError(t, fh.Close())

	_, err = f.mgr.Attach(small, big)
	var ae *AttachmentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, `File "big.bin" exceeds maximum size of 10MB.`, ae.Error())
	assert.Equal(t, "error", f.notes.last().Level)
	assert.Empty(t, f.mgr.State().Attachments(), "nothing is attached when any file is rejected")

	_, err = f.mgr.Attach(dir)
	require.ErrorAs(t, err, &ae)
	_, err = f.mgr.Attach(filepath.Join(dir, "missing"))
	require.ErrorAs(t, err, &ae)
}

func TestAttachmentsManagement(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.txt", "b.txt"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0600))
		paths = append(paths, p)
	}

	files, err := f.mgr.Attach(paths...)
	require.NoError(t, err)
	assert.Equal(t, "a.txt (5 B)", files[0].String())

	assert.True(t, f.mgr.RemoveAttachment(0))
	assert.False(t, f.mgr.RemoveAttachment(5))
	require.Len(t, f.mgr.State().Attachments(), 1)
	assert.Equal(t, "b.txt", f.mgr.State().Attachments()[0].Name)

	f.mgr.ClearAttachments()
	assert.Empty(t, f.mgr.State().Attachments())
}
