// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jeranaias/chatdesk/internal/api"
	"github.com/jeranaias/chatdesk/internal/stream"
)

// MaxMessageLength is the longest message, in runes after trimming.
const MaxMessageLength = 50000

// SendOptions are the per-message choices.
type SendOptions struct {
	Model         string
	ThinkingLevel int
}

// ValidateMessage checks a message before sending. An empty message is
// allowed when files are attached.
func ValidateMessage(text string, attachments int) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && attachments == 0 {
		return &MessageError{Message: "Please enter a message or attach a file."}
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return &MessageError{Message: "Message is too long (max 50,000 characters)."}
	}
	return nil
}

// =============================================================================
// SEND
// =============================================================================

// Send runs one exchange and blocks until it ends, calling sink with every
// snapshot of the growing reply. The exchange is recorded only when it
// completes.
//
// If an exchange is already in flight, Send cancels it instead of starting
// a new one and returns an Aborted outcome.
func (m *Manager) Send(ctx context.Context, text string, opts SendOptions, sink func(stream.Snapshot)) stream.Outcome {
	if m.state.InFlight() {
		m.Stop()
		return stream.Outcome{Status: stream.Aborted}
	}

	if err := ValidateMessage(text, len(m.state.Attachments())); err != nil {
		m.notifier.Warning(err.Error(), WarningDuration)
		return stream.Outcome{Status: stream.Failed, Err: err}
	}
	if strings.TrimSpace(opts.Model) == "" {
		m.notifier.Warning("Please select a model first.", WarningDuration)
		return stream.Outcome{Status: stream.Failed, Err: ErrNoModel}
	}

	userText := strings.TrimSpace(text)
	prevID := m.state.ConversationID()

	ctx, cancel := context.WithCancel(ctx)
	if !m.state.begin(cancel) {
		// Lost a race with another send; begin stopped that one.
		cancel()
		return stream.Outcome{Status: stream.Aborted}
	}
	// RELIABILITY: the in-flight flag is released on every exit path.
	defer m.state.end()

	files, quote := m.state.takePending()
	req := stream.Request{
		Message:       userText,
		Model:         opts.Model,
		ThinkingLevel: opts.ThinkingLevel,
		ChatID:        prevID,
		ProjectID:     m.state.ProjectID(),
		Quote:         quote,
	}
	m.logger.Debug("sending message",
		zap.String("model", opts.Model),
		zap.Int("runes", utf8.RuneCountInString(userText)),
		zap.Int("attachments", len(files)),
		zap.Bool("quote", quote != ""))

	ex := m.streamer.Start(ctx, req)
	for snap := range ex.Snapshots() {
		if snap.ChatID != "" {
			m.state.assignConversation(snap.ChatID)
		}
		if sink != nil {
			sink(snap)
		}
	}
	out := ex.Wait()

	switch out.Status {
	case stream.Completed:
		if out.ChatID != "" {
			m.state.assignConversation(out.ChatID)
		}
		if _, err := m.RecordExchange(userText, out.Text); err != nil {
			out.Err = err
		}
	case stream.Aborted:
		m.state.setConversation(prevID)
		m.notifier.Info(MessageStoppedText, InfoDuration)
	case stream.Failed:
		m.state.setConversation(prevID)
		m.notifier.Error(failureMessage(out.Err), ErrorDuration)
		m.logger.Warn("exchange failed", zap.Error(out.Err))
	}
	return out
}

// failureMessage is the short text shown for a failed exchange.
func failureMessage(err error) string {
	switch {
	case err == nil:
		return "Failed to send message."
	case errors.Is(err, api.ErrUnauthorized):
		return "Session expired. Please log in again."
	}
	var te *api.TransportError
	if errors.As(err, &te) {
		return "Unable to reach the server."
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "Failed to send message."
}

// Stop cancels the in-flight exchange. It reports whether one was running.
func (m *Manager) Stop() bool {
	return m.state.abort()
}

// =============================================================================
// PENDING ATTACHMENTS AND QUOTE
// =============================================================================

// Attach adds files to the next message. Every path must be a regular file
// of at most MaxAttachmentSize; otherwise none are added.
func (m *Manager) Attach(paths ...string) ([]Attachment, error) {
	files := make([]Attachment, 0, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		info, err := os.Stat(p)
		if err != nil {
			aerr := &AttachmentError{Name: name, Message: fmt.Sprintf("Cannot attach %q.", name), Err: err}
			m.notifier.Error(aerr.Message, ErrorDuration)
			return nil, aerr
		}
		if !info.Mode().IsRegular() {
			aerr := &AttachmentError{Name: name, Message: fmt.Sprintf("%q is not a file.", name)}
			m.notifier.Error(aerr.Message, ErrorDuration)
			return nil, aerr
		}
		if info.Size() > MaxAttachmentSize {
			aerr := &AttachmentError{Name: name, Message: fmt.Sprintf("File %q exceeds maximum size of 10MB.", name)}
			m.notifier.Error(aerr.Message, ErrorDuration)
			return nil, aerr
		}
		files = append(files, Attachment{Name: name, Path: p, Size: info.Size()})
	}

	if len(files) == 0 {
		return nil, nil
	}
	m.state.addAttachments(files)
	m.notifier.Success(fmt.Sprintf("%d file(s) attached successfully.", len(files)), SuccessDuration)
	return files, nil
}

// RemoveAttachment drops the pending attachment at index i.
func (m *Manager) RemoveAttachment(i int) bool {
	return m.state.removeAttachment(i)
}

// ClearAttachments drops every pending attachment.
func (m *Manager) ClearAttachments() {
	m.state.takeAttachments()
}

// SetQuote sets the quoted text sent with the next message. Blank text
// clears it.
func (m *Manager) SetQuote(text string) {
	m.state.setQuote(strings.TrimSpace(text))
}

// ClearQuote drops the pending quote.
func (m *Manager) ClearQuote() {
	m.state.setQuote("")
}

// Scope describes the active scope for display.
func (m *Manager) Scope() string {
	if p, ok := m.CurrentProject(); ok {
		return p.Name
	}
	if id := m.state.ProjectID(); id != nil {
		return "Unknown project"
	}
	return "No project selected"
}

// Title is the active conversation's title, or "New conversation".
func (m *Manager) Title() string {
	if c, ok := m.CurrentConversation(); ok {
		return c.Title
	}
	return "New conversation"
}

var _ Streamer = (*stream.Consumer)(nil)
