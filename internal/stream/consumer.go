// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultPath is the chat endpoint.
const DefaultPath = "/chat"

// ErrBusy is returned when an exchange starts while another is running on
// the same Consumer.
var ErrBusy = errors.New("an exchange is already in flight")

// Opener starts a streaming POST. *api.Client satisfies it.
type Opener interface {
	OpenStream(ctx context.Context, path string, body any) (io.ReadCloser, error)
}

// Request is the chat request body. Unset ids serialize as null.
type Request struct {
	Message       string  `json:"message"`
	Model         string  `json:"model"`
	ThinkingLevel int     `json:"thinking_level"`
	ChatID        *string `json:"chat_id"`
	ProjectID     *string `json:"project_id"`
	Quote         string  `json:"quote,omitempty"`
}

// =============================================================================
// OUTCOME
// =============================================================================

// Status is how an exchange ended.
type Status int

const (
	// Completed means the body ended normally.
	Completed Status = iota
	// Aborted means the context was cancelled. It is not an error.
	Aborted
	// Failed means a non-2xx response or a transport failure.
	Failed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Snapshot is the reply as it stands after an event.
type Snapshot struct {
	// Text is the full accumulated reply.
	Text string
	// ChatID is the conversation id, from the request or the server.
	ChatID string
}

// Outcome is the result of an exchange.
type Outcome struct {
	Status Status
	// Text is the full reply. Empty unless Completed.
	Text string
	// ChatID is the conversation id known when the exchange ended.
	ChatID string
	// Err is set when Status is Failed.
	Err error
}

// Message is a short user-facing description of a failure.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	if msg := strings.TrimSpace(o.Err.Error()); msg != "" {
		return msg
	}
	return "Failed to send message."
}

// =============================================================================
// CONSUMER
// =============================================================================

// Consumer opens chat streams and folds their events into a reply. At most
// one exchange runs at a time.
type Consumer struct {
	opener   Opener
	path     string
	logger   *zap.Logger
	inFlight atomic.Bool
}

// NewConsumer creates a consumer that posts to DefaultPath.
func NewConsumer(opener Opener, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{opener: opener, path: DefaultPath, logger: logger}
}

// WithPath changes the endpoint path.
func (c *Consumer) WithPath(path string) *Consumer {
	c.path = path
	return c
}

// InFlight reports whether an exchange is running.
func (c *Consumer) InFlight() bool {
	return c.inFlight.Load()
}

// Run performs one exchange and blocks until it ends. sink, when non-nil,
// receives a snapshot after every event that appended content.
func (c *Consumer) Run(ctx context.Context, req Request, sink func(Snapshot)) Outcome {
	if !c.inFlight.CompareAndSwap(false, true) {
		return Outcome{Status: Failed, Err: ErrBusy}
	}
	// RELIABILITY: released on every exit path, including panics in sink.
	defer c.inFlight.Store(false)

	return c.consume(ctx, req, sink)
}

// Start runs an exchange in the background. Cancel ctx, or call
// Exchange.Cancel, to abort it.
func (c *Consumer) Start(ctx context.Context, req Request) *Exchange {
	ctx, cancel := context.WithCancel(ctx)
	ex := &Exchange{
		snapshots: make(chan Snapshot, 1),
		done:      make(chan struct{}),
		cancel:    cancel,
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		cancel()
		close(ex.snapshots)
		ex.outcome = Outcome{Status: Failed, Err: ErrBusy}
		close(ex.done)
		return ex
	}

	go func() {
		defer close(ex.done)
		defer cancel()
		defer c.inFlight.Store(false)
		defer close(ex.snapshots)

		ex.outcome = c.consume(ctx, req, ex.publish)
	}()
	return ex
}

// consume opens the stream and reads it to the end.
func (c *Consumer) consume(ctx context.Context, req Request, emit func(Snapshot)) Outcome {
	chatID := ""
	if req.ChatID != nil {
		chatID = *req.ChatID
	}

	if ctx.Err() != nil {
		return Outcome{Status: Aborted, ChatID: chatID}
	}

	body, err := c.opener.OpenStream(ctx, c.path, req)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Status: Aborted, ChatID: chatID}
		}
		c.logger.Debug("chat stream failed to open", zap.Error(err))
		return Outcome{Status: Failed, ChatID: chatID, Err: err}
	}
	defer body.Close()

	// Unblock a pending Read when the context ends.
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	var text strings.Builder
	lines := NewLineReader(body)
	for {
		line, err := lines.ReadLine()
		if errors.Is(err, ErrLineTooLong) {
			c.logger.Warn("skipping oversized stream line")
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{Status: Aborted, ChatID: chatID}
			}
			if errors.Is(err, io.EOF) {
				return Outcome{Status: Completed, Text: text.String(), ChatID: chatID}
			}
			c.logger.Debug("chat stream read failed", zap.Error(err))
			return Outcome{Status: Failed, ChatID: chatID, Err: fmt.Errorf("read stream: %w", err)}
		}

		ev, ok, perr := ParseLine(line)
		if perr != nil {
			c.logger.Debug("skipping malformed stream event", zap.Error(perr))
			continue
		}
		if !ok {
			continue
		}

		if ev.ChatID != "" && chatID == "" {
			chatID = ev.ChatID
		}
		// Only appended content reaches the sink.
		if ev.Content == "" {
			continue
		}
		text.WriteString(ev.Content)
		if emit != nil {
			emit(Snapshot{Text: text.String(), ChatID: chatID})
		}
	}
}

// =============================================================================
// EXCHANGE
// =============================================================================

// Exchange is a running stream.
type Exchange struct {
	snapshots chan Snapshot
	done      chan struct{}
	cancel    context.CancelFunc
	outcome   Outcome
}

// Snapshots delivers the latest reply state. Intermediate snapshots are
// dropped when the reader falls behind; each snapshot holds the full text,
// so nothing is lost. The channel closes when the exchange ends.
func (e *Exchange) Snapshots() <-chan Snapshot {
	return e.snapshots
}

// publish replaces any unread snapshot with s. Only the exchange goroutine
// sends, so the second send cannot block.
func (e *Exchange) publish(s Snapshot) {
	select {
	case e.snapshots <- s:
	default:
		select {
		case <-e.snapshots:
		default:
		}
		e.snapshots <- s
	}
}

// Cancel aborts the exchange.
func (e *Exchange) Cancel() {
	e.cancel()
}

// Done is closed when the exchange has ended.
func (e *Exchange) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the exchange ends and returns its outcome.
func (e *Exchange) Wait() Outcome {
	<-e.done
	return e.outcome
}
