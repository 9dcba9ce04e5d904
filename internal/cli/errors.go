// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling shared by every chatdesk command.
//
// STANDARDIZED PATTERN:
//   - Commands always return errors; Execute decides how to display them
//   - Exit codes come from the error's type, never from its text
//   - Errors already shown to the user (as a toast) are wrapped in
//     reportedError so they are not printed twice

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/chatdesk/internal/api"
	"github.com/jeranaias/chatdesk/internal/config"
	"github.com/jeranaias/chatdesk/internal/session"
	"github.com/jeranaias/chatdesk/internal/ui/styles"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
	ExitInterrupted   = 130
)

// ErrAdminRequired is returned when a non-admin runs an admin command.
var ErrAdminRequired = errors.New("admin role required")

// SessionExpiredText is shown when the server rejects the stored token.
const SessionExpiredText = "Session expired, run chatdesk login"

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError is a bad flag or argument combination.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError is an unknown conversation, project or user reference.
type NotFoundError struct {
	Resource string
	Ref      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Ref)
}

// reportedError marks an error the user has already seen.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usageErr    *UsageError
		validErr    *api.ValidationError
		projectErr  *session.ProjectError
		messageErr  *session.MessageError
		attachErr   *session.AttachmentError
		notFoundErr *NotFoundError
		transport   *api.TransportError
		cfgErrs     config.ValidateErrors
	)

	switch {
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrNoToken),
		errors.Is(err, ErrAdminRequired):
		return ExitAuthError
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.As(err, &usageErr), errors.As(err, &validErr),
		errors.As(err, &projectErr), errors.As(err, &messageErr),
		errors.As(err, &attachErr), errors.Is(err, session.ErrNoModel):
		return ExitUsageError
	case errors.As(err, &notFoundErr),
		errors.Is(err, session.ErrConversationNotFound),
		errors.Is(err, session.ErrProjectNotFound):
		return ExitNotFoundError
	case errors.As(err, &transport):
		return ExitNetworkError
	case errors.As(err, &cfgErrs):
		return ExitConfigError
	}
	return ExitGeneralError
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w. Unauthorized errors get the login hint;
// reported errors are skipped.
func DisplayError(w io.Writer, theme *styles.Theme, err error, jsonMode bool) {
	if err == nil {
		return
	}
	var rep *reportedError
	if errors.As(err, &rep) && !jsonMode {
		return
	}

	msg := err.Error()
	if errors.Is(err, api.ErrUnauthorized) {
		msg = SessionExpiredText
	}

	if jsonMode {
		NewJSONErrorResponseStr("", msg).Write(w)
		return
	}
	if theme == nil {
		fmt.Fprintf(w, "%s %s\n", styles.StatusIndicators.Error, msg)
		return
	}
	fmt.Fprintln(w, theme.RenderError(msg))
}
