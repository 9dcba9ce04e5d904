// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "errors"

// Sentinel errors.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrNoModel              = errors.New("no model selected")
)

// ProjectError is a rejected project form.
type ProjectError struct {
	Field   string
	Message string
}

func (e *ProjectError) Error() string {
	return e.Message
}

// MessageError is a message that cannot be sent as typed.
type MessageError struct {
	Message string
}

func (e *MessageError) Error() string {
	return e.Message
}

// AttachmentError is a file that cannot be attached.
type AttachmentError struct {
	Name    string
	Message string
	Err     error
}

func (e *AttachmentError) Error() string {
	return e.Message
}

func (e *AttachmentError) Unwrap() error {
	return e.Err
}
