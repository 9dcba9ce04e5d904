// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidationError is a rejected form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateUsername checks a trimmed username: 3 to 50 characters of
// letters, digits and underscores.
func ValidateUsername(value string) error {
	v := strings.TrimSpace(value)
	switch n := utf8.RuneCountInString(v); {
	case n == 0:
		return &ValidationError{Field: "username", Message: "Username is required"}
	case n < 3:
		return &ValidationError{Field: "username", Message: "Username must be at least 3 characters"}
	case n > 50:
		return &ValidationError{Field: "username", Message: "Username must not exceed 50 characters"}
	}
	if !usernamePattern.MatchString(v) {
		return &ValidationError{Field: "username", Message: "Only letters, numbers, and underscores allowed"}
	}
	return nil
}

// ValidatePassword requires at least 4 characters. The value is not trimmed.
func ValidatePassword(value string) error {
	switch n := utf8.RuneCountInString(value); {
	case n == 0:
		return &ValidationError{Field: "password", Message: "Password is required"}
	case n < 4:
		return &ValidationError{Field: "password", Message: "Password must be at least 4 characters"}
	}
	return nil
}

// ValidateCredentials runs both checks and joins any failures.
func ValidateCredentials(username, password string) error {
	return errors.Join(ValidateUsername(username), ValidatePassword(password))
}
