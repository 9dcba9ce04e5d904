// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "time"

// Notification durations.
const (
	InfoDuration       = 3 * time.Second
	SuccessDuration    = 3 * time.Second
	WarningDuration    = 4 * time.Second
	ErrorDuration      = 5 * time.Second
	MessageStoppedText = "Message sending was stopped."
)

// Notifier shows short messages to the user. The toast stack in
// ui/components implements it.
type Notifier interface {
	Success(message string, d time.Duration)
	Error(message string, d time.Duration)
	Warning(message string, d time.Duration)
	Info(message string, d time.Duration)
}

type nopNotifier struct{}

func (nopNotifier) Success(string, time.Duration) {}
func (nopNotifier) Error(string, time.Duration)   {}
func (nopNotifier) Warning(string, time.Duration) {}
func (nopNotifier) Info(string, time.Duration)    {}
