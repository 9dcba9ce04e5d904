// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive commands.
//
// One pattern for every command:
//  1. --yes proceeds without prompting
//  2. --json requires --yes (no interactive prompts in JSON mode)
//  3. A non-terminal stdin requires --yes (can't prompt)
//  4. Otherwise ask "[y/N]"

package cli

import (
	"fmt"
	"strings"
)

// confirm asks the user to approve action. It returns false without error
// when the user declines.
func (a *App) confirm(action string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if a.opts.jsonMode {
		return false, usageErrorf("--yes is required to %s in JSON mode", action)
	}
	if !isTerminal(a.streams.In) {
		return false, usageErrorf("refusing to %s without --yes (stdin is not a terminal)", action)
	}

	answer, err := a.promptLine(fmt.Sprintf("%s? [y/N]: ", capitalize(action)))
	if err != nil {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	fmt.Fprintln(a.streams.ErrOut, "Cancelled.")
	return false, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
