// chatdesk - A terminal client for a remote chat API.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/chatdesk/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
