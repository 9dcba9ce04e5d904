// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP gateway to the remote chat service.
//
// Every call resolves its URL against a normalized base, attaches the stored
// bearer token, and reports its result as an explicit Result value instead
// of throwing. A 401 from any authenticated endpoint clears the stored token
// and runs the logout hook before the caller sees OutcomeUnauthorized.
//
// # Key Types
//
//   - Client: base resolution, auth headers, request execution
//   - Result / Outcome: what happened to a request
//   - HTTPError, TransportError, ErrUnauthorized: Result.Err conversions
//   - User, Me, ModelOption: decoded payloads
//
// # Usage
//
//	client := api.NewClient(st).
//	    WithLogger(logger).
//	    WithLogoutHook(func() { fmt.Println("Session expired") })
//
//	me, err := client.Me(ctx)
//	if errors.Is(err, api.ErrUnauthorized) {
//	    // token already cleared
//	}
package api
