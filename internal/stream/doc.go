// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream consumes the chat endpoint's line-framed event stream.
//
// The server answers POST /chat with lines of the form
//
//	data: {"content":"Hel","chat_id":"abc"}
//	data: {"content":"lo"}
//	data: [DONE]
//
// Each content fragment is appended to the reply, and observers always see
// the full text so far. The first chat_id fixes the conversation id when
// the request did not carry one. Cancelling the context ends the exchange
// as Aborted and discards the partial reply.
//
// # Key Types
//
//   - Request: the chat request body
//   - Consumer: opens and reads streams
//   - Exchange: one running stream with a snapshot channel
//   - Outcome: how an exchange ended
//
// # Usage
//
//	ex := consumer.Start(ctx, req)
//	for snap := range ex.Snapshots() {
//	    render(snap.Text)
//	}
//	out := ex.Wait()
package stream
