// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/chatdesk/internal/model"
)

// ErrNoToken is returned when login succeeds without a token in the reply.
var ErrNoToken = errors.New("no authentication token received")

// Endpoint paths.
const (
	PathLogin  = "/login"
	PathMe     = "/me"
	PathModels = "/models"
	PathChat   = "/chat"
	PathUsers  = "/admin/users"
)

// =============================================================================
// AUTH
// =============================================================================

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login validates the credentials locally, exchanges them for a token and
// stores it. A rejected login is an *HTTPError carrying the server message;
// it never counts as an expired session.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if err := ValidateCredentials(username, password); err != nil {
		return "", err
	}

	res := c.do(ctx, http.MethodPost, PathLogin, loginRequest{Username: username, Password: password}, false)
	if res.Outcome == OutcomeTransportError {
		return "", res.Err()
	}
	if !res.OK() || res.String("error") != "" {
		return "", &HTTPError{Status: res.Status, Message: errorMessage(res.Payload, res.Status)}
	}

	token := strings.TrimSpace(res.String("token"))
	if token == "" {
		return "", ErrNoToken
	}
	if c.creds != nil {
		if err := c.creds.SetToken(token); err != nil {
			return "", fmt.Errorf("store token: %w", err)
		}
	}
	c.logger.Info("logged in", zap.String("username", username))
	return token, nil
}

// Logout forgets the stored token. The server keeps no session to end.
func (c *Client) Logout() error {
	if c.creds == nil {
		return nil
	}
	return c.creds.ClearToken()
}

// Me fetches the signed-in user.
func (c *Client) Me(ctx context.Context) (Me, error) {
	res := c.Do(ctx, http.MethodGet, PathMe, nil)
	if err := res.Err(); err != nil {
		return Me{}, err
	}

	var body struct {
		User Me `json:"user"`
	}
	if err := res.Decode(&body); err != nil {
		c.logger.Debug("unreadable /me payload", zap.Error(err))
		return Me{}, nil
	}
	return body.User, nil
}

// Models lists the models the user may chat with. all asks for every
// model the server knows, which the admin screens use.
func (c *Client) Models(ctx context.Context, all bool) ([]model.ModelOption, error) {
	path := PathModels
	if all {
		path += "?all=1"
	}
	res := c.Do(ctx, http.MethodGet, path, nil)
	if err := res.Err(); err != nil {
		return nil, err
	}
	return ParseModelOptions(res.Body), nil
}
