// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// =============================================================================
// ADMIN: USERS
// =============================================================================

func userPath(id int64, action string) string {
	p := fmt.Sprintf("%s/%d", PathUsers, id)
	if action != "" {
		p += "/" + action
	}
	return p
}

// ListUsers returns every account. The body may be an array or {items}.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	res := c.Do(ctx, http.MethodGet, PathUsers, nil)
	if err := res.Err(); err != nil {
		return nil, err
	}

	var raw json.RawMessage = res.Body
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Items json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil || len(wrapped.Items) == 0 {
			return []User{}, nil
		}
		raw = wrapped.Items
	}

	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		c.logger.Debug("unreadable user list", zap.Error(err))
		return []User{}, nil
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// CreateUser adds an account. Role defaults to basic.
func (c *Client) CreateUser(ctx context.Context, u NewUser) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Password = strings.TrimSpace(u.Password)
	if u.Username == "" || u.Password == "" {
		return &ValidationError{Field: "username", Message: "Username and password are required."}
	}
	u.Role = strings.ToLower(strings.TrimSpace(u.Role))
	if u.Role == "" {
		u.Role = RoleBasic
	}
	if u.AllowedModels == nil {
		u.AllowedModels = []string{}
	}
	return requireOK(c.Do(ctx, http.MethodPost, PathUsers, u))
}

// UpdateUser replaces an account's role, status, limits and models.
func (c *Client) UpdateUser(ctx context.Context, id int64, u UserUpdate) error {
	u.Role = strings.ToLower(strings.TrimSpace(u.Role))
	if u.Role == "" {
		u.Role = RoleBasic
	}
	if u.AllowedModels == nil {
		u.AllowedModels = []string{}
	}
	return requireOK(c.Do(ctx, http.MethodPut, userPath(id, ""), u))
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return requireOK(c.Do(ctx, http.MethodDelete, userPath(id, ""), nil))
}

// ResetMonth zeroes the account's monthly usage counters.
func (c *Client) ResetMonth(ctx context.Context, id int64) error {
	return requireOK(c.Do(ctx, http.MethodPost, userPath(id, "reset_month"), nil))
}

// ResetDaily zeroes the account's daily usage counters.
func (c *Client) ResetDaily(ctx context.Context, id int64) error {
	return requireOK(c.Do(ctx, http.MethodPost, userPath(id, "reset_daily"), nil))
}

// SetPassword replaces the account's password. An empty password is a
// no-op, as when the prompt is dismissed.
func (c *Client) SetPassword(ctx context.Context, id int64, password string) error {
	if password == "" {
		return nil
	}
	body := map[string]string{"password": password}
	return requireOK(c.Do(ctx, http.MethodPost, userPath(id, "set_password"), body))
}
