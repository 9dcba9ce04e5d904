// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/jeranaias/chatdesk/internal/model"
)

// =============================================================================
// LENIENT SCALARS
// =============================================================================

// Count is an integer the server may send as a number, a numeric string,
// a boolean or null. Anything unparseable decodes to 0.
type Count int64

// UnmarshalJSON implements json.Unmarshaler. null leaves the value as is.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*c = 0
		return nil
	}
	*c = Count(toInt(v))
	return nil
}

func toInt(v any) int64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return int64(f)
	case bool:
		if t {
			return 1
		}
	}
	return 0
}

// AllowedModels is a list of model keys. The server may send an array of
// strings, an array of {key} objects, or a comma-separated string.
type AllowedModels []string

// UnmarshalJSON implements json.Unmarshaler.
func (a *AllowedModels) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*a = AllowedModels{}
		return nil
	}
	*a = ParseAllowedModels(v)
	return nil
}

// ParseAllowedModels normalizes any of the accepted shapes into trimmed,
// non-empty keys.
func ParseAllowedModels(v any) AllowedModels {
	out := AllowedModels{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			var key string
			switch it := item.(type) {
			case string:
				key = it
			case map[string]any:
				key, _ = it["key"].(string)
			}
			if key = strings.TrimSpace(key); key != "" {
				out = append(out, key)
			}
		}
	case []string:
		for _, key := range t {
			if key = strings.TrimSpace(key); key != "" {
				out = append(out, key)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// =============================================================================
// USER RECORDS
// =============================================================================

// Role names understood by the server.
const (
	RoleBasic = "basic"
	RoleAdmin = "admin"
)

// Providers with a per-provider monthly limit, in display order.
var Providers = []string{"gemini", "openai", "grok", "claude"}

// User is a row from /admin/users.
type User struct {
	ID       Count  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive Count  `json:"is_active"`

	MonthlyTokenLimit Count `json:"monthly_token_limit"`
	MonthlyTokensUsed Count `json:"monthly_tokens_used"`

	GeminiLimit Count `json:"monthly_gemini_token_limit"`
	GeminiUsed  Count `json:"monthly_gemini_tokens_used"`
	OpenAILimit Count `json:"monthly_openai_token_limit"`
	OpenAIUsed  Count `json:"monthly_openai_tokens_used"`
	GrokLimit   Count `json:"monthly_grok_token_limit"`
	GrokUsed    Count `json:"monthly_grok_tokens_used"`
	ClaudeLimit Count `json:"monthly_claude_token_limit"`
	ClaudeUsed  Count `json:"monthly_claude_tokens_used"`

	AllowedModels AllowedModels `json:"allowed_models"`
}

// UnmarshalJSON applies the defaults for missing fields: role "basic",
// active.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	p := plain{IsActive: 1, AllowedModels: AllowedModels{}}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.Role = strings.ToLower(strings.TrimSpace(p.Role))
	if p.Role == "" {
		p.Role = RoleBasic
	}
	*u = User(p)
	return nil
}

// Active reports whether the account is enabled.
func (u User) Active() bool {
	return u.IsActive != 0
}

// ProviderLimitSum adds the per-provider limits.
func (u User) ProviderLimitSum() int64 {
	return int64(u.GeminiLimit + u.OpenAILimit + u.GrokLimit + u.ClaudeLimit)
}

// EffectiveLimit is the stored total when positive, otherwise the sum of
// the provider limits. 0 means unlimited.
func (u User) EffectiveLimit() int64 {
	if u.MonthlyTokenLimit > 0 {
		return int64(u.MonthlyTokenLimit)
	}
	return u.ProviderLimitSum()
}

// ProviderQuota is one provider's limit and usage.
type ProviderQuota struct {
	Provider string
	Limit    int64
	Used     int64
}

// ProviderQuotas lists the per-provider figures in Providers order.
func (u User) ProviderQuotas() []ProviderQuota {
	return []ProviderQuota{
		{"gemini", int64(u.GeminiLimit), int64(u.GeminiUsed)},
		{"openai", int64(u.OpenAILimit), int64(u.OpenAIUsed)},
		{"grok", int64(u.GrokLimit), int64(u.GrokUsed)},
		{"claude", int64(u.ClaudeLimit), int64(u.ClaudeUsed)},
	}
}

// Limits holds the editable monthly limits. 0 means unlimited.
type Limits struct {
	Total  int64 `json:"monthly_token_limit"`
	Gemini int64 `json:"monthly_gemini_token_limit"`
	OpenAI int64 `json:"monthly_openai_token_limit"`
	Grok   int64 `json:"monthly_grok_token_limit"`
	Claude int64 `json:"monthly_claude_token_limit"`
}

// LimitsOf returns u's editable limits, with Total set to the effective
// limit as the admin table shows it.
func LimitsOf(u User) Limits {
	return Limits{
		Total:  u.EffectiveLimit(),
		Gemini: int64(u.GeminiLimit),
		OpenAI: int64(u.OpenAILimit),
		Grok:   int64(u.GrokLimit),
		Claude: int64(u.ClaudeLimit),
	}
}

// NewUser is the body of POST /admin/users.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Limits
	AllowedModels []string `json:"allowed_models"`
}

// UserUpdate is the body of PUT /admin/users/{id}.
type UserUpdate struct {
	Role     string `json:"role"`
	IsActive int    `json:"is_active"`
	Limits
	AllowedModels []string `json:"allowed_models"`
}

// UpdateFrom starts an update that leaves every field of u unchanged.
func UpdateFrom(u User) UserUpdate {
	active := 0
	if u.Active() {
		active = 1
	}
	models := append([]string{}, u.AllowedModels...)
	return UserUpdate{
		Role:          u.Role,
		IsActive:      active,
		Limits:        LimitsOf(u),
		AllowedModels: models,
	}
}

// =============================================================================
// CURRENT USER
// =============================================================================

// Me is the signed-in user from /me.
type Me struct {
	Username            string `json:"username"`
	Role                string `json:"role"`
	MonthlyTokenLimit   Count  `json:"monthly_token_limit"`
	TokensUsedThisMonth Count  `json:"tokens_used_this_month"`
}

// IsAdmin reports whether the user may use the admin endpoints.
func (m Me) IsAdmin() bool {
	return strings.EqualFold(m.Role, RoleAdmin)
}

// DisplayName is the username, or "User" when the server sent none.
func (m Me) DisplayName() string {
	if m.Username == "" {
		return "User"
	}
	return m.Username
}

// =============================================================================
// MODELS
// =============================================================================

// ParseModelOptions accepts an array, {models: [...]} or {items: [...]}.
// Items may be strings or objects; objects take their key from key, id,
// name or model and their label from label, name, model or the key.
// Entries without a key are dropped.
func ParseModelOptions(body []byte) []model.ModelOption {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return []model.ModelOption{}
	}

	var items []any
	switch t := raw.(type) {
	case []any:
		items = t
	case map[string]any:
		if list, ok := t["models"].([]any); ok {
			items = list
		} else if list, ok := t["items"].([]any); ok {
			items = list
		}
	}

	out := make([]model.ModelOption, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case string:
			key := strings.TrimSpace(it)
			if key == "" {
				continue
			}
			out = append(out, model.ModelOption{Key: key, Label: key})
		case map[string]any:
			key := firstField(it, "key", "id", "name", "model")
			if key == "" {
				continue
			}
			label := firstField(it, "label", "name", "model")
			if label == "" {
				label = key
			}
			out = append(out, model.ModelOption{Key: key, Label: label})
		}
	}
	return out
}

// firstField returns the first field among names with a non-empty value.
func firstField(obj map[string]any, names ...string) string {
	for _, name := range names {
		var s string
		switch v := obj[name].(type) {
		case string:
			s = v
		case float64:
			if v != 0 {
				s = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
