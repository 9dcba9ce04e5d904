// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/session"
	"github.com/jeranaias/chatdesk/internal/ui/components"
)

// resolveConversation finds a conversation by exact id, unique id prefix,
// or the single best fuzzy title match.
func resolveConversation(mgr *session.Manager, ref string) (model.Conversation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Conversation{}, usageErrorf("conversation id is required")
	}
	if c, ok := mgr.Conversation(ref); ok {
		return c, nil
	}

	all := mgr.AllConversations()
	var prefixed []model.Conversation
	for _, c := range all {
		if strings.HasPrefix(c.ID, ref) {
			prefixed = append(prefixed, c)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
	default:
		return model.Conversation{}, usageErrorf("%q matches %d conversations, use a longer id", ref, len(prefixed))
	}

	titles := make([]string, len(all))
	for i, c := range all {
		titles[i] = c.Title
	}
	if i, ok := bestMatch(ref, titles); ok {
		return all[i], nil
	}
	return model.Conversation{}, &NotFoundError{Resource: "conversation", Ref: ref}
}

// resolveProject finds a project by id, case-insensitive name, or the
// single best fuzzy name match.
func resolveProject(mgr *session.Manager, ref string) (model.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Project{}, usageErrorf("project id or name is required")
	}
	if p, ok := mgr.FindProject(ref); ok {
		return p, nil
	}
	projects := mgr.Projects()
	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	if i, ok := bestMatch(ref, names); ok {
		return projects[i], nil
	}
	return model.Project{}, &NotFoundError{Resource: "project", Ref: ref}
}

// bestMatch returns the index of the top fuzzy match when it is not tied.
func bestMatch(query string, targets []string) (int, bool) {
	matches := components.FuzzyFilter(query, targets)
	if len(matches) == 0 {
		return 0, false
	}
	if len(matches) > 1 && matches[0].Score == matches[1].Score {
		return 0, false
	}
	return matches[0].Index, true
}

// managerErr marks manager errors that were already shown as a toast.
// Lookup failures are not toasted and pass through unchanged.
func managerErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, session.ErrProjectNotFound) || errors.Is(err, session.ErrConversationNotFound) {
		return err
	}
	return reported(err)
}

// scopeLabel describes a conversation's project for listings.
func scopeLabel(mgr *session.Manager, projectID *string) string {
	if projectID == nil {
		return "-"
	}
	if p, ok := mgr.Project(*projectID); ok {
		return p.Name
	}
	return fmt.Sprintf("(deleted %s)", *projectID)
}
