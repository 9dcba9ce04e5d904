// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jeranaias/chatdesk/internal/model"
)

// Project name bounds, in runes after trimming.
const (
	MinProjectName = 2
	MaxProjectName = 100
)

// ProjectInput is the editable part of a project.
type ProjectInput struct {
	Name         string
	Description  string
	Instructions string
}

func (in ProjectInput) trimmed() ProjectInput {
	return ProjectInput{
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		Instructions: strings.TrimSpace(in.Instructions),
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateProjectName checks the trimmed length and that no other project
// (ignoring excludeID) has the same name case-insensitively.
func ValidateProjectName(name string, existing []model.Project, excludeID string) error {
	name = strings.TrimSpace(name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return &ProjectError{Field: "name", Message: "Project name is required."}
	case n < MinProjectName:
		return &ProjectError{Field: "name", Message: "Project name must be at least 2 characters."}
	case n > MaxProjectName:
		return &ProjectError{Field: "name", Message: "Project name must not exceed 100 characters."}
	}

	for _, p := range existing {
		if p.ID == excludeID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return &ProjectError{Field: "name", Message: fmt.Sprintf("A project named %q already exists.", p.Name)}
		}
	}
	return nil
}

// =============================================================================
// PROJECT OPERATIONS
// =============================================================================

func (m *Manager) indexProject(id string) int {
	for i := range m.projects {
		if m.projects[i].ID == id {
			return i
		}
	}
	return -1
}

// Projects returns every project in stored order.
func (m *Manager) Projects() []model.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Project{}, m.projects...)
}

// Project looks up a project by id.
func (m *Manager) Project(id string) (model.Project, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexProject(id)
	if i < 0 {
		return model.Project{}, false
	}
	return m.projects[i], true
}

// CurrentProject returns the project in scope, if any.
func (m *Manager) CurrentProject() (model.Project, bool) {
	id := m.state.ProjectID()
	if id == nil {
		return model.Project{}, false
	}
	return m.Project(*id)
}

// FindProject resolves ref as an id, then as a case-insensitive name.
func (m *Manager) FindProject(ref string) (model.Project, bool) {
	if p, ok := m.Project(ref); ok {
		return p, true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ref = strings.TrimSpace(ref)
	for _, p := range m.projects {
		if strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return model.Project{}, false
}

// CreateProject validates and appends a project, then makes it the active
// scope with a new conversation.
func (m *Manager) CreateProject(in ProjectInput) (model.Project, error) {
	in = in.trimmed()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ValidateProjectName(in.Name, m.projects, ""); err != nil {
		m.notifier.Warning(err.Error(), WarningDuration)
		return model.Project{}, err
	}

	p := model.Project{
		ID:           model.NewProjectID(),
		Name:         in.Name,
		Description:  in.Description,
		Instructions: in.Instructions,
		CreatedAt:    m.now(),
	}
	m.projects = append(m.projects, p)
	if err := m.saveProjects(); err != nil {
		return model.Project{}, err
	}

	m.state.setProject(&p.ID)
	m.state.setConversation(nil)
	m.logger.Debug("project created", zap.String("id", p.ID))
	m.notifier.Success(fmt.Sprintf("Project %q created successfully.", p.Name), SuccessDuration)
	return p, nil
}

// UpdateProject replaces a project's name, description and instructions.
// The duplicate-name check ignores the project itself.
func (m *Manager) UpdateProject(id string, in ProjectInput) (model.Project, error) {
	in = in.trimmed()

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexProject(id)
	if i < 0 {
		return model.Project{}, ErrProjectNotFound
	}
	if err := ValidateProjectName(in.Name, m.projects, id); err != nil {
		m.notifier.Warning(err.Error(), WarningDuration)
		return model.Project{}, err
	}

	p := m.projects[i]
	p.Name = in.Name
	p.Description = in.Description
	p.Instructions = in.Instructions
	m.projects[i] = p
	if err := m.saveProjects(); err != nil {
		return model.Project{}, err
	}

	m.notifier.Success("Project settings updated successfully.", SuccessDuration)
	return p, nil
}

// DeleteProject removes a project. Its conversations keep their reference
// and are only reachable through OrphanedConversations afterwards. If the
// project was in scope, the scope returns to no project.
func (m *Manager) DeleteProject(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexProject(id)
	if i < 0 {
		return ErrProjectNotFound
	}
	name := m.projects[i].Name
	if name == "" {
		name = "Project"
	}
	m.projects = append(m.projects[:i], m.projects[i+1:]...)
	if err := m.saveProjects(); err != nil {
		return err
	}

	if cur := m.state.ProjectID(); cur != nil && *cur == id {
		m.state.setProject(nil)
	}
	m.notifier.Success(fmt.Sprintf("%q deleted successfully.", name), SuccessDuration)
	return nil
}

// SelectProject scopes the session to id and starts a new conversation.
func (m *Manager) SelectProject(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexProject(id) < 0 {
		return ErrProjectNotFound
	}
	m.state.setProject(&id)
	m.state.setConversation(nil)
	return nil
}

// SelectGlobal clears the project scope and starts a new conversation.
func (m *Manager) SelectGlobal() {
	m.state.setProject(nil)
	m.state.setConversation(nil)
}
