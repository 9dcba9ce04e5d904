// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME MODE
// =============================================================================

// Mode is the persisted theme preference.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeDark  Mode = "dark"
	ModeLight Mode = "light"
)

// ParseMode accepts auto, dark or light (case-insensitive). Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeDark:
		return ModeDark, nil
	case ModeLight:
		return ModeLight, nil
	}
	return "", fmt.Errorf("unknown theme %q (want auto, dark or light)", s)
}

// Toggle flips between dark and light. Auto resolves against isDark first.
func (m Mode) Toggle(isDark bool) Mode {
	if m.Dark(isDark) {
		return ModeLight
	}
	return ModeDark
}

// Dark reports whether the mode renders dark, using detected for auto.
func (m Mode) Dark(detected bool) bool {
	switch m {
	case ModeDark:
		return true
	case ModeLight:
		return false
	}
	return detected
}

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styles used by the CLI.
type Theme struct {
	Mode         Mode
	IsDark       bool
	ColorProfile termenv.Profile

	Brand     lipgloss.Style
	Prompt    lipgloss.Style
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	Title     lipgloss.Style
	Selected  lipgloss.Style
	Muted     lipgloss.Style
	Header    lipgloss.Style

	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	SuccessStyle lipgloss.Style
	InfoStyle    lipgloss.Style
}

// NewTheme detects terminal capabilities and builds styles for mode.
func NewTheme(mode Mode) *Theme {
	return newTheme(mode, termenv.ColorProfile(), termenv.HasDarkBackground())
}

// NewThemeWithProfile builds a theme without querying the terminal.
func NewThemeWithProfile(mode Mode, profile termenv.Profile, detectedDark bool) *Theme {
	return newTheme(mode, profile, detectedDark)
}

func newTheme(mode Mode, profile termenv.Profile, detectedDark bool) *Theme {
	t := &Theme{
		Mode:         mode,
		IsDark:       mode.Dark(detectedDark),
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// Apply makes the theme's light/dark choice and color profile the default
// for every lipgloss style rendered afterwards.
func (t *Theme) Apply() {
	lipgloss.SetColorProfile(t.ColorProfile)
	lipgloss.SetHasDarkBackground(t.IsDark)
}

func (t *Theme) initStyles() {
	t.Brand = lipgloss.NewStyle().Bold(true).Foreground(Sage)
	t.Prompt = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.BotLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.Title = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Selected = lipgloss.NewStyle().Bold(true).Foreground(Sage)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Header = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)

	t.ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(Rose)
	t.WarningStyle = lipgloss.NewStyle().Bold(true).Foreground(Amber)
	t.SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(Emerald)
	t.InfoStyle = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
}

// =============================================================================
// ACCESSIBLE STATUS LINES
// =============================================================================

// RenderSuccess renders message with the success indicator.
func (t *Theme) RenderSuccess(message string) string {
	return t.SuccessStyle.Render(StatusIndicators.Success + " " + message)
}

// RenderError renders message with the error indicator.
func (t *Theme) RenderError(message string) string {
	return t.ErrorStyle.Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders message with the warning indicator.
func (t *Theme) RenderWarning(message string) string {
	return t.WarningStyle.Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders message with the info indicator.
func (t *Theme) RenderInfo(message string) string {
	return t.InfoStyle.Render(StatusIndicators.Info + " " + message)
}
