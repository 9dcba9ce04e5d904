// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatdesk/internal/ui/styles"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is the kind of a toast notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Label returns the heading shown above the toast message.
func (s Severity) Label() string {
	switch s {
	case SeveritySuccess:
		return "Success"
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	default:
		return "Info"
	}
}

// Durations and limits of the toast stack.
const (
	MaxToasts       = 5
	DefaultDuration = 4 * time.Second
	WarningDuration = 5 * time.Second
	ErrorDuration   = 6 * time.Second
	LeaveGrace      = 2 * time.Second
	HideDelay       = 300 * time.Millisecond

	// UseDefault selects the severity's default duration. A duration of 0
	// keeps the toast until it is dismissed.
	UseDefault time.Duration = -1
)

// DefaultDurationFor returns the auto-dismiss duration for s.
func DefaultDurationFor(s Severity) time.Duration {
	switch s {
	case SeverityError:
		return ErrorDuration
	case SeverityWarning:
		return WarningDuration
	default:
		return DefaultDuration
	}
}

// =============================================================================
// CLOCK
// =============================================================================

// Timer is the part of *time.Timer the stack needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// =============================================================================
// TOAST STACK
// =============================================================================

// Toast is a snapshot of one notification.
type Toast struct {
	ID       int
	Severity Severity
	Message  string
	Duration time.Duration
	Hovered  bool
	// Hiding is set when the toast is dismissed; it is removed HideDelay later.
	Hiding bool
}

type toastEntry struct {
	Toast
	timer Timer
	gen   int
}

// Stack holds the visible toasts. It is safe for concurrent use; timers
// fire on their own goroutines.
type Stack struct {
	mu       sync.Mutex
	toasts   []*toastEntry
	nextID   int
	max      int
	clock    Clock
	onChange func()
}

// NewStack creates an empty stack holding at most MaxToasts visible toasts.
func NewStack() *Stack {
	return &Stack{max: MaxToasts, clock: realClock{}}
}

// WithClock replaces the timer source.
func (s *Stack) WithClock(c Clock) *Stack {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c != nil {
		s.clock = c
	}
	return s
}

// OnChange registers fn to run after every change. It is called without
// the stack lock held.
func (s *Stack) OnChange(fn func()) *Stack {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
	return s
}

// Show adds a toast and returns its id. When MaxToasts toasts are already
// visible the oldest visible one is dismissed first.
func (s *Stack) Show(sev Severity, message string, d time.Duration) int {
	s.mu.Lock()
	if d < 0 {
		d = DefaultDurationFor(sev)
	}
	for s.visibleLocked() >= s.max {
		oldest := s.oldestVisibleLocked()
		if oldest == nil {
			break
		}
		s.hideLocked(oldest)
	}

	s.nextID++
	e := &toastEntry{Toast: Toast{
		ID:       s.nextID,
		Severity: sev,
		Message:  message,
		Duration: d,
	}}
	s.toasts = append(s.toasts, e)
	if d > 0 {
		s.armLocked(e, d)
	}
	id := e.ID
	fn := s.onChange
	s.mu.Unlock()

	notify(fn)
	return id
}

// Success shows a success toast. d < 0 selects the default duration.
func (s *Stack) Success(message string, d time.Duration) {
	s.Show(SeveritySuccess, message, d)
}

// Error shows an error toast.
func (s *Stack) Error(message string, d time.Duration) {
	s.Show(SeverityError, message, d)
}

// Warning shows a warning toast.
func (s *Stack) Warning(message string, d time.Duration) {
	s.Show(SeverityWarning, message, d)
}

// Info shows an info toast.
func (s *Stack) Info(message string, d time.Duration) {
	s.Show(SeverityInfo, message, d)
}

// Dismiss starts hiding the toast. It reports false for unknown ids and
// toasts that are already hiding.
func (s *Stack) Dismiss(id int) bool {
	s.mu.Lock()
	e := s.findLocked(id)
	if e == nil || e.Hiding {
		s.mu.Unlock()
		return false
	}
	s.hideLocked(e)
	fn := s.onChange
	s.mu.Unlock()

	notify(fn)
	return true
}

// DismissAll starts hiding every visible toast.
func (s *Stack) DismissAll() {
	s.mu.Lock()
	changed := false
	for _, e := range s.toasts {
		if !e.Hiding {
			s.hideLocked(e)
			changed = true
		}
	}
	fn := s.onChange
	s.mu.Unlock()

	if changed {
		notify(fn)
	}
}

// Hover pauses the toast's auto-dismiss timer.
func (s *Stack) Hover(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findLocked(id)
	if e == nil || e.Hiding {
		return
	}
	s.stopLocked(e)
	e.Hovered = true
}

// Leave resumes a hovered toast's timer with LeaveGrace remaining.
// Toasts without auto-dismiss stay put.
func (s *Stack) Leave(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findLocked(id)
	if e == nil || e.Hiding || !e.Hovered {
		return
	}
	e.Hovered = false
	if e.Duration > 0 {
		s.armLocked(e, LeaveGrace)
	}
}

// Toasts returns every toast including hiding ones, oldest first.
func (s *Stack) Toasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Toast, 0, len(s.toasts))
	for _, e := range s.toasts {
		out = append(out, e.Toast)
	}
	return out
}

// Visible returns the toasts that are not hiding, oldest first.
func (s *Stack) Visible() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Toast, 0, len(s.toasts))
	for _, e := range s.toasts {
		if !e.Hiding {
			out = append(out, e.Toast)
		}
	}
	return out
}

// =============================================================================
// INTERNALS (callers hold s.mu)
// =============================================================================

func (s *Stack) armLocked(e *toastEntry, d time.Duration) {
	s.stopLocked(e)
	e.gen++
	id, gen := e.ID, e.gen
	e.timer = s.clock.AfterFunc(d, func() { s.expire(id, gen) })
}

func (s *Stack) stopLocked(e *toastEntry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
}

func (s *Stack) hideLocked(e *toastEntry) {
	s.stopLocked(e)
	e.Hiding = true
	e.gen++
	id, gen := e.ID, e.gen
	e.timer = s.clock.AfterFunc(HideDelay, func() { s.remove(id, gen) })
}

func (s *Stack) visibleLocked() int {
	n := 0
	for _, e := range s.toasts {
		if !e.Hiding {
			n++
		}
	}
	return n
}

func (s *Stack) oldestVisibleLocked() *toastEntry {
	for _, e := range s.toasts {
		if !e.Hiding {
			return e
		}
	}
	return nil
}

func (s *Stack) findLocked(id int) *toastEntry {
	for _, e := range s.toasts {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// expire runs when an auto-dismiss timer fires. A stale generation means
// the timer was stopped or re-armed after it had already started.
func (s *Stack) expire(id, gen int) {
	s.mu.Lock()
	e := s.findLocked(id)
	if e == nil || e.gen != gen || e.Hiding {
		s.mu.Unlock()
		return
	}
	s.hideLocked(e)
	fn := s.onChange
	s.mu.Unlock()

	notify(fn)
}

func (s *Stack) remove(id, gen int) {
	s.mu.Lock()
	removed := false
	for i, e := range s.toasts {
		if e.ID == id && e.gen == gen {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			removed = true
			break
		}
	}
	fn := s.onChange
	s.mu.Unlock()

	if removed {
		notify(fn)
	}
}

func notify(fn func()) {
	if fn != nil {
		fn()
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderToast renders a single toast box no wider than width.
func RenderToast(t Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	color, icon := severityStyle(t.Severity)

	iconStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(color)
	messageStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 6)

	content := iconStyle.Render(icon) + " " + labelStyle.Render(t.Severity.Label()) +
		"\n" + messageStyle.Render(strings.TrimSpace(t.Message))

	if t.Hiding {
		content = lipgloss.NewStyle().Faint(true).Render(content)
	}

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 2).
		MaxWidth(maxWidth).
		Render(content)
}

// RenderStack renders visible toasts stacked vertically, newest last,
// right-aligned.
func RenderStack(toasts []Toast, width int) string {
	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		if t.Hiding {
			continue
		}
		rendered = append(rendered, RenderToast(t, width))
	}
	if len(rendered) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}

func severityStyle(s Severity) (lipgloss.AdaptiveColor, string) {
	switch s {
	case SeverityError:
		return styles.Rose, styles.StatusIndicators.Error
	case SeverityWarning:
		return styles.Amber, styles.StatusIndicators.Warning
	case SeveritySuccess:
		return styles.Emerald, styles.StatusIndicators.Success
	default:
		return styles.Cyan, styles.StatusIndicators.Info
	}
}
