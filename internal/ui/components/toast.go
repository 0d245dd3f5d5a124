// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/chetna-wellness/chetna/internal/notify"
	"github.com/chetna-wellness/chetna/internal/ui/styles"
)

// =============================================================================
// TOAST
// =============================================================================

const (
	// InfoToastDuration is the auto-dismiss duration for informational toasts.
	InfoToastDuration = 4 * time.Second

	// WarningToastDuration is the auto-dismiss duration for warnings.
	WarningToastDuration = 6 * time.Second

	// ErrorToastDuration is longer so errors can be read.
	ErrorToastDuration = 8 * time.Second
)

// Toast is a notification shown in the corner of the screen.
// Blocking toasts stay until dismissed.
type Toast struct {
	ID        int
	Level     notify.Level
	Title     string
	Message   string
	Blocking  bool
	CreatedAt time.Time
	Duration  time.Duration
}

// NewToast converts a notification into a toast.
func NewToast(n notify.Notification, now time.Time) Toast {
	d := InfoToastDuration
	switch n.Level {
	case notify.LevelWarning:
		d = WarningToastDuration
	case notify.LevelError:
		d = ErrorToastDuration
	}
	return Toast{
		Level:     n.Level,
		Title:     n.Title,
		Message:   n.Message,
		Blocking:  n.Blocking,
		CreatedAt: now,
		Duration:  d,
	}
}

// IsExpired reports whether the toast should be dismissed at now.
func (t Toast) IsExpired(now time.Time) bool {
	if t.Blocking {
		return false
	}
	return now.Sub(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the visible toasts, newest first.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
}

// NewToastManager creates a new toast manager.
func NewToastManager() *ToastManager {
	return &ToastManager{nextID: 1, maxToasts: 4}
}

// Add shows a toast and returns its ID.
func (m *ToastManager) Add(t Toast) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = m.nextID
	m.nextID++

	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
	return t.ID
}

// DismissBlocking removes blocking toasts. Returns true if any were removed.
func (m *ToastManager) DismissBlocking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.Blocking {
			kept = append(kept, t)
		}
	}
	removed := len(kept) != len(m.toasts)
	m.toasts = kept
	return removed
}

// Tick removes expired toasts and returns the remaining ones.
func (m *ToastManager) Tick(now time.Time) []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := make([]Toast, 0, len(m.toasts))
	for _, t := range m.toasts {
		if !t.IsExpired(now) {
			active = append(active, t)
		}
	}
	m.toasts = active
	return m.snapshotLocked()
}

func (m *ToastManager) snapshotLocked() []Toast {
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// Visible returns a copy of the current toasts.
func (m *ToastManager) Visible() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// HasBlocking reports whether a toast is waiting to be dismissed.
func (m *ToastManager) HasBlocking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.toasts {
		if t.Blocking {
			return true
		}
	}
	return false
}

// ToastTickMsg drives toast expiry.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd ticks toasts every 250ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast.
func RenderToast(t Toast, width int) string {
	maxWidth := 56
	if width > 0 && width-6 < maxWidth {
		maxWidth = width - 6
	}
	if maxWidth < 24 {
		maxWidth = 24
	}

	var color lipgloss.AdaptiveColor
	var icon string
	switch t.Level {
	case notify.LevelError:
		color, icon = styles.Rose, styles.Indicators.Error
	case notify.LevelWarning:
		color, icon = styles.Amber, styles.Indicators.Warning
	default:
		color, icon = styles.Teal, styles.Indicators.Info
	}

	title := lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon + " " + t.Title)
	body := lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(WrapText(t.Message, maxWidth-4))

	content := title
	if t.Message != "" {
		content += "\n" + body
	}
	if t.Blocking {
		content += "\n" + lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true).Render("[esc] dismiss")
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(content)
}

// RenderToastStack renders toasts stacked vertically, newest at the top.
func RenderToastStack(toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, RenderToast(t, width))
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}

// WrapText word-wraps text to maxWidth terminal cells. Wide characters
// count as two cells; words longer than a line are kept whole.
func WrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		var line strings.Builder
		lineWidth := 0
		for _, w := range words {
			ww := runewidth.StringWidth(w)
			switch {
			case lineWidth == 0:
				line.WriteString(w)
				lineWidth = ww
			case lineWidth+1+ww <= maxWidth:
				line.WriteString(" ")
				line.WriteString(w)
				lineWidth += 1 + ww
			default:
				out = append(out, line.String())
				line.Reset()
				line.WriteString(w)
				lineWidth = ww
			}
		}
		out = append(out, line.String())
	}
	return strings.Join(out, "\n")
}
