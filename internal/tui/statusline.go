package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusLineInfo contains information for rendering the status line.
type StatusLineInfo struct {
	Pagination string // Optional pagination info (e.g., "1/3")
	Context    string // Right-aligned context, e.g. the current mode
	KeyHints   []KeyHint
}

// KeyHint represents a key and its description.
type KeyHint struct {
	Key  string
	Desc string
}

// StatusLine renders a status line at the bottom of the screen.
type StatusLine struct {
	styles *Styles
	width  int
}

// NewStatusLine creates a new StatusLine with the given width and styles.
func NewStatusLine(width int, styles *Styles) *StatusLine {
	return &StatusLine{
		width:  width,
		styles: styles,
	}
}

// Render renders the status line with the given info.
func (s *StatusLine) Render(info StatusLineInfo) string {
	hints := make([]string, 0, len(info.KeyHints))
	for _, h := range info.KeyHints {
		hints = append(hints, s.styles.FooterKey.Render(h.Key)+" "+h.Desc)
	}
	content := strings.Join(hints, "  ")

	rightContent := lipgloss.NewStyle().Foreground(Colors.Muted).Render(info.Context)
	if info.Pagination != "" {
		rightContent = info.Pagination + "  " + rightContent
	}
	rightLen := lipgloss.Width(rightContent)
	contentLen := lipgloss.Width(content)

	maxContentWidth := s.width - rightLen - 2
	if contentLen > maxContentWidth {
		if maxContentWidth <= 3 {
			content = "..."
		} else {
			content = lipgloss.NewStyle().MaxWidth(maxContentWidth-3).Render(content) + "..."
		}
		contentLen = lipgloss.Width(content)
	}

	spacing := s.width - contentLen - rightLen
	if spacing < 1 {
		spacing = 1
	}

	return s.styles.Footer.Render(content + strings.Repeat(" ", spacing) + rightContent)
}

// GetStatusInfo returns status line info for the current mode.
func (m *Model) GetStatusInfo() StatusLineInfo {
	info := StatusLineInfo{Context: m.mode.String()}

	switch m.mode {
	case ModeDetail:
		info.KeyHints = []KeyHint{
			{Key: "j/k", Desc: "scroll"},
			{Key: "g/G", Desc: "top/bottom"},
			{Key: "r", Desc: "reload"},
			{Key: "esc", Desc: "back"},
			{Key: "q", Desc: "quit"},
		}
	case ModeNormal:
		if m.taskList.Paginator.TotalPages > 1 {
			info.Pagination = m.taskList.Paginator.View()
		}
		info.KeyHints = []KeyHint{
			{Key: "j/k", Desc: "nav"},
			{Key: "enter", Desc: "details"},
			{Key: "f/e/p", Desc: "feedback/endorse/publish"},
			{Key: "/", Desc: "filter"},
			{Key: "?", Desc: "help"},
			{Key: "q", Desc: "quit"},
		}
	case ModeConfirm, ModeHelp:
		// Hints are part of the dialog.
	}

	return info
}
