package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/runoshun/quire/internal/domain"
)

// Colors defines the color palette for the TUI.
var Colors = struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color

	TitleNormal   lipgloss.Color
	TitleSelected lipgloss.Color
	DescNormal    lipgloss.Color
	DescSelected  lipgloss.Color

	// Review states
	Fresh     lipgloss.Color
	Edited    lipgloss.Color
	Feedback  lipgloss.Color
	Endorsed  lipgloss.Color
	Published lipgloss.Color
}{
	Primary:   lipgloss.Color("#6C5CE7"), // Purple
	Secondary: lipgloss.Color("#A29BFE"), // Lavender
	Muted:     lipgloss.Color("#636E72"), // Gray
	Error:     lipgloss.Color("#D63031"), // Red
	Success:   lipgloss.Color("#00B894"), // Green
	Warning:   lipgloss.Color("#FDCB6E"), // Yellow

	TitleNormal:   lipgloss.Color("#DFE6E9"),
	TitleSelected: lipgloss.Color("#FFEAA7"),
	DescNormal:    lipgloss.Color("#636E72"),
	DescSelected:  lipgloss.Color("#B2BEC3"),

	Fresh:     lipgloss.Color("#74B9FF"), // Light blue
	Edited:    lipgloss.Color("#FDCB6E"), // Yellow
	Feedback:  lipgloss.Color("#A29BFE"), // Lavender
	Endorsed:  lipgloss.Color("#00B894"), // Green
	Published: lipgloss.Color("#636E72"), // Gray
}

// Styles contains all the lipgloss styles for the TUI.
type Styles struct {
	App lipgloss.Style

	Header     lipgloss.Style
	HeaderText lipgloss.Style

	// Task list
	TaskBranch         lipgloss.Style
	TaskBranchSelected lipgloss.Style
	TaskTitle          lipgloss.Style
	TaskTitleSelected  lipgloss.Style
	TaskDesc           lipgloss.Style
	TaskDescSelected   lipgloss.Style
	SelectionIndicator lipgloss.Style
	Authorized         lipgloss.Style

	// Review state badges
	StateFresh     lipgloss.Style
	StateEdited    lipgloss.Style
	StateFeedback  lipgloss.Style
	StateEndorsed  lipgloss.Style
	StatePublished lipgloss.Style

	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	Footer    lipgloss.Style
	FooterKey lipgloss.Style

	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogPrompt lipgloss.Style

	ErrorMsg lipgloss.Style
	Notice   lipgloss.Style

	// Detail view
	DetailTitle lipgloss.Style
	DetailLabel lipgloss.Style
	DetailValue lipgloss.Style
}

// DefaultStyles returns the default styles for the TUI.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary).
			MarginBottom(1),

		HeaderText: lipgloss.NewStyle().
			Bold(true),

		TaskBranch: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		TaskBranchSelected: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected).
			Bold(true),

		TaskTitle: lipgloss.NewStyle().
			Foreground(Colors.TitleNormal),

		TaskTitleSelected: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected).
			Bold(true),

		TaskDesc: lipgloss.NewStyle().
			Foreground(Colors.DescNormal),

		TaskDescSelected: lipgloss.NewStyle().
			Foreground(Colors.DescSelected),

		SelectionIndicator: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected),

		Authorized: lipgloss.NewStyle().
			Foreground(Colors.Success).
			Bold(true),

		StateFresh: lipgloss.NewStyle().
			Foreground(Colors.Fresh),

		StateEdited: lipgloss.NewStyle().
			Foreground(Colors.Edited),

		StateFeedback: lipgloss.NewStyle().
			Foreground(Colors.Feedback),

		StateEndorsed: lipgloss.NewStyle().
			Foreground(Colors.Endorsed),

		StatePublished: lipgloss.NewStyle().
			Foreground(Colors.Published),

		Help: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Muted),

		HelpKey: lipgloss.NewStyle().
			Foreground(Colors.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		Footer: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		FooterKey: lipgloss.NewStyle().
			Foreground(Colors.Primary).
			Bold(true),

		Dialog: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Primary),

		DialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary),

		DialogPrompt: lipgloss.NewStyle(),

		ErrorMsg: lipgloss.NewStyle().
			Foreground(Colors.Error).
			Bold(true),

		Notice: lipgloss.NewStyle().
			Foreground(Colors.Success),

		DetailTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary).
			MarginBottom(1),

		DetailLabel: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Width(12),

		DetailValue: lipgloss.NewStyle(),
	}
}

// StateStyle returns the badge style for a review state.
func (s Styles) StateStyle(state domain.ReviewState) lipgloss.Style {
	switch state {
	case domain.ReviewFresh:
		return s.StateFresh
	case domain.ReviewEdited:
		return s.StateEdited
	case domain.ReviewFeedback:
		return s.StateFeedback
	case domain.ReviewEndorsed:
		return s.StateEndorsed
	case domain.ReviewPublished:
		return s.StatePublished
	default:
		return s.StateFresh
	}
}

// StateIcon returns an icon for a review state.
func StateIcon(state domain.ReviewState) string {
	switch state {
	case domain.ReviewFresh:
		return "○"
	case domain.ReviewEdited:
		return "●"
	case domain.ReviewFeedback:
		return "◉"
	case domain.ReviewEndorsed:
		return "✓"
	case domain.ReviewPublished:
		return "−"
	default:
		return "?"
	}
}

// StateText returns a short fixed label for a review state.
func StateText(state domain.ReviewState) string {
	switch state {
	case domain.ReviewFresh:
		return "fresh"
	case domain.ReviewEdited:
		return "edit"
	case domain.ReviewFeedback:
		return "rev"
	case domain.ReviewEndorsed:
		return "ok"
	case domain.ReviewPublished:
		return "pub"
	default:
		return "?"
	}
}
