// Package tui provides the terminal task browser for quire.
package tui

import "github.com/runoshun/quire/internal/domain"

// Mode represents the current UI mode.
type Mode int

const (
	ModeNormal  Mode = iota // Task list navigation
	ModeConfirm             // Confirmation dialog
	ModeHelp                // Help overlay
	ModeDetail              // Task detail view
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeConfirm:
		return "confirm"
	case ModeHelp:
		return "help"
	case ModeDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// ConfirmAction is the review step waiting for confirmation.
type ConfirmAction int

const (
	ConfirmNone ConfirmAction = iota
	ConfirmFeedback
	ConfirmEndorse
	ConfirmPublish
)

// String returns a human-readable description of the action.
func (a ConfirmAction) String() string {
	switch a {
	case ConfirmNone:
		return ""
	case ConfirmFeedback:
		return "request feedback on"
	case ConfirmEndorse:
		return "endorse"
	case ConfirmPublish:
		return "publish"
	}
	return ""
}

// Target returns the review state the action moves a task to.
func (a ConfirmAction) Target() domain.ReviewState {
	switch a {
	case ConfirmNone:
		return ""
	case ConfirmFeedback:
		return domain.ReviewFeedback
	case ConfirmEndorse:
		return domain.ReviewEndorsed
	case ConfirmPublish:
		return domain.ReviewPublished
	}
	return ""
}
