package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Message type constants for consistent UI messaging
const (
	// MessageTypeError indicates an error message style.
	MessageTypeError = "error"
	// MessageTypeSuccess indicates a success message style.
	MessageTypeSuccess = "success"
	// MessageTypeInfo indicates an informational message style.
	MessageTypeInfo = "info"
)

var (
	// Palette
	bgPrimary   = lipgloss.Color("#0d1117")
	bgElevated  = lipgloss.Color("#1f2937")
	accentCyan  = lipgloss.Color("#00ffff")
	accentGreen = lipgloss.Color("#39ff14")
	accentRed   = lipgloss.Color("#ff0055")
	accentBlue  = lipgloss.Color("#00d4ff")
	accentAmber = lipgloss.Color("#ff6600")

	textPrimary = lipgloss.Color("#f0f6fc")
	textMuted   = lipgloss.Color("#8b949e")

	borderDefault = lipgloss.Color("#30363d")

	// TitleStyle renders view titles
	TitleStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Bold(true).
			Padding(0, 1)

	// HeaderStyle renders table headers
	HeaderStyle = lipgloss.NewStyle().
			Foreground(textMuted).
			Bold(true)

	// SelectedStyle highlights the cursor row
	SelectedStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Background(bgElevated).
			Bold(true)

	// NormalStyle renders unselected rows
	NormalStyle = lipgloss.NewStyle().
			Foreground(textPrimary)

	// MutedStyle renders secondary text
	MutedStyle = lipgloss.NewStyle().
			Foreground(textMuted)

	// ErrorStyle renders error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(accentRed).
			Bold(true)

	// SuccessStyle renders success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(accentGreen).
			Bold(true)

	// InfoStyle renders informational messages
	InfoStyle = lipgloss.NewStyle().
			Foreground(accentBlue)

	// PanelStyle frames a content panel
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderDefault).
			Background(bgPrimary).
			Padding(1, 2)

	// HelpStyle renders the key hint bar
	HelpStyle = lipgloss.NewStyle().
			Foreground(textMuted).
			Padding(1, 1, 0, 1)
)

// StatusStyle returns a style for a document or signer status badge
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "SIGNED", "COMPLETED":
		return lipgloss.NewStyle().Foreground(accentGreen).Bold(true)
	case "DECLINED", "EXPIRED":
		return lipgloss.NewStyle().Foreground(accentRed).Bold(true)
	case "SENT", "INVITED", "VIEWED":
		return lipgloss.NewStyle().Foreground(accentBlue)
	case "PENDING":
		return lipgloss.NewStyle().Foreground(accentAmber)
	default:
		return lipgloss.NewStyle().Foreground(textMuted)
	}
}

// MessageStyle returns the style for a message bar entry
func MessageStyle(messageType string) lipgloss.Style {
	switch messageType {
	case MessageTypeError:
		return ErrorStyle
	case MessageTypeSuccess:
		return SuccessStyle
	default:
		return InfoStyle
	}
}

// ViewState represents the current view
type ViewState int

const (
	ViewDocuments ViewState = iota
	ViewDocumentDetail
	ViewDocumentCreate
	ViewSignerAdd
	ViewDecline
	ViewAudit
)
