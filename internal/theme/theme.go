// Package theme provides the Lip Gloss color palette and reusable styles
// for the Arena TUI. It is a leaf package with no internal imports to
// avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Lane phase colors.
var (
	ColorLoading   = lipgloss.Color("#7c3aed")
	ColorStreaming = lipgloss.Color("#2563eb")
	ColorDone      = lipgloss.Color("#16a34a")
	ColorErrored   = lipgloss.Color("#dc2626")
	ColorIdle      = lipgloss.Color("#4b5563")
	ColorDefault   = lipgloss.Color("#9ca3af")
)

// Side accents. Lanes stay anonymous until the vote, so the accents are
// neutral rather than provider-branded.
var (
	ColorSideA = lipgloss.Color("#06b6d4")
	ColorSideB = lipgloss.Color("#f59e0b")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorWinner  = lipgloss.Color("#f59e0b")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// PhaseColor returns the color for a lane phase string.
func PhaseColor(phase string) lipgloss.Color {
	switch phase {
	case "loading":
		return ColorLoading
	case "streaming":
		return ColorStreaming
	case "done":
		return ColorDone
	case "errored":
		return ColorErrored
	case "idle":
		return ColorIdle
	default:
		return ColorDefault
	}
}

// PhaseGlyph returns a Unicode glyph representing a lane phase.
func PhaseGlyph(phase string) string {
	switch phase {
	case "loading":
		return "◎"
	case "streaming":
		return "●>"
	case "done":
		return "✓"
	case "errored":
		return "✗"
	case "idle":
		return "○"
	default:
		return "·"
	}
}

// SideColor returns the accent color for a lane label ("a" or "b").
func SideColor(side string) lipgloss.Color {
	if side == "b" {
		return ColorSideB
	}
	return ColorSideA
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleWinner = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWinner)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)
)
