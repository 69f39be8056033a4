// Package styles holds the lipgloss palette and styles of the chat UI.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/aiderctl/internal/aider/state"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	BlueColor      = lipgloss.Color("#60A5FA") // Blue

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor)

	// Status badge styles
	StatusBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(SurfaceColor).
			Padding(0, 1)

	// Transcript area
	OutputArea = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor)

	UserPrompt = lipgloss.NewStyle().
			Bold(true).
			Foreground(BlueColor)

	// Footer / status bar
	StatusBar = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SurfaceColor).
			Padding(0, 1)

	// Help bar
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	// Error message
	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// Diff syntax highlighting styles
	DiffAdd = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#22C55E"))

	DiffRemove = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171"))

	DiffHeader = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA")).
			Bold(true)

	DiffHunk = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A78BFA"))
)

// StateColor returns the badge color for a session state
func StateColor(s state.State) lipgloss.Color {
	switch s {
	case state.Ready:
		return SecondaryColor
	case state.Starting, state.Restarting:
		return WarningColor
	case state.Crashed, state.Uninstalled:
		return ErrorColor
	case state.SignedOut, state.NotGitRepo:
		return BlueColor
	default:
		return MutedColor
	}
}

// StateBadge renders a session state as a colored badge
func StateBadge(s state.State) string {
	return StatusBadge.Background(StateColor(s)).Render(s.String())
}

// HighlightDiffLine colors one line of unified diff output. Lines that are
// not part of a diff are returned unchanged.
func HighlightDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return DiffHeader.Render(line)
	case strings.HasPrefix(line, "@@"):
		return DiffHunk.Render(line)
	case strings.HasPrefix(line, "+"):
		return DiffAdd.Render(line)
	case strings.HasPrefix(line, "-"):
		return DiffRemove.Render(line)
	default:
		return line
	}
}
