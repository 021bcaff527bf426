package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/devbump/bumpall/internal/semver"
)

var (
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E88388"))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A9DC76"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD866"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#727072"))

	patchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#78DCE8"))
	minorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A9DC76"))
	majorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD866"))
)

// LevelStyle picks the color used to render an upgrade of the given distance.
func LevelStyle(level semver.Level) lipgloss.Style {
	switch level {
	case semver.LevelMajor:
		return majorStyle
	case semver.LevelMinor:
		return minorStyle
	case semver.LevelPatch:
		return patchStyle
	default:
		return DimStyle
	}
}
