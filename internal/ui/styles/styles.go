package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const DefaultAccent = "#5885A2"

var (
	Black  = lipgloss.Color("#111111")
	Gray   = lipgloss.Color("#3e3e3e")
	White  = lipgloss.Color("#cccccc")
	Whiter = lipgloss.Color("#aaaaaa")

	Accent lipgloss.Color

	ContainerBorder      = lipgloss.RoundedBorder()
	ContainerStyle       lipgloss.Style
	ContainerStyleActive lipgloss.Style

	TableHeader      lipgloss.Style
	TableRow         = lipgloss.NewStyle().Foreground(White).PaddingRight(2)
	TableRowOdd      = lipgloss.NewStyle().Foreground(Whiter).PaddingRight(2)
	TableRowSelected lipgloss.Style

	InfoLabel lipgloss.Style
	InfoValue = lipgloss.NewStyle().Foreground(White)
	Caret     lipgloss.Style

	LogLine   = lipgloss.NewStyle().Foreground(Whiter)
	HelpStyle = lipgloss.NewStyle().Foreground(Gray)
)

func init() {
	SetAccent(DefaultAccent)
}

// SetAccent rebuilds every style derived from the accent colour. An empty value restores the
// default.
func SetAccent(color string) {
	if color == "" {
		color = DefaultAccent
	}

	Accent = lipgloss.Color(color)
	ContainerStyle = lipgloss.NewStyle().Border(ContainerBorder).BorderForeground(Gray)
	ContainerStyleActive = lipgloss.NewStyle().Border(ContainerBorder).BorderForeground(Accent)
	TableHeader = lipgloss.NewStyle().Foreground(Accent).Bold(true).PaddingRight(2)
	TableRowSelected = lipgloss.NewStyle().Bold(true).Background(Accent).Foreground(Black).PaddingRight(2)
	InfoLabel = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	Caret = lipgloss.NewStyle().Background(Accent)
}

// WrapX centers value within width, filling both sides with character.
func WrapX(width int, value string, character string) string {
	all := max(0, width-lipgloss.Width(value))

	return strings.Repeat(character, all/2) + value + strings.Repeat(character, all-all/2)
}

// TitleBorder embeds title in the top edge of border.
func TitleBorder(border lipgloss.Border, width int, title string) lipgloss.Border {
	if title == "" {
		return border
	}

	border.Top = WrapX(width, "┤ "+title+" ├", border.Top)

	return border
}
