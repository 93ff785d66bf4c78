package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme of the board
type Theme struct {
	Name string

	// Base colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Highlight  lipgloss.Color
	Border     lipgloss.Color

	// Semantic colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Info      lipgloss.Color

	// Priority colors
	PriorityLow    lipgloss.Color
	PriorityMedium lipgloss.Color
	PriorityHigh   lipgloss.Color

	// Column colors, in layout order
	ColumnFirst  lipgloss.Color
	ColumnMiddle lipgloss.Color
	ColumnLast   lipgloss.Color
}

// ColumnColor returns the header color of column i of n.
// Columns outside the layout use Subtle.
func (t Theme) ColumnColor(i, n int) lipgloss.Color {
	switch {
	case i < 0 || i >= n:
		return t.Subtle
	case i == 0:
		return t.ColumnFirst
	case i == n-1:
		return t.ColumnLast
	default:
		return t.ColumnMiddle
	}
}

// Styles holds pre-computed lipgloss styles based on theme
type Styles struct {
	Header lipgloss.Style

	// Card styles
	Card        lipgloss.Style
	CardCursor  lipgloss.Style
	CardDone    lipgloss.Style
	CardOverdue lipgloss.Style
	Marker      lipgloss.Style

	// Column styles
	Column       lipgloss.Style
	ColumnActive lipgloss.Style

	Label   lipgloss.Style
	DueDate lipgloss.Style
	Input   lipgloss.Style
	Confirm lipgloss.Style

	// Help styles
	HelpKey       lipgloss.Style
	HelpDesc      lipgloss.Style
	HelpSeparator lipgloss.Style
}

// NewStyles creates styles from a theme
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		Card: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		CardCursor: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Highlight).
			Padding(0, 1),

		CardDone: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Strikethrough(true),

		CardOverdue: lipgloss.NewStyle().
			Foreground(t.Error),

		Marker: lipgloss.NewStyle().
			Foreground(t.Secondary).
			Bold(true),

		Column: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		ColumnActive: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary),

		Label: lipgloss.NewStyle().
			Foreground(t.Subtle),

		DueDate: lipgloss.NewStyle().
			Foreground(t.Warning),

		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),

		Confirm: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.Subtle),

		HelpSeparator: lipgloss.NewStyle().
			Foreground(t.Border),
	}
}

// Current holds the current active theme and styles
var Current = struct {
	Theme  Theme
	Styles Styles
}{
	Theme:  Nord,
	Styles: NewStyles(Nord),
}

// SetTheme changes the current theme
func SetTheme(t Theme) {
	Current.Theme = t
	Current.Styles = NewStyles(t)
}

// Available returns all available themes
func Available() []Theme {
	return []Theme{
		Nord,
		Gruvbox,
	}
}

// ByName returns a theme by its name
func ByName(name string) (Theme, bool) {
	for _, t := range Available() {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Next returns the theme after the current one
func Next() Theme {
	themes := Available()
	for i, t := range themes {
		if t.Name == Current.Theme.Name {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}
