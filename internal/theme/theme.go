package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

// HeaderStyle is used for the command banner.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// DoneStyle marks a completed step.
var DoneStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// FailStyle marks a failed step.
var FailStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// HintStyle is used for secondary text such as step names and counts.
var HintStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// stepColors assigns a spinner color to each pipeline step.
var stepColors = map[string]lipgloss.AdaptiveColor{
	"fetch":    ColorBlue,
	"prompt":   ColorGreen,
	"generate": ColorYellow,
	"parse":    ColorMagenta,
	"store":    ColorMagenta,
	"search":   ColorBlue,
	"render":   ColorGreen,
}

// SpinnerStyle returns the spinner style for a pipeline step.
func SpinnerStyle(step string) lipgloss.Style {
	c, ok := stepColors[step]
	if !ok {
		c = ColorBlue
	}
	return lipgloss.NewStyle().Foreground(c)
}
