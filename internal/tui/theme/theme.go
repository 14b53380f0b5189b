// Package theme defines color themes for the tankcast dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name          string
	Background    lipgloss.Color // app background
	Surface       lipgloss.Color // card and panel backgrounds
	SurfaceHover  lipgloss.Color // active tab
	SurfaceBright lipgloss.Color // selected row
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // focused card border
	TextDim       lipgloss.Color // hints
	TextMuted     lipgloss.Color // labels
	TextPrimary   lipgloss.Color
	Accent        lipgloss.Color
	AccentBright  lipgloss.Color
	Green         lipgloss.Color // fill above the reserve band
	GreenBright   lipgloss.Color
	Yellow        lipgloss.Color
	Orange        lipgloss.Color // approaching reserve
	Red           lipgloss.Color // below reserve
	Cyan          lipgloss.Color

	History  lipgloss.Color // observed consumption bars
	Forecast lipgloss.Color // projected consumption bars
	Reserve  lipgloss.Color // reserve threshold marker
}

// palette is the base color set a theme is derived from. Backgrounds run
// darkest to lightest, text from dimmest to brightest.
type palette struct {
	bg       [4]string // background, surface, hover, bright
	border   string
	text     [3]string // dim, muted, primary
	accent   [2]string // normal, bright
	green    [2]string
	yellow   string
	orange   string
	red      string
	blue     string
	magenta  string
	cyan     string
	focusRim string // defaults to accent
}

func (p palette) theme(name string) Theme {
	c := func(s string) lipgloss.Color { return lipgloss.Color(s) }
	rim := p.focusRim
	if rim == "" {
		rim = p.accent[0]
	}
	return Theme{
		Name:          name,
		Background:    c(p.bg[0]),
		Surface:       c(p.bg[1]),
		SurfaceHover:  c(p.bg[2]),
		SurfaceBright: c(p.bg[3]),
		Border:        c(p.border),
		BorderAccent:  c(rim),
		TextDim:       c(p.text[0]),
		TextMuted:     c(p.text[1]),
		TextPrimary:   c(p.text[2]),
		Accent:        c(p.accent[0]),
		AccentBright:  c(p.accent[1]),
		Green:         c(p.green[0]),
		GreenBright:   c(p.green[1]),
		Yellow:        c(p.yellow),
		Orange:        c(p.orange),
		Red:           c(p.red),
		Cyan:          c(p.cyan),
		History:       c(p.blue),
		Forecast:      c(p.magenta),
		Reserve:       c(p.yellow),
	}
}

// FlexokiDark is the default: warm, paper-inspired dark colors.
var FlexokiDark = palette{
	bg:      [4]string{"#100F0F", "#1C1B1A", "#282726", "#343331"},
	border:  "#403E3C",
	text:    [3]string{"#575653", "#878580", "#FFFCF0"},
	accent:  [2]string{"#3AA99F", "#5BC8BE"},
	green:   [2]string{"#879A39", "#A3B859"},
	yellow:  "#D0A215",
	orange:  "#DA702C",
	red:     "#D14D41",
	blue:    "#4385BE",
	magenta: "#CE5D97",
	cyan:    "#24837B",
}.theme("flexoki-dark")

// CatppuccinMocha is a soft pastel theme.
var CatppuccinMocha = palette{
	bg:      [4]string{"#1E1E2E", "#313244", "#45475A", "#585B70"},
	border:  "#585B70",
	text:    [3]string{"#6C7086", "#A6ADC8", "#CDD6F4"},
	accent:  [2]string{"#89B4FA", "#B4D0FB"},
	green:   [2]string{"#A6E3A1", "#C6F6C1"},
	yellow:  "#F9E2AF",
	orange:  "#FAB387",
	red:     "#F38BA8",
	blue:    "#74C7EC",
	magenta: "#F5C2E7",
	cyan:    "#94E2D5",
}.theme("catppuccin-mocha")

// TokyoNight is a cool blue and purple theme.
var TokyoNight = palette{
	bg:      [4]string{"#1A1B26", "#24283B", "#343A52", "#414868"},
	border:  "#565F89",
	text:    [3]string{"#565F89", "#A9B1D6", "#C0CAF5"},
	accent:  [2]string{"#7AA2F7", "#A9C1FF"},
	green:   [2]string{"#9ECE6A", "#B9E87A"},
	yellow:  "#E0AF68",
	orange:  "#FF9E64",
	red:     "#F7768E",
	blue:    "#2AC3DE",
	magenta: "#BB9AF7",
	cyan:    "#7DCFFF",
}.theme("tokyo-night")

// Terminal sticks to the 16 ANSI colors.
var Terminal = palette{
	bg:       [4]string{"0", "0", "8", "8"},
	border:   "8",
	text:     [3]string{"8", "7", "15"},
	accent:   [2]string{"6", "14"},
	green:    [2]string{"2", "10"},
	yellow:   "11",
	orange:   "3",
	red:      "1",
	blue:     "4",
	magenta:  "5",
	cyan:     "6",
	focusRim: "14",
}.theme("terminal")

// Active is the currently selected theme.
var Active = FlexokiDark

// All available themes, in display order.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// Names returns the names of all themes.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
