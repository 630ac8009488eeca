package mdslides

import "sort"

// DefaultThemeID is the theme used when none or an unknown one is given.
const DefaultThemeID = "midnight"

// Theme describes a deck theme.
type Theme struct {
	ID   string
	Name string
	// ChromaStyle is the syntax highlighting style for code blocks.
	ChromaStyle string
	// MermaidTheme is passed to the diagram engine.
	MermaidTheme string
	Dark         bool
}

var themes = map[string]Theme{
	"midnight": {
		ID:           "midnight",
		Name:         "Midnight",
		ChromaStyle:  "dracula",
		MermaidTheme: "dark",
		Dark:         true,
	},
	"paper": {
		ID:           "paper",
		Name:         "Paper",
		ChromaStyle:  "github",
		MermaidTheme: "default",
	},
	"hacker": {
		ID:           "hacker",
		Name:         "Hacker",
		ChromaStyle:  "monokai",
		MermaidTheme: "forest",
		Dark:         true,
	},
	"solarized": {
		ID:           "solarized",
		Name:         "Solarized",
		ChromaStyle:  "solarized-light",
		MermaidTheme: "neutral",
	},
}

// Themes returns every built-in theme sorted by id.
func Themes() []Theme {
	list := make([]Theme, 0, len(themes))
	for _, t := range themes {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// IsValidTheme reports whether id names a built-in theme.
func IsValidTheme(id string) bool {
	_, ok := themes[id]
	return ok
}

// LookupTheme returns the theme with the given id.
func LookupTheme(id string) (Theme, bool) {
	t, ok := themes[id]
	return t, ok
}

// ResolveTheme returns the theme with the given id, or the default theme.
func ResolveTheme(id string) Theme {
	if t, ok := themes[id]; ok {
		return t
	}
	return themes[DefaultThemeID]
}
