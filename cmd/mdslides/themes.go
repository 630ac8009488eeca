package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	mdslides "github.com/alnah/go-mdslides"
)

type themeInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Default      bool   `json:"default"`
	ChromaStyle  string `json:"chromaStyle"`
	MermaidTheme string `json:"mermaidTheme"`
}

// runThemes lists the available themes.
func runThemes(args []string, env *Environment) error {
	asJSON := false
	for _, arg := range args {
		switch arg {
		case "--json":
			asJSON = true
		default:
			return fmt.Errorf("%w: unknown argument %q", ErrUsage, arg)
		}
	}

	themes := mdslides.Themes()
	list := make([]themeInfo, len(themes))
	for i, t := range themes {
		list[i] = themeInfo{
			ID:           t.ID,
			Name:         t.Name,
			Default:      t.ID == mdslides.DefaultThemeID,
			ChromaStyle:  t.ChromaStyle,
			MermaidTheme: t.MermaidTheme,
		}
	}

	if asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
	for _, t := range list {
		marker := ""
		if t.Default {
			marker = "(default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, marker)
	}
	return tw.Flush()
}
