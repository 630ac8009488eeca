package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	mdslides "github.com/alnah/go-mdslides"
)

type slideNotes struct {
	Slide  int    `json:"slide"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
	Notes  string `json:"notes"`
}

// runNotes prints the speaker notes of every slide.
func runNotes(args []string, env *Environment) error {
	flags, positional, err := parseNotesFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	input, err := singleInput(positional)
	if err != nil {
		return err
	}
	markdown, err := readMarkdown(input)
	if err != nil {
		return err
	}

	slides := mdslides.Compile(markdown)
	list := make([]slideNotes, len(slides))
	for i, s := range slides {
		list[i] = slideNotes{Slide: s.ID + 1, Title: s.Title, Anchor: mdslides.SlideSlug(s), Notes: s.Notes}
	}

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	printNotes(env.Stdout, list)
	return nil
}

func printNotes(w io.Writer, list []slideNotes) {
	for i, n := range list {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%d. %s\n", n.Slide, n.Title)
		for _, line := range strings.Split(n.Notes, "\n") {
			fmt.Fprintf(w, "   %s\n", line)
		}
	}
}
