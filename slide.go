package mdslides

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/alnah/go-mdslides/internal/pipeline"
)

// EmptySlidePlaceholder is the body given to a slide with no content left
// after notes are removed.
const EmptySlidePlaceholder = "*Empty slide*"

// NoNotesPlaceholder is the notes text of a slide without speaker notes.
const NoNotesPlaceholder = pipeline.NoNotesPlaceholder

// Slide is one compiled unit of a deck.
// Slides are values: a new edit produces a new []Slide.
type Slide struct {
	// ID is the zero-based position of the slide at compile time.
	ID       int
	Title    string
	Markdown string
	// HTML is the rendered skeleton with code and diagram placeholders.
	HTML  string
	Notes string
}

// Compiler turns a Markdown document into slides.
type Compiler struct {
	html pipeline.HTMLConverter
}

// NewCompiler creates a Compiler using the goldmark renderer.
func NewCompiler() *Compiler {
	return &Compiler{html: pipeline.NewGoldmarkConverter()}
}

// Compile splits doc into slides, extracting notes and titles and rendering
// each body to HTML. Compiling the same text twice yields equal slides.
func (c *Compiler) Compile(ctx context.Context, doc string) ([]Slide, error) {
	segments := pipeline.SplitSlides(pipeline.NormalizeLineEndings(doc))
	slides := make([]Slide, 0, len(segments))

	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, notes := pipeline.ExtractNotes(segment)
		body = strings.TrimSpace(body)
		if body == "" {
			body = EmptySlidePlaceholder
		}

		title, ok := pipeline.ExtractTitle(body)
		if !ok {
			title = "Slide " + strconv.Itoa(i+1)
		}

		htmlContent, err := c.html.ToHTML(ctx, body)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}

		slides = append(slides, Slide{
			ID:       i,
			Title:    title,
			Markdown: body,
			HTML:     htmlContent,
			Notes:    notes,
		})
	}

	return slides, nil
}

var defaultCompiler = NewCompiler()

// Compile compiles doc with the default compiler.
// Conversion into an in-memory buffer cannot fail without a cancelled
// context, so no error is returned.
func Compile(doc string) []Slide {
	slides, _ := defaultCompiler.Compile(context.Background(), doc)
	return slides
}

// SlideSlug returns the anchor id of s in a static build, such as
// "2-architecture".
func SlideSlug(s Slide) string {
	return strconv.Itoa(s.ID+1) + "-" + slug.Make(s.Title)
}

// Titles returns the title of every slide, in order.
func Titles(slides []Slide) []string {
	titles := make([]string, len(slides))
	for i, s := range slides {
		titles[i] = s.Title
	}
	return titles
}

// ClampSlide limits index to the valid range for n slides.
func ClampSlide(index, n int) int {
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}
