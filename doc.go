// Package mdslides turns a Markdown document into a slide deck and
// enhances each slide progressively: code highlighting, math typesetting and
// diagrams, in that order.
//
// # Quick Start
//
// Compile a document into slides:
//
//	slides := mdslides.Compile("# Hello\n\nNote: say hi\n---\n# Bye")
//	fmt.Println(slides[0].Title, slides[0].Notes) // Hello say hi
//
// Slides are split on lines holding only `---`, outside fenced code blocks.
// Speaker notes are written as `::: notes ... :::` blocks or lines starting
// with `Note:`; they never appear in the slide body.
//
// # Enhancement
//
// A Deck owns the engines and runs the enhancement stages:
//
//	deck, err := mdslides.NewDeck(mdslides.WithBrowser(false))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer deck.Close()
//
//	html, err := deck.Enhance(ctx, slides[0], mdslides.EnhanceSettings{
//	    ThemeID:     "paper",
//	    LineNumbers: true,
//	})
//
// Code blocks are highlighted with chroma. Math is emitted as \(…\) markup
// for typesetting in the viewer (MathMarkup) or typeset on the server with
// KaTeX (MathKaTeX). Mermaid diagrams are rendered in headless Chrome.
// Engine failures never abort a run: the affected block falls back to its
// source text or an inline error.
//
// # Static Builds
//
//	var out bytes.Buffer
//	err := deck.Build(ctx, &out, markdown, mdslides.BuildOptions{ThemeID: "midnight"})
//
// The page is self-contained apart from the KaTeX stylesheet.
//
// # Deep Links
//
// A deep link encodes the slide, theme and presenter flag in a URL
// fragment:
//
//	link := mdslides.ParseDeepLink("#slide=3&theme=hacker")
//	link.SlideIndex // 2
//	link.Fragment() // "slide=3&theme=hacker"
//
// Parsing never fails; invalid values fall back to the first slide and the
// default theme.
//
// # Live Presentation
//
// The server in internal/server keeps editor and presenter views of one
// deck in sync; see cmd/mdslides.
package mdslides
