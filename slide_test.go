package mdslides

// Notes:
// - Slides are compared with reflect.DeepEqual: Slide holds only strings and
//   an int, so structural identity is plain value equality.

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestCompile_Purity(t *testing.T) {
	t.Parallel()

	docs := []string{
		"",
		"# One",
		"# A\n---\n# B\n\n```go\nfmt.Println(1)\n```\n---\n```mermaid\ngraph TD; A-->B\n```",
		"Note: only notes\n---\n::: notes\nhidden\n:::\n## Two\n\nInline $x$",
	}
	for _, doc := range docs {
		first, second := Compile(doc), Compile(doc)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Compile(%q) is not deterministic:\n%+v\n%+v", doc, first, second)
		}
	}
}

func TestCompile_NoSeparatorIsOneSlide(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{"", "plain text", "# Title\n\nbody\n\n-- not a separator\n----"} {
		if got := len(Compile(doc)); got != 1 {
			t.Errorf("Compile(%q) = %d slides, want 1", doc, got)
		}
	}
}

func TestCompile_TitlesAndIDs(t *testing.T) {
	t.Parallel()

	slides := Compile("# A\n---\n# B\n---\n# C")
	if len(slides) != 3 {
		t.Fatalf("got %d slides, want 3", len(slides))
	}
	for i, want := range []string{"A", "B", "C"} {
		if slides[i].ID != i {
			t.Errorf("slides[%d].ID = %d", i, slides[i].ID)
		}
		if slides[i].Title != want {
			t.Errorf("slides[%d].Title = %q, want %q", i, slides[i].Title, want)
		}
	}
	if got := Titles(slides); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("Titles() = %v", got)
	}
}

func TestCompile_Slide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		doc       string
		wantTitle string
		wantMD    string
		wantNotes string
	}{
		{
			name:      "level two heading",
			doc:       "intro\n## Agenda ##\n",
			wantTitle: "Agenda",
			wantMD:    "intro\n## Agenda ##",
			wantNotes: NoNotesPlaceholder,
		},
		{
			name:      "fallback title",
			doc:       "### deep\n\ntext",
			wantTitle: "Slide 1",
			wantMD:    "### deep\n\ntext",
			wantNotes: NoNotesPlaceholder,
		},
		{
			name:      "notes only becomes empty slide",
			doc:       "Note: remember the demo",
			wantTitle: "Slide 1",
			wantMD:    EmptySlidePlaceholder,
			wantNotes: "remember the demo",
		},
		{
			name:      "crlf line endings",
			doc:       "# Win\r\n\r\nNOTE: crlf\r\n",
			wantTitle: "Win",
			wantMD:    "# Win",
			wantNotes: "crlf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := Compile(tt.doc)[0]
			if s.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", s.Title, tt.wantTitle)
			}
			if s.Markdown != tt.wantMD {
				t.Errorf("Markdown = %q, want %q", s.Markdown, tt.wantMD)
			}
			if s.Notes != tt.wantNotes {
				t.Errorf("Notes = %q, want %q", s.Notes, tt.wantNotes)
			}
		})
	}
}

func TestCompile_NotesNeverInBody(t *testing.T) {
	t.Parallel()

	docs := []string{
		"# One\n::: notes\nsecret alpha\n:::\n---\n# Two\nNote: secret beta",
		"# One\n::: NOTES\nsecret gamma\n:::\nnote: secret delta\n---\n# Two",
	}
	for _, doc := range docs {
		withNotes := Compile(doc)
		stripped := Compile(strings.NewReplacer("secret", "").Replace(doc))
		if len(withNotes) != len(stripped) {
			t.Errorf("notes changed slide count: %d vs %d", len(withNotes), len(stripped))
		}
		for _, s := range withNotes {
			if strings.Contains(s.Markdown, "secret") || strings.Contains(s.HTML, "secret") {
				t.Errorf("slide %d leaks notes: %q / %q", s.ID, s.Markdown, s.HTML)
			}
		}
	}
	if n := Compile(docs[0]); !strings.Contains(n[0].Notes, "secret alpha") || !strings.Contains(n[1].Notes, "secret beta") {
		t.Errorf("notes not extracted: %q, %q", n[0].Notes, n[1].Notes)
	}
}

func TestCompile_FencedSeparator(t *testing.T) {
	t.Parallel()

	doc := "# YAML\n\n```yaml\n---\nkey: value\n```\n---\n# Next"
	slides := Compile(doc)
	if len(slides) != 2 {
		t.Fatalf("got %d slides, want 2", len(slides))
	}
	if !strings.Contains(slides[0].Markdown, "---\nkey: value") {
		t.Errorf("fenced separator should stay in the code block: %q", slides[0].Markdown)
	}
	if !strings.Contains(slides[0].HTML, `class="code-placeholder"`) {
		t.Errorf("fenced block should render as a code placeholder: %q", slides[0].HTML)
	}
}

func TestCompiler_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCompiler().Compile(ctx, "# A\n---\n# B"); !errors.Is(err, context.Canceled) {
		t.Errorf("Compile() error = %v, want context.Canceled", err)
	}
}

func TestSlideSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		slide Slide
		want  string
	}{
		{Slide{ID: 0, Title: "Hello World"}, "1-hello-world"},
		{Slide{ID: 4, Title: "Café & Crème"}, "5-cafe-and-creme"},
		{Slide{ID: 9, Title: "Slide 10"}, "10-slide-10"},
	}
	for _, tt := range tests {
		if got := SlideSlug(tt.slide); got != tt.want {
			t.Errorf("SlideSlug(%+v) = %q, want %q", tt.slide, got, tt.want)
		}
	}
}

func TestClampSlide(t *testing.T) {
	t.Parallel()

	tests := []struct{ index, n, want int }{
		{0, 3, 0},
		{2, 3, 2},
		{3, 3, 2},
		{-1, 3, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := ClampSlide(tt.index, tt.n); got != tt.want {
			t.Errorf("ClampSlide(%d, %d) = %d, want %d", tt.index, tt.n, got, tt.want)
		}
	}
}
