package server

// Notes:
// - Sessions run against a real Deck with the browser disabled, so diagram
//   and KaTeX stages run degraded and every render is synchronous.
// - WebSocket tests dial an httptest server with the gorilla dialer and read
//   frames until a predicate matches or a deadline passes.

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/statesync"
	"github.com/alnah/go-mdslides/internal/store"
)

const testDoc = "# Intro\n\nhello\n\nNote: say hi\n\n---\n\n# Code\n\n```go\nfmt.Println(1)\n```\n\n---\n\n# End\n"

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server, *store.Memory) {
	t.Helper()
	return newTestServerWithDeck(t, nil, opts...)
}

func newTestServerWithDeck(t *testing.T, deckOpts []mdslides.Option, opts ...Option) (*Server, *httptest.Server, *store.Memory) {
	t.Helper()

	deckOpts = append([]mdslides.Option{
		mdslides.WithBrowser(false),
		mdslides.WithDiagramDelay(0),
		mdslides.WithLogger(zaptest.NewLogger(t)),
	}, deckOpts...)
	deck, err := mdslides.NewDeck(deckOpts...)
	if err != nil {
		t.Fatalf("NewDeck() error = %v", err)
	}
	mem := store.NewMemory()

	opts = append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithInitialMarkdown(testDoc),
		WithEditDebounce(0),
	}, opts...)
	srv := New(deck, mem, opts...)
	if err := srv.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		_ = srv.Close()
		ts.Close()
		_ = deck.Close()
	})
	return srv, ts, mem
}

type frame struct {
	Type        string          `json:"type"`
	State       statesync.State `json:"state"`
	SlideCount  int             `json:"slideCount"`
	Titles      []string        `json:"titles"`
	Fragment    string          `json:"fragment"`
	LineNumbers bool            `json:"lineNumbers"`
	Index       int             `json:"index"`
	Title       string          `json:"title"`
	HTML        string          `json:"html"`
	Notes       string          `json:"notes"`
	Message     string          `json:"message"`
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON(%v) error = %v", msg, err)
	}
}

// readUntil returns the first frame matching match.
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("no matching frame before deadline: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func isType(typ string) func(frame) bool {
	return func(f frame) bool { return f.Type == typ }
}

func stateAt(slide int) func(frame) bool {
	return func(f frame) bool { return f.Type == frameState && f.State.CurrentSlide == slide }
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url) // #nosec G107 -- test server URL
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

func put(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT %s error = %v", url, err)
	}
	_ = resp.Body.Close()
	return resp
}

// ---------------------------------------------------------------------------
// TestNew - Options
// ---------------------------------------------------------------------------

func TestWithEditDebounce_PanicsOnNegative(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithEditDebounce(-1) did not panic")
		}
	}()
	WithEditDebounce(-1)
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	deck, err := mdslides.NewDeck(mdslides.WithBrowser(false))
	if err != nil {
		t.Fatalf("NewDeck() error = %v", err)
	}
	defer func() { _ = deck.Close() }()

	srv := New(deck, store.NewMemory(), WithTheme("no-such-theme"), WithAddr(""))
	defer func() { _ = srv.Close() }()

	if srv.Addr() != DefaultAddr {
		t.Errorf("Addr() = %q, want %q", srv.Addr(), DefaultAddr)
	}
	if got := srv.State().ThemeID; got != mdslides.DefaultThemeID {
		t.Errorf("State().ThemeID = %q, want %q", got, mdslides.DefaultThemeID)
	}
}

// ---------------------------------------------------------------------------
// TestServer_Bootstrap - Seeding and restoring state
// ---------------------------------------------------------------------------

func TestServer_BootstrapSeedsStore(t *testing.T) {
	t.Parallel()

	srv, _, mem := newTestServer(t, WithTheme("paper"))

	raw, err := mem.Load(context.Background(), statesync.DefaultKey)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	st, err := statesync.DecodeState(raw)
	if err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}
	if st.Markdown != testDoc || st.ThemeID != "paper" {
		t.Errorf("stored state = %+v, want seeded document with paper theme", st)
	}
	if srv.State() != st {
		t.Errorf("State() = %+v, want %+v", srv.State(), st)
	}
}

func TestServer_BootstrapRestoresStore(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory()
	saved := statesync.State{Markdown: "# Saved", CurrentSlide: 0, ThemeID: "hacker"}
	raw, _ := statesync.EncodeState(saved)
	if err := mem.Save(context.Background(), statesync.DefaultKey, raw); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	deck, err := mdslides.NewDeck(mdslides.WithBrowser(false))
	if err != nil {
		t.Fatalf("NewDeck() error = %v", err)
	}
	defer func() { _ = deck.Close() }()

	srv := New(deck, mem, WithInitialMarkdown("# Ignored"))
	defer func() { _ = srv.Close() }()
	if err := srv.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if srv.State() != saved {
		t.Errorf("State() = %+v, want %+v", srv.State(), saved)
	}
}

func TestServer_LoadDocumentClampsSlide(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t, WithTheme("hacker"))
	ctx := context.Background()

	if err := srv.sync.SetSlide(ctx, 2); err != nil {
		t.Fatalf("SetSlide() error = %v", err)
	}

	if err := srv.LoadDocument(ctx, "# One\n---\n# Two"); err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	got := srv.State()
	if got.CurrentSlide != 1 || got.ThemeID != "hacker" || got.Markdown != "# One\n---\n# Two" {
		t.Errorf("State() = %+v, want second slide of new document in hacker", got)
	}
}

// ---------------------------------------------------------------------------
// TestServer_HTTP - Pages, stylesheets and health
// ---------------------------------------------------------------------------

func TestServer_Pages(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t, WithTitle("Talk"))

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"editor", "/", []string{"<title>Talk</title>", `id="source"`, `value="solarized"`, "new WebSocket"}},
		{"presenter", "/presenter", []string{`id="notes"`, "new WebSocket"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, body := get(t, ts.URL+tt.path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q, want text/html", ct)
			}
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}

func TestServer_ThemeCSS(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/themes/paper.css")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Content-Type = %q, want text/css", ct)
	}
	if !strings.Contains(body, "#f4f1ea") {
		t.Error("paper stylesheet missing its background color")
	}

	if resp, _ := get(t, ts.URL+"/themes/neon.css"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown theme status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(body) != "ok" {
		t.Errorf("healthz = %d %q, want 200 ok", resp.StatusCode, body)
	}
}

// ---------------------------------------------------------------------------
// TestServer_API - State and slides
// ---------------------------------------------------------------------------

func TestServer_GetState(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/api/state")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var st statesync.State
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	want := statesync.State{Markdown: testDoc, ThemeID: mdslides.DefaultThemeID}
	if st != want {
		t.Errorf("state = %+v, want %+v", st, want)
	}
}

func TestServer_PutState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"markdown":"# A\n---\n# B","currentSlide":1,"themeId":"hacker"}`, http.StatusNoContent},
		{"integral float", `{"markdown":"x","currentSlide":0.0,"themeId":"paper"}`, http.StatusNoContent},
		{"negative slide", `{"markdown":"x","currentSlide":-1,"themeId":"paper"}`, http.StatusBadRequest},
		{"fractional slide", `{"markdown":"x","currentSlide":1.5,"themeId":"paper"}`, http.StatusBadRequest},
		{"unknown theme", `{"markdown":"x","currentSlide":0,"themeId":"neon"}`, http.StatusBadRequest},
		{"markdown not string", `{"markdown":1,"currentSlide":0,"themeId":"paper"}`, http.StatusBadRequest},
		{"not an object", `[1,2]`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, ts, _ := newTestServer(t)
			before := srv.State()

			resp := put(t, ts.URL+"/api/state", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusNoContent && srv.State() != before {
				t.Errorf("rejected PUT changed state to %+v", srv.State())
			}
		})
	}
}

func TestServer_PutStateRoundTrip(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)
	body := `{"markdown":"# Über \"quotes\" ` + "`ticks`" + `\n\nline","currentSlide":0,"themeId":"solarized"}`
	if resp := put(t, ts.URL+"/api/state", body); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT status = %d, want 204", resp.StatusCode)
	}

	_, got := get(t, ts.URL+"/api/state")
	var st statesync.State
	if err := json.Unmarshal([]byte(got), &st); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if st.Markdown != "# Über \"quotes\" `ticks`\n\nline" || st.ThemeID != "solarized" {
		t.Errorf("state = %+v", st)
	}
}

func TestServer_ListSlides(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)

	_, body := get(t, ts.URL+"/api/slides")
	var list []slideSummary
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatalf("decoding slides: %v", err)
	}
	want := []slideSummary{
		{Index: 0, Title: "Intro", Anchor: "1-intro"},
		{Index: 1, Title: "Code", Anchor: "2-code"},
		{Index: 2, Title: "End", Anchor: "3-end"},
	}
	if len(list) != len(want) {
		t.Fatalf("got %d slides, want %d", len(list), len(want))
	}
	for i := range want {
		if list[i] != want[i] {
			t.Errorf("slide %d = %+v, want %+v", i, list[i], want[i])
		}
	}
}

func TestServer_GetSlide(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)

	t.Run("enhanced", func(t *testing.T) {
		t.Parallel()

		resp, body := get(t, ts.URL+"/api/slides/1?lineNumbers=1")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var d slideDetail
		if err := json.Unmarshal([]byte(body), &d); err != nil {
			t.Fatalf("decoding slide: %v", err)
		}
		if d.Index != 1 || d.Title != "Code" {
			t.Errorf("slide = %d %q, want 1 Code", d.Index, d.Title)
		}
		if strings.Contains(d.HTML, `class="code-placeholder"`) {
			t.Errorf("code block left unenhanced: %s", d.HTML)
		}
	})

	t.Run("notes", func(t *testing.T) {
		t.Parallel()

		_, body := get(t, ts.URL+"/api/slides/0")
		var d slideDetail
		if err := json.Unmarshal([]byte(body), &d); err != nil {
			t.Fatalf("decoding slide: %v", err)
		}
		if !strings.Contains(d.Notes, "say hi") {
			t.Errorf("notes = %q, want speaker notes", d.Notes)
		}
		if strings.Contains(d.HTML, "say hi") {
			t.Error("notes leaked into slide body")
		}
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()

		if resp, _ := get(t, ts.URL+"/api/slides/9"); resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("unknown theme", func(t *testing.T) {
		t.Parallel()

		if resp, _ := get(t, ts.URL+"/api/slides/0?theme=neon"); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

// ---------------------------------------------------------------------------
// TestSession - WebSocket sessions
// ---------------------------------------------------------------------------

func TestSession_InitialFrames(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)
	conn := dial(t, ts)

	st := readUntil(t, conn, isType(frameState))
	if st.SlideCount != 3 || st.State.CurrentSlide != 0 {
		t.Errorf("state frame = %+v, want 3 slides at 0", st)
	}
	if got := strings.Join(st.Titles, ","); got != "Intro,Code,End" {
		t.Errorf("titles = %q", got)
	}
	if st.Fragment != "slide=1&theme=midnight" {
		t.Errorf("fragment = %q", st.Fragment)
	}

	sl := readUntil(t, conn, isType(frameSlide))
	if sl.Index != 0 || sl.Title != "Intro" || !strings.Contains(sl.HTML, "hello") {
		t.Errorf("slide frame = %+v", sl)
	}
	if !strings.Contains(sl.Notes, "say hi") {
		t.Errorf("notes = %q", sl.Notes)
	}
}

func TestSession_GotoPropagates(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)
	a := dial(t, ts)
	b := dial(t, ts)
	readUntil(t, a, isType(frameSlide))
	readUntil(t, b, isType(frameSlide))

	send(t, a, map[string]any{"type": msgGoto, "slide": 1})

	got := readUntil(t, b, stateAt(1))
	if got.Fragment != "slide=2&theme=midnight" {
		t.Errorf("fragment = %q", got.Fragment)
	}
	sl := readUntil(t, b, isType(frameSlide))
	if sl.Index != 1 {
		t.Errorf("slide frame index = %d, want 1", sl.Index)
	}

	// The sender renders its own change exactly once.
	readUntil(t, a, stateAt(1))
	readUntil(t, a, isType(frameSlide))
	_ = a.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var extra frame
	if err := a.ReadJSON(&extra); err == nil && extra.Type == frameState {
		t.Errorf("sender received an echoed state frame: %+v", extra)
	}
}

func TestSession_GotoClamps(t *testing.T) {
	t.Parallel()

	srv, ts, _ := newTestServer(t)
	conn := dial(t, ts)
	readUntil(t, conn, isType(frameSlide))

	send(t, conn, map[string]any{"type": msgGoto, "slide": 42})
	readUntil(t, conn, stateAt(2))

	deadline := time.Now().Add(5 * time.Second)
	for srv.State().CurrentSlide != 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.State().CurrentSlide != 2 {
		t.Errorf("server state slide = %d, want 2", srv.State().CurrentSlide)
	}
}

func TestSession_Hello(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)
	conn := dial(t, ts)
	readUntil(t, conn, isType(frameSlide))

	send(t, conn, map[string]any{"type": msgHello, "fragment": "#slide=3&theme=hacker&presenter=1"})
	got := readUntil(t, conn, stateAt(2))
	if got.State.ThemeID != "hacker" {
		t.Errorf("theme = %q, want hacker", got.State.ThemeID)
	}
}

func TestSession_HelloKeepsUnlinkedTheme(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)
	conn := dial(t, ts)
	readUntil(t, conn, isType(frameSlide))

	send(t, conn, map[string]any{"type": msgTheme, "themeId": "paper"})
	readUntil(t, conn, func(f frame) bool { return f.Type == frameState && f.State.ThemeID == "paper" })

	send(t, conn, map[string]any{"type": msgHello, "fragment": "#slide=3"})
	got := readUntil(t, conn, stateAt(2))
	if got.State.ThemeID != "paper" {
		t.Errorf("theme = %q, want paper kept by a slide-only link", got.State.ThemeID)
	}

	send(t, conn, map[string]any{"type": msgHello, "fragment": "#theme=hacker"})
	got = readUntil(t, conn, func(f frame) bool { return f.Type == frameState && f.State.ThemeID == "hacker" })
	if got.State.CurrentSlide != 2 {
		t.Errorf("slide = %d, want 2 kept by a theme-only link", got.State.CurrentSlide)
	}
}

// blockingMath holds every render until release is closed.
type blockingMath struct {
	entered chan struct{}
	release chan struct{}
}

func (m blockingMath) RenderMath(expr string, _ bool) (string, error) {
	select {
	case m.entered <- struct{}{}:
	default:
	}
	<-m.release
	return "<i>" + expr + "</i>", nil
}

func TestSession_GotoDuringSlowRender(t *testing.T) {
	t.Parallel()

	math := blockingMath{entered: make(chan struct{}, 8), release: make(chan struct{})}
	_, ts, _ := newTestServerWithDeck(t,
		[]mdslides.Option{mdslides.WithMathRenderer(math)},
		WithInitialMarkdown("# Intro\n\n---\n\n# Math\n\n$x$\n\n---\n\n# End\n"))
	var once sync.Once
	release := func() { once.Do(func() { close(math.release) }) }
	t.Cleanup(release)

	a := dial(t, ts)
	b := dial(t, ts)
	readUntil(t, a, isType(frameSlide))
	readUntil(t, b, isType(frameSlide))

	// b renders the math slide from a remote apply and stays stuck in it.
	send(t, a, map[string]any{"type": msgGoto, "slide": 1})
	readUntil(t, b, stateAt(1))
	for range 2 {
		select {
		case <-math.entered:
		case <-time.After(5 * time.Second):
			t.Fatal("math renderer never called")
		}
	}

	send(t, b, map[string]any{"type": msgGoto, "slide": 2})
	readUntil(t, b, stateAt(2))

	release()
	if sl := readUntil(t, b, func(f frame) bool { return f.Type == frameSlide && f.Index == 2 }); sl.Title != "End" {
		t.Errorf("slide title = %q, want End", sl.Title)
	}
}

func TestSession_EditRecompiles(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)
	a := dial(t, ts)
	b := dial(t, ts)
	readUntil(t, a, isType(frameSlide))
	readUntil(t, b, isType(frameSlide))

	send(t, a, map[string]any{"type": msgGoto, "slide": 2})
	readUntil(t, b, stateAt(2))

	send(t, a, map[string]any{"type": msgEdit, "markdown": "# Only"})
	got := readUntil(t, b, func(f frame) bool { return f.Type == frameState && f.SlideCount == 1 })
	if got.State.CurrentSlide != 0 || got.State.Markdown != "# Only" {
		t.Errorf("state after edit = %+v, want clamped to the single slide", got.State)
	}
}

func TestSession_ThemeAndLineNumbers(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)
	conn := dial(t, ts)
	readUntil(t, conn, isType(frameSlide))

	send(t, conn, map[string]any{"type": msgTheme, "themeId": "neon"})
	if f := readUntil(t, conn, isType(frameError)); !strings.Contains(f.Message, "neon") {
		t.Errorf("error message = %q", f.Message)
	}

	send(t, conn, map[string]any{"type": msgTheme, "themeId": "paper"})
	readUntil(t, conn, func(f frame) bool { return f.Type == frameState && f.State.ThemeID == "paper" })

	send(t, conn, map[string]any{"type": msgLineNumbers, "enabled": true})
	if f := readUntil(t, conn, isType(frameState)); !f.LineNumbers {
		t.Error("state frame after lineNumbers does not report them enabled")
	}
}

func TestSession_PutStateReachesSessions(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)
	conn := dial(t, ts)
	readUntil(t, conn, isType(frameSlide))

	body := `{"markdown":"# One\n---\n# Two","currentSlide":1,"themeId":"solarized"}`
	if resp := put(t, ts.URL+"/api/state", body); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}
	got := readUntil(t, conn, func(f frame) bool { return f.Type == frameState && f.State.ThemeID == "solarized" })
	if got.SlideCount != 2 || got.State.CurrentSlide != 1 {
		t.Errorf("state frame = %+v", got)
	}
	if sl := readUntil(t, conn, isType(frameSlide)); sl.Title != "Two" {
		t.Errorf("slide title = %q, want Two", sl.Title)
	}
}

func TestSession_BadMessages(t *testing.T) {
	t.Parallel()

	_, ts, _ := newTestServer(t)
	conn := dial(t, ts)
	readUntil(t, conn, isType(frameSlide))

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	readUntil(t, conn, isType(frameError))

	send(t, conn, map[string]any{"type": "dance"})
	if f := readUntil(t, conn, isType(frameError)); !strings.Contains(f.Message, "dance") {
		t.Errorf("error message = %q", f.Message)
	}
}

// ---------------------------------------------------------------------------
// TestServer_Serve - Lifecycle
// ---------------------------------------------------------------------------

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	deck, err := mdslides.NewDeck(mdslides.WithBrowser(false))
	if err != nil {
		t.Fatalf("NewDeck() error = %v", err)
	}
	defer func() { _ = deck.Close() }()

	srv := New(deck, store.NewMemory(), WithLogger(zaptest.NewLogger(t)), WithShutdownTimeout(time.Second))
	if err := srv.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()
	readUntil(t, conn, isType(frameSlide))

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
