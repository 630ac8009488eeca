// Package browser renders diagrams and math in headless Chrome via go-rod.
//
// The browser is launched lazily on the first render. Pages load a small host
// document that pulls in Mermaid and KaTeX, and are pooled so concurrent
// renders do not pay the page load each time.
//
// Rod downloads a managed Chromium on first run if none is found. Set
// ROD_BROWSER_BIN to use a pre-installed browser and ROD_NO_SANDBOX=1 in
// containers.
package browser
