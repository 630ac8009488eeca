// Package enhance upgrades a mounted slide fragment in place.
//
// A run applies three stages in order:
//  1. Code: placeholders become highlighted blocks (or plain <pre> blocks)
//  2. Math: $...$ and $$...$$ in text nodes become rendered math
//  3. Diagrams: after a short delay, placeholders are rendered concurrently
//
// Every DOM write following an engine call goes through View.mutate with the
// task's relevance guard, so a run that was cancelled, or whose view is no
// longer current, never writes into the view again.
package enhance
