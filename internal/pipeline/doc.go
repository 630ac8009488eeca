// Package pipeline implements the Markdown side of slide compilation.
//
// This package handles the stages that run before anything is mounted:
//   - Line ending normalization
//   - Slide splitting on "---" separator lines (fence aware)
//   - Title extraction from the first level 1 or 2 heading
//   - Speaker note extraction ("::: notes" blocks and "Note:" lines)
//   - Markdown to HTML conversion via Goldmark, with fenced code and
//     diagram blocks replaced by inert placeholder elements
//   - Speaker notes rendering for the presenter view
//   - Fragment parse/render helpers over golang.org/x/net/html
//
// Progressive enhancement of the placeholders is handled separately by
// internal/enhance. This separation keeps compilation a pure function of the
// document text, while enhancement deals with engines, timers and
// cancellation.
package pipeline
