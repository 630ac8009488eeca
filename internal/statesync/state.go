// Package statesync replicates the shared deck state between contexts.
//
// Every local change is persisted to a durable store and broadcast as
// {sourceId, state}. Receivers drop their own messages and malformed
// payloads; everything else is applied with last-write-wins.
package statesync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	mdslides "github.com/alnah/go-mdslides"
)

// ErrMalformedPayload indicates a stored or received payload failed
// validation.
var ErrMalformedPayload = errors.New("malformed sync payload")

// ErrInvalidState indicates a local update produced an invalid state.
var ErrInvalidState = errors.New("invalid state")

// State is the replicated triple.
type State struct {
	Markdown     string `json:"markdown"`
	CurrentSlide int    `json:"currentSlide"`
	ThemeID      string `json:"themeId"`
}

// DefaultState is the state of a context that has never synced.
func DefaultState() State {
	return State{ThemeID: mdslides.DefaultThemeID}
}

// Validate checks the slide index and theme.
func (s State) Validate() error {
	if s.CurrentSlide < 0 {
		return fmt.Errorf("%w: negative slide %d", ErrInvalidState, s.CurrentSlide)
	}
	if !mdslides.IsValidTheme(s.ThemeID) {
		return fmt.Errorf("%w: %w %q", ErrInvalidState, mdslides.ErrUnknownTheme, s.ThemeID)
	}
	return nil
}

// Message is the broadcast envelope.
type Message struct {
	SourceID string `json:"sourceId"`
	State    State  `json:"state"`
}

// EncodeState returns the JSON form of s.
func EncodeState(s State) ([]byte, error) {
	return json.Marshal(s)
}

// EncodeMessage returns the JSON form of m.
func EncodeMessage(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeState parses and validates a stored state: markdown must be a
// string, currentSlide a non-negative integral number and themeId a known
// theme.
func DecodeState(raw []byte) (State, error) {
	var fields struct {
		Markdown     json.RawMessage `json:"markdown"`
		CurrentSlide json.RawMessage `json:"currentSlide"`
		ThemeID      json.RawMessage `json:"themeId"`
	}
	if err := decodeObject(raw, &fields); err != nil {
		return State{}, err
	}

	var s State
	var err error
	if s.Markdown, err = decodeString(fields.Markdown, "markdown"); err != nil {
		return State{}, err
	}
	if s.CurrentSlide, err = decodeIndex(fields.CurrentSlide); err != nil {
		return State{}, err
	}
	if s.ThemeID, err = decodeString(fields.ThemeID, "themeId"); err != nil {
		return State{}, err
	}
	if !mdslides.IsValidTheme(s.ThemeID) {
		return State{}, fmt.Errorf("%w: unknown theme %q", ErrMalformedPayload, s.ThemeID)
	}
	return s, nil
}

// DecodeMessage parses and validates a broadcast message.
func DecodeMessage(raw []byte) (Message, error) {
	var fields struct {
		SourceID json.RawMessage `json:"sourceId"`
		State    json.RawMessage `json:"state"`
	}
	if err := decodeObject(raw, &fields); err != nil {
		return Message{}, err
	}

	id, err := decodeString(fields.SourceID, "sourceId")
	if err != nil {
		return Message{}, err
	}
	if id == "" {
		return Message{}, fmt.Errorf("%w: empty sourceId", ErrMalformedPayload)
	}
	state, err := DecodeState(fields.State)
	if err != nil {
		return Message{}, err
	}
	return Message{SourceID: id, State: state}, nil
}

func decodeObject(raw []byte, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: not a JSON object", ErrMalformedPayload)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func decodeString(raw json.RawMessage, field string) (string, error) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", fmt.Errorf("%w: %s must be a string", ErrMalformedPayload, field)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedPayload, field, err)
	}
	return s, nil
}

func decodeIndex(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, fmt.Errorf("%w: currentSlide must be a number", ErrMalformedPayload)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: currentSlide: %v", ErrMalformedPayload, err)
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: currentSlide must be a non-negative integer, got %s", ErrMalformedPayload, raw)
	}
	return int(f), nil
}
