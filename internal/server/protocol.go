package server

import (
	"encoding/json"
	"fmt"

	"github.com/alnah/go-mdslides/internal/statesync"
)

// Client message types.
const (
	msgHello       = "hello"
	msgEdit        = "edit"
	msgGoto        = "goto"
	msgTheme       = "theme"
	msgLineNumbers = "lineNumbers"
)

// Server frame types.
const (
	frameState = "state"
	frameSlide = "slide"
	frameError = "error"
)

// clientMessage is any message a viewer sends over the socket.
type clientMessage struct {
	Type     string  `json:"type"`
	Fragment string  `json:"fragment,omitempty"`
	Markdown *string `json:"markdown,omitempty"`
	Slide    *int    `json:"slide,omitempty"`
	ThemeID  string  `json:"themeId,omitempty"`
	Enabled  bool    `json:"enabled,omitempty"`
}

func decodeClientMessage(raw []byte) (clientMessage, error) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return clientMessage{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	switch msg.Type {
	case msgHello, msgTheme, msgLineNumbers:
	case msgEdit:
		if msg.Markdown == nil {
			return clientMessage{}, fmt.Errorf("%w: edit without markdown", ErrBadMessage)
		}
	case msgGoto:
		if msg.Slide == nil {
			return clientMessage{}, fmt.Errorf("%w: goto without slide", ErrBadMessage)
		}
	default:
		return clientMessage{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return msg, nil
}

// stateFrame reports the shared state as this session displays it.
type stateFrame struct {
	Type        string          `json:"type"`
	State       statesync.State `json:"state"`
	SlideCount  int             `json:"slideCount"`
	Titles      []string        `json:"titles"`
	Fragment    string          `json:"fragment"`
	LineNumbers bool            `json:"lineNumbers"`
}

// slideFrame carries the current markup of the displayed slide.
type slideFrame struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Title string `json:"title"`
	HTML  string `json:"html"`
	Notes string `json:"notes"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
