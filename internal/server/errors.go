package server

import "errors"

// Sentinel errors for the server.
var (
	ErrUnknownMessage = errors.New("unknown client message")
	ErrBadMessage     = errors.New("malformed client message")
)
