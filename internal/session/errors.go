package session

import "errors"

// Session errors.
var (
	// ErrNoConfig indicates Connect was called without a session config.
	ErrNoConfig = errors.New("config has not been set")

	// ErrNotConnected indicates a send was attempted with no open transport.
	ErrNotConnected = errors.New("websocket is not connected")
)
