package domain

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrForbidden          = errors.New("forbidden")
	ErrNotInRoom          = errors.New("connection not in a room")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRelayTargetMissing = errors.New("relay target not connected")
	ErrMessageTooLong     = errors.New("message too long")
)
