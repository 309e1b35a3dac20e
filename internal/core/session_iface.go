package core

// SessionID is the server-assigned connection identifier.
type SessionID string

// MemberSession binds a connection id and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	ID() SessionID
	Signal() SignalConnection
}
